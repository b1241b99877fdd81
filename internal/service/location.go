package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ogura/location-service/internal/domain"
	"github.com/ogura/location-service/internal/event"
	"github.com/ogura/location-service/internal/geo"
	"github.com/ogura/location-service/internal/repository"
	apperrors "github.com/ogura/location-service/pkg/errors"
)

// lookupFailedMessage is the only pincode failure text shown to users.
// Provider errors are logged, never echoed.
const lookupFailedMessage = "Unable to verify pincode. Please try again."

// LocationService resolves and tracks the delivery location for each
// session. Resolution never returns an error: every path ends in a usable
// location, falling back to the hardcoded default.
type LocationService struct {
	sessions      repository.SessionStateRepository
	profiles      repository.ProfileRepository
	zones         repository.DeliveryZoneRepository
	ipLocator     geo.IPLocator
	geocoder      geo.ReverseGeocoder
	pincodes      geo.PincodeResolver
	producer      *event.Producer
	logger        *slog.Logger
	lookupTimeout time.Duration

	// gates guard pincode lookups per session: a response is only adopted
	// if no newer lookup started while it was in flight.
	mu    sync.Mutex
	gates map[string]*lookupGate
}

// lookupGate serializes pincode-lookup adoption for one session. The
// generation counter and the state write share the same lock, so a stale
// response can never be persisted after a newer lookup has adopted.
type lookupGate struct {
	mu  sync.Mutex
	gen uint64
}

// next starts a new lookup generation, superseding any still in flight.
func (g *lookupGate) next() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	return g.gen
}

// current returns the latest generation started for the session.
func (g *lookupGate) current() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gen
}

// adopt runs persist while holding the gate, but only if gen is still the
// current generation. A lookup started on another goroutine blocks in next
// until persist returns, so it cannot overtake the write.
func (g *lookupGate) adopt(gen uint64, persist func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gen != gen {
		return false
	}
	persist()
	return true
}

// NewLocationService creates a new location service.
func NewLocationService(
	sessions repository.SessionStateRepository,
	profiles repository.ProfileRepository,
	zones repository.DeliveryZoneRepository,
	ipLocator geo.IPLocator,
	geocoder geo.ReverseGeocoder,
	pincodes geo.PincodeResolver,
	producer *event.Producer,
	logger *slog.Logger,
	lookupTimeout time.Duration,
) *LocationService {
	if lookupTimeout <= 0 {
		lookupTimeout = 10 * time.Second
	}
	return &LocationService{
		sessions:      sessions,
		profiles:      profiles,
		zones:         zones,
		ipLocator:     ipLocator,
		geocoder:      geocoder,
		pincodes:      pincodes,
		producer:      producer,
		logger:        logger,
		lookupTimeout: lookupTimeout,
		gates:         make(map[string]*lookupGate),
	}
}

// Resolve determines the session's location at startup. The strategies run
// in order and the first success wins; fields from different strategies are
// never merged:
//
//  1. the cached session location;
//  2. the authenticated profile, when its city is non-empty (this also
//     short-circuits IP detection);
//  3. IP geolocation;
//  4. the hardcoded default.
func (s *LocationService) Resolve(ctx context.Context, scope domain.Scope, clientIP string) *domain.LocationState {
	if cached, err := s.sessions.GetLocation(ctx, scope.SessionID); err == nil {
		return cached
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.WarnContext(ctx, "session location read failed",
			slog.String("session_id", scope.SessionID),
			slog.String("error", err.Error()),
		)
	}

	if scope.Authenticated() {
		profile, err := s.profiles.Get(ctx, scope.UserID)
		if err == nil && profile.City != "" {
			state := &domain.LocationState{
				Location: domain.UserLocation{
					City:      profile.City,
					State:     profile.State,
					Country:   profile.Country,
					Pincode:   profile.Pincode,
					Latitude:  profile.Latitude,
					Longitude: profile.Longitude,
				},
				Source:     domain.SourceProfile,
				Permission: domain.PermissionUnknown,
				DetectedAt: time.Now().UTC(),
			}
			s.adopt(ctx, scope, state)
			return state
		}
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "profile read failed",
				slog.String("user_id", scope.UserID),
				slog.String("error", err.Error()),
			)
		}
	}

	if clientIP != "" {
		place, err := s.ipLocator.Locate(ctx, clientIP)
		if err == nil {
			state := s.stateFromPlace(place, domain.SourceIP, nil)
			s.adopt(ctx, scope, state)
			return state
		}
		s.logger.InfoContext(ctx, "ip geolocation failed, using default location",
			slog.String("error", err.Error()),
		)
	}

	state := &domain.LocationState{
		Location:   domain.DefaultLocation(),
		Source:     domain.SourceDefault,
		Permission: domain.PermissionUnknown,
		DetectedAt: time.Now().UTC(),
	}
	s.adopt(ctx, scope, state)
	return state
}

// Current returns the cached location state for the session.
func (s *LocationService) Current(ctx context.Context, scope domain.Scope) (*domain.LocationState, error) {
	state, err := s.sessions.GetLocation(ctx, scope.SessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("location", scope.SessionID)
		}
		return nil, err
	}
	return state, nil
}

// GPSReport carries a device position report. A denied or unavailable
// permission arrives without a fix.
type GPSReport struct {
	Permission domain.PermissionStatus
	Fix        *domain.GPSFix
}

// RequestLocation handles an explicit user request to use device location.
// A denied or unavailable permission, a stale fix, and a failed geocode all
// end the same way: the permission state is recorded and the caller is told
// to fall back to manual entry. Partial geocode data is never adopted.
func (s *LocationService) RequestLocation(ctx context.Context, scope domain.Scope, report GPSReport) *domain.LocationState {
	if err := s.sessions.MarkLocationAsked(ctx, scope.SessionID); err != nil {
		s.logger.WarnContext(ctx, "failed to mark location prompt shown",
			slog.String("session_id", scope.SessionID),
			slog.String("error", err.Error()),
		)
	}

	if report.Permission == domain.PermissionDenied || report.Permission == domain.PermissionUnavailable {
		return s.manualEntryFallback(ctx, scope, report.Permission)
	}

	if report.Fix == nil {
		return s.manualEntryFallback(ctx, scope, domain.PermissionUnavailable)
	}

	if time.Since(report.Fix.Timestamp) > domain.MaxFixAge {
		s.logger.InfoContext(ctx, "gps fix too old, requiring manual entry",
			slog.String("session_id", scope.SessionID),
			slog.Time("fix_timestamp", report.Fix.Timestamp),
		)
		return s.manualEntryFallback(ctx, scope, domain.PermissionGranted)
	}

	geocodeCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	place, err := s.geocoder.Reverse(geocodeCtx, report.Fix.Latitude, report.Fix.Longitude)
	if err != nil {
		s.logger.InfoContext(ctx, "reverse geocode failed, requiring manual entry",
			slog.String("session_id", scope.SessionID),
			slog.String("error", err.Error()),
		)
		return s.manualEntryFallback(ctx, scope, domain.PermissionGranted)
	}

	lat, lon := report.Fix.Latitude, report.Fix.Longitude
	state := s.stateFromPlace(place, domain.SourceGPS, &coords{lat: lat, lon: lon})
	state.Permission = domain.PermissionGranted
	s.adopt(ctx, scope, state)
	return state
}

// SetManualLocation adopts a user-entered location and clears any pending
// manual-entry requirement. Setting the same location twice is harmless.
func (s *LocationService) SetManualLocation(ctx context.Context, scope domain.Scope, loc domain.UserLocation) *domain.LocationState {
	state := &domain.LocationState{
		Location:   loc,
		Source:     domain.SourceManual,
		Permission: s.currentPermission(ctx, scope),
		DetectedAt: time.Now().UTC(),
	}
	s.adopt(ctx, scope, state)
	return state
}

// CheckDelivery reports serviceability for a pincode. An unknown pincode or
// a failed lookup both produce the optimistic default so browsing is never
// blocked; checkout revalidates.
func (s *LocationService) CheckDelivery(ctx context.Context, pincode string) domain.DeliveryInfo {
	zone, err := s.zones.GetByPincode(ctx, pincode)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "delivery zone lookup failed",
				slog.String("pincode", pincode),
				slog.String("error", err.Error()),
			)
		}
		return domain.OptimisticDelivery()
	}

	return zone.Info()
}

// LookupPincode resolves a pincode to city/state/country and, on success,
// adopts it as the session's manual location. The returned superseded flag
// is true when a newer lookup started for the session while this one was in
// flight; such results carry no state change and should be discarded by the
// caller.
func (s *LocationService) LookupPincode(ctx context.Context, scope domain.Scope, pincode string) (result domain.PincodeResult, superseded bool) {
	gate := s.gateFor(scope.SessionID)
	gen := gate.next()

	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	place, err := s.pincodes.Resolve(lookupCtx, pincode)

	if gate.current() != gen {
		s.logger.DebugContext(ctx, "discarding superseded pincode lookup",
			slog.String("session_id", scope.SessionID),
			slog.String("pincode", pincode),
		)
		return domain.PincodeResult{}, true
	}

	if err != nil {
		s.logger.InfoContext(ctx, "pincode lookup failed",
			slog.String("pincode", pincode),
			slog.String("error", err.Error()),
		)
		return domain.PincodeResult{Success: false, Error: lookupFailedMessage}, false
	}

	state := s.stateFromPlace(place, domain.SourceManual, nil)
	state.Permission = s.currentPermission(ctx, scope)

	// The generation is re-checked under the gate lock together with the
	// write. A lookup that only checked before persisting could still win
	// the session cache after a newer lookup had already adopted.
	if !gate.adopt(gen, func() { s.adopt(ctx, scope, state) }) {
		s.logger.DebugContext(ctx, "discarding superseded pincode lookup",
			slog.String("session_id", scope.SessionID),
			slog.String("pincode", pincode),
		)
		return domain.PincodeResult{}, true
	}

	return domain.PincodeResult{
		Success: true,
		City:    place.City,
		State:   place.State,
		Country: place.Country,
	}, false
}

// ShouldPromptLocation reports whether the client should show the location
// permission prompt. The prompt is shown at most once per session.
func (s *LocationService) ShouldPromptLocation(ctx context.Context, scope domain.Scope) bool {
	asked, err := s.sessions.LocationAsked(ctx, scope.SessionID)
	if err != nil {
		s.logger.WarnContext(ctx, "location asked read failed",
			slog.String("session_id", scope.SessionID),
			slog.String("error", err.Error()),
		)
		return false
	}
	return !asked
}

type coords struct {
	lat, lon float64
}

func (s *LocationService) stateFromPlace(place *domain.GeoPlace, source domain.LocationSource, c *coords) *domain.LocationState {
	loc := domain.UserLocation{
		City:    place.City,
		State:   place.State,
		Country: place.Country,
		Pincode: place.Pincode,
	}
	if c != nil {
		loc.Latitude = &c.lat
		loc.Longitude = &c.lon
	}
	return &domain.LocationState{
		Location:   loc,
		Source:     source,
		Permission: domain.PermissionUnknown,
		DetectedAt: time.Now().UTC(),
	}
}

// adopt persists the new state to the session cache and, for authenticated
// sessions, to the profile row. Persistence failures are logged, never
// surfaced: the in-memory state the caller already holds stays valid.
func (s *LocationService) adopt(ctx context.Context, scope domain.Scope, state *domain.LocationState) {
	if err := s.sessions.SaveLocation(ctx, scope.SessionID, state); err != nil {
		s.logger.ErrorContext(ctx, "failed to cache session location",
			slog.String("session_id", scope.SessionID),
			slog.String("error", err.Error()),
		)
	}

	if scope.Authenticated() {
		profile := &domain.Profile{
			UserID:    scope.UserID,
			City:      state.Location.City,
			State:     state.Location.State,
			Country:   state.Location.Country,
			Pincode:   state.Location.Pincode,
			Latitude:  state.Location.Latitude,
			Longitude: state.Location.Longitude,
			UpdatedAt: time.Now().UTC(),
		}
		if err := s.profiles.Upsert(ctx, profile); err != nil {
			s.logger.ErrorContext(ctx, "failed to persist profile location",
				slog.String("user_id", scope.UserID),
				slog.String("error", err.Error()),
			)
		}
	}

	// Publish event; log but do not fail on error.
	if err := s.producer.PublishLocationChanged(ctx, scope, state); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish location.changed event",
			slog.String("session_id", scope.SessionID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "location adopted",
		slog.String("session_id", scope.SessionID),
		slog.String("city", state.Location.City),
		slog.String("source", string(state.Source)),
	)
}

// manualEntryFallback records the permission outcome and flags the session
// for manual entry without touching the adopted location.
func (s *LocationService) manualEntryFallback(ctx context.Context, scope domain.Scope, permission domain.PermissionStatus) *domain.LocationState {
	state, err := s.sessions.GetLocation(ctx, scope.SessionID)
	if err != nil {
		state = &domain.LocationState{
			Location:   domain.DefaultLocation(),
			Source:     domain.SourceDefault,
			DetectedAt: time.Now().UTC(),
		}
	}

	state.Permission = permission
	state.ManualEntryRequired = true

	if err := s.sessions.SaveLocation(ctx, scope.SessionID, state); err != nil {
		s.logger.ErrorContext(ctx, "failed to record manual entry fallback",
			slog.String("session_id", scope.SessionID),
			slog.String("error", err.Error()),
		)
	}

	return state
}

func (s *LocationService) currentPermission(ctx context.Context, scope domain.Scope) domain.PermissionStatus {
	state, err := s.sessions.GetLocation(ctx, scope.SessionID)
	if err != nil {
		return domain.PermissionUnknown
	}
	return state.Permission
}

func (s *LocationService) gateFor(sessionID string) *lookupGate {
	s.mu.Lock()
	defer s.mu.Unlock()
	gate, ok := s.gates[sessionID]
	if !ok {
		gate = &lookupGate{}
		s.gates[sessionID] = gate
	}
	return gate
}
