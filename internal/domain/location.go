package domain

import "time"

// LocationSource records where a session's current location came from.
type LocationSource string

const (
	SourceStored  LocationSource = "stored"  // previously cached for the session
	SourceProfile LocationSource = "profile" // authenticated profile row
	SourceIP      LocationSource = "ip"      // IP geolocation
	SourceGPS     LocationSource = "gps"     // device GPS fix, reverse geocoded
	SourceManual  LocationSource = "manual"  // user-entered pincode or city
	SourceDefault LocationSource = "default" // hardcoded fallback
)

// PermissionStatus tracks the device geolocation permission as last reported
// by the client.
type PermissionStatus string

const (
	PermissionUnknown     PermissionStatus = "unknown"
	PermissionGranted     PermissionStatus = "granted"
	PermissionDenied      PermissionStatus = "denied"
	PermissionUnavailable PermissionStatus = "unavailable"
)

// UserLocation is the resolved delivery location for a session.
type UserLocation struct {
	City      string   `json:"city"`
	State     string   `json:"state"`
	Country   string   `json:"country"`
	Pincode   string   `json:"pincode,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// DefaultLocation is adopted when every detection strategy fails.
// Resolution never surfaces an error to the caller.
func DefaultLocation() UserLocation {
	return UserLocation{
		City:    "Delhi",
		State:   "Delhi",
		Country: "India",
	}
}

// LocationState is the full per-session location record kept in the
// session store.
type LocationState struct {
	Location            UserLocation     `json:"location"`
	Source              LocationSource   `json:"source"`
	Permission          PermissionStatus `json:"permission"`
	ManualEntryRequired bool             `json:"manual_entry_required"`
	DetectedAt          time.Time        `json:"detected_at"`
}

// GPSFix is a device position report submitted by the client.
type GPSFix struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// MaxFixAge is the oldest GPS fix the service will reverse geocode.
// Older fixes are treated as stale and force manual entry.
const MaxFixAge = 5 * time.Minute

// PincodeResult is the outcome of a postal-code lookup. Lookups report
// failure through Success rather than an error so the transport layer can
// always render a response.
type PincodeResult struct {
	Success bool   `json:"success"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
	Error   string `json:"error,omitempty"`
}

// GeoPlace is a reverse-geocoded place. City is already collapsed through
// the fallback chain by the geocoder client.
type GeoPlace struct {
	City    string
	State   string
	Country string
	Pincode string
}

// Profile is the persisted location of an authenticated user.
type Profile struct {
	UserID    string    `json:"user_id"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Country   string    `json:"country"`
	Pincode   string    `json:"pincode,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
