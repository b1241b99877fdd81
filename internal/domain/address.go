package domain

import "time"

// AddressType distinguishes home and work addresses.
type AddressType string

const (
	AddressHome AddressType = "home"
	AddressWork AddressType = "work"
)

// Address is a saved delivery address. Guest addresses live in the session
// store and have an empty UserID; authenticated addresses are rows in
// PostgreSQL.
type Address struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id,omitempty"`
	FullName    string      `json:"full_name"`
	Mobile      string      `json:"mobile"`
	Pincode     string      `json:"pincode"`
	AddressLine string      `json:"address_line"`
	City        string      `json:"city"`
	State       string      `json:"state"`
	Landmark    string      `json:"landmark,omitempty"`
	AddressType AddressType `json:"address_type"`
	IsDefault   bool        `json:"is_default"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Scope identifies the owner of per-request state. SessionID is always
// present; UserID is set only for authenticated requests.
type Scope struct {
	SessionID string
	UserID    string
}

// Authenticated reports whether the scope belongs to a signed-in user.
func (s Scope) Authenticated() bool {
	return s.UserID != ""
}

// Owner returns the identifier address rows are keyed by: the user ID when
// authenticated, the session ID otherwise.
func (s Scope) Owner() string {
	if s.UserID != "" {
		return s.UserID
	}
	return s.SessionID
}
