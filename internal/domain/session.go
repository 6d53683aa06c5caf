package domain

import "time"

// DefaultSessionTTL is how long a sign-in stays valid on the device.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Session is the authenticated-identity window bounded by IssuedAt and a fixed-duration expiry.
// A zero IssuedAt means no expiry could be computed.
type Session struct {
	Token     string
	User      *User
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ValidAt reports whether the session can be used at now.
func (s Session) ValidAt(now time.Time) bool {
	if s.Token == "" {
		return false
	}
	if s.ExpiresAt.IsZero() {
		return true
	}
	return now.Before(s.ExpiresAt)
}

// ExpiryFor returns issuedAt + ttl, or the zero time when issuedAt is unknown.
func ExpiryFor(issuedAt time.Time, ttl time.Duration) time.Time {
	if issuedAt.IsZero() {
		return time.Time{}
	}
	return issuedAt.Add(ttl)
}
