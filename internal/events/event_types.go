package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSessionStarted   EventType = "session.started"
	EventSessionRenewed   EventType = "session.renewed"
	EventSessionDestroyed EventType = "session.destroyed"
	EventCartChanged      EventType = "cart.changed"
	EventCartCleared      EventType = "cart.cleared"
	EventCouponApplied    EventType = "coupon.applied"
	EventCouponCleared    EventType = "coupon.cleared"
)

// DestroyReason explains why a session ended.
type DestroyReason string

const (
	ReasonLogout       DestroyReason = "logout"
	ReasonExpired      DestroyReason = "expired"
	ReasonUnauthorized DestroyReason = "unauthorized"
	ReasonCorrupt      DestroyReason = "corrupt"
)

// Event is a state change published by the session, cart and coupon managers.
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// SessionStartedPayload payload.
type SessionStartedPayload struct {
	UserID    int64     `json:"user_id"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionDestroyedPayload payload.
type SessionDestroyedPayload struct {
	Reason DestroyReason `json:"reason"`
}

// CartChangedPayload payload.
type CartChangedPayload struct {
	Operation   string `json:"operation"`
	TourID      int64  `json:"tour_id"`
	TourCount   int    `json:"tour_count"`
	PersonCount int    `json:"person_count"`
}

// CouponAppliedPayload payload.
type CouponAppliedPayload struct {
	Code           string `json:"code"`
	DiscountAmount int64  `json:"discount_amount"`
}
