package session

// State is the authentication lifecycle state of the device.
type State int

const (
	StateUninitialized State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "uninitialized"
	}
}

// AppStatus mirrors the host application's visibility.
type AppStatus string

const (
	AppActive     AppStatus = "active"
	AppInactive   AppStatus = "inactive"
	AppBackground AppStatus = "background"
)
