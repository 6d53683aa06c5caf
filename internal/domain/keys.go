package domain

// Persistent store keys. Session and cart own disjoint key sets.
const (
	KeyToken          = "@auth_token"
	KeyUser           = "@user_data"
	KeyRole           = "@user_role"
	KeyLoginTimestamp = "@login_timestamp"
	KeyCart           = "@cart_data"
)

// SessionKeys lists every key removed by the session destroy path.
var SessionKeys = []string{KeyToken, KeyUser, KeyRole, KeyLoginTimestamp}
