package domain

// Role identifies which app area a signed-in account may use.
type Role string

const (
	RoleCustomer Role = "user"
	RoleGuide    Role = "guide"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleGuide, RoleAdmin:
		return true
	}
	return false
}

// User is the cached profile of the signed-in account.
type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Address  string `json:"address,omitempty"`
	Role     Role   `json:"role"`
	Status   string `json:"status,omitempty"`
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone,omitempty"`
}

// Registration is the payload for creating a customer account.
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone,omitempty"`
}
