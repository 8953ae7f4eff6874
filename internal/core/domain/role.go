package domain

// Role is the kind of actor signed in. At most one role is active at a time.
type Role int

const (
	RoleNone Role = iota
	RoleAdmin
	RoleStaff
	RolePatron
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleStaff:
		return "staff"
	case RolePatron:
		return "patron"
	default:
		return "none"
	}
}
