package entity

type UserRole string

const (
	RoleClient   UserRole = "client"
	RoleEmployee UserRole = "employee"
	RoleOwner    UserRole = "owner"
	RoleAdmin    UserRole = "admin"
)

// IsStaff reports whether the role may operate gates and manage any user's
// bookings. Owners are not staff; their reach stops at the lots they own.
func (r UserRole) IsStaff() bool {
	return r == RoleEmployee || r == RoleAdmin
}

type User struct {
	Base
	Name     string   `db:"name"`
	Email    string   `db:"email"`
	Phone    *string  `db:"phone"`
	Role     UserRole `db:"role"`
	IsActive bool     `db:"is_active"`
}
