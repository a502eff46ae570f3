package domain

// Role is the capability level of a signed-in user. The edit-mode gate
// treats anything that is not RoleAdmin as staff, including the empty
// value, so an unresolved role fails closed.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// User is the subset of the users row the floor plan needs for
// attribution and the role gate.
type User struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"full_name"`
	Role     Role   `db:"role" json:"role"`
}
