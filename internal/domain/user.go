package domain

import "time"

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID       int64  `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
	Email    string `json:"email" db:"email"`
	// Password holds the bcrypt hash; it is never serialized.
	Password  string     `json:"-" db:"password"`
	Image     string     `json:"image" db:"image"`
	Role      string     `json:"role" db:"role"`
	ResetOTP  string     `json:"-" db:"reset_otp"`
	ExpiresAt *time.Time `json:"-" db:"expires_otp"`
	// TaskIDs mirrors ownership; the tasks table stays authoritative for
	// existence, so an id here may no longer resolve.
	TaskIDs   []string  `json:"tasks" db:"task_ids"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Principal is the authenticated caller, decoded from a verified session
// token. It is passed by value into every core operation.
type Principal struct {
	ID   int64
	Role string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
