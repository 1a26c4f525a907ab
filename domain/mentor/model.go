package mentor

import "database/sql"

// Roles derived from the is_admin flag. The token carries the role, but
// admin-gated operations always re-check the live flag.
const (
	RoleAdmin   = "admin"
	RoleCurator = "curator"
)

// Mentor lives in the auth store (table mentors), owned by the dashboard.
type Mentor struct {
	ID           int64          `db:"id"`
	Telegram     string         `db:"telegram"`
	FullName     string         `db:"full_name"`
	ChatID       sql.NullString `db:"chat_id"`
	Direction    string         `db:"direction"`
	IsAdmin      bool           `db:"is_admin"`
	PasswordHash sql.NullString `db:"password_hash"`
}

// Role returns the role name derived from is_admin.
func (m *Mentor) Role() string {
	if m.IsAdmin {
		return RoleAdmin
	}
	return RoleCurator
}
