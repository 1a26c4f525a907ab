package mentor

import (
	"github.com/coution-app/be-kb-platform/config"
)

const selectColumns = "id, telegram, full_name, chat_id, direction, is_admin, password_hash"

// GetByID fetches a mentor from the auth store. Returns sql.ErrNoRows when
// the mentor no longer exists.
func GetByID(id int64) (*Mentor, error) {
	var m Mentor
	err := config.AuthDB.Get(&m, "SELECT "+selectColumns+" FROM mentors WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByTelegram fetches a mentor by normalized @handle.
func GetByTelegram(telegram string) (*Mentor, error) {
	var m Mentor
	err := config.AuthDB.Get(&m, "SELECT "+selectColumns+" FROM mentors WHERE telegram = $1", telegram)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
