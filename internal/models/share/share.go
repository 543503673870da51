package share

import (
	"time"

	"github.com/google/uuid"
)

// Share выдаёт пользователю доступ к чужой задаче.
// Пара (TaskID, GranteeID) уникальна, повторная выдача обновляет уровень доступа.
type Share struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	TaskID     uuid.UUID  `json:"task_id" db:"task_id"`
	GranteeID  uuid.UUID  `json:"grantee_id" db:"grantee_id"`
	Permission Permission `json:"permission" db:"permission"`
	GrantedAt  time.Time  `json:"granted_at" db:"granted_at"`
}

type Permission string

const PermissionView Permission = "view"
const PermissionEdit Permission = "edit"

func (p Permission) Valid() bool {
	return p == PermissionView || p == PermissionEdit
}

// AllowsEdit - view даёт только чтение, edit ещё и изменение
func (p Permission) AllowsEdit() bool {
	return p == PermissionEdit
}
