package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User - ссылка на владельца или получателя доступа.
// Email хранится в нижнем регистре, поиск без учёта регистра.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NormalizeEmail приводит адрес к каноническому виду
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
