package account

import (
	"time"

	"shootops/internal/role"
)

type Account struct {
	ID          string
	Email       string
	DisplayName string
	Role        role.Role
	CreatedAt   time.Time
}
