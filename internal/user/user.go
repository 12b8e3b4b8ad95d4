package user

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleRider  Role = "RIDER"
	RoleDriver Role = "DRIVER"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	Name         string    `json:"name"`
	Email        string    `gorm:"uniqueIndex" json:"email"`
	Phone        string    `json:"phone"`
	Role         Role      `gorm:"not null;default:RIDER" json:"role"`
	CustomerCode string    `gorm:"uniqueIndex" json:"customer_code"` // provider-assigned
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
