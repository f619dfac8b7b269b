package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	ProfileImage        string    `gorm:"default:''"`
	Name                string    `gorm:"default:''"`
	Email               string    `gorm:"unique;not null"`
	Mobile              string    `gorm:"default:''"`
	Role                string    `gorm:"default:'STUDENT'"` // STUDENT, ADMIN
	Password            string    `gorm:"not null"`
	IsEmailVerified     bool      `gorm:"default:false"`
	LastLogin           time.Time `gorm:"default:NULL"`
	FailedLoginAttempts int       `gorm:"default:0"`
	IsBlocked           bool      `gorm:"default:false"`
	IsDeleted           bool      `gorm:"default:false"`
}
