package cohort

import (
	"time"

	"gorm.io/gorm"
)

// Certificate represents an issued certificate for cohort completion
type Certificate struct {
	gorm.Model
	UserID            uint      `json:"user_id" gorm:"index;not null"`
	CohortID          uint      `json:"cohort_id" gorm:"index;not null"`
	EnrollmentID      uint      `json:"enrollment_id" gorm:"index;not null"`
	CertificateNumber string    `json:"certificate_number" gorm:"unique"`
	IssuedAt          time.Time `json:"issued_at"`
	IsDeleted         bool      `gorm:"default:false"`
}
