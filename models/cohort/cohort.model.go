package cohort

import (
	"time"

	"gorm.io/gorm"
)

// Cohort represents one run of the program that students enroll into
type Cohort struct {
	gorm.Model
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Status       string     `json:"status" gorm:"default:'DRAFT'"` // DRAFT, ACTIVE, ARCHIVED
	StartDate    *time.Time `json:"start_date"`
	ThumbnailURL string     `json:"thumbnail_url"`
	IsPublished  bool       `json:"is_published" gorm:"default:false"`
	IsDeleted    bool       `gorm:"default:false"`
}

// Enrollment tracks a user's membership in a cohort with denormalized progress.
// Rows are never hard-deleted; withdrawal is a status transition.
type Enrollment struct {
	gorm.Model
	UserID               uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_enrollment_user_cohort"`
	CohortID             uint       `json:"cohort_id" gorm:"not null;uniqueIndex:idx_enrollment_user_cohort"`
	Status               string     `json:"status" gorm:"default:'ACTIVE'"` // ACTIVE, COMPLETED, WITHDRAWN
	CompletionPercentage float64    `json:"completion_percentage" gorm:"default:0"`
	CompletedAt          *time.Time `json:"completed_at"`
	WithdrawnAt          *time.Time `json:"withdrawn_at"`
}
