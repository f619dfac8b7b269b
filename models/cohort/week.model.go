package cohort

import (
	"time"

	"gorm.io/gorm"
)

// Week is one gated step of a cohort. Unlock rule columns gate access to the
// week for each student; they are read by the unlock engine, never written.
type Week struct {
	gorm.Model
	CohortID    uint   `json:"cohort_id" gorm:"index;not null"`
	WeekNumber  int    `json:"week_number" gorm:"not null"` // 1-based ordering within the cohort
	Title       string `json:"title"`
	Description string `json:"description"`
	IsPublished bool   `json:"is_published" gorm:"default:false"`
	IsDeleted   bool   `gorm:"default:false"`

	// Unlock rules
	Sequential  bool       `json:"sequential" gorm:"default:true"`   // previous week must be unlocked first
	MinProgress *float64   `json:"min_progress"`                     // required completion % of previous week (nil = config default)
	MinCoins    int        `json:"min_coins" gorm:"default:0"`       // required coin balance
	DeadlineAt  *time.Time `json:"deadline_at"`                      // informational, surfaced as a warning
}

// UserProgress is the per-(user, week) unlock state. IsUnlocked is monotonic:
// the engine flips it to true exactly once and never back. Recomputation only
// ever touches CompletionPercentage.
type UserProgress struct {
	gorm.Model
	UserID               uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_user_progress_user_week"`
	WeekID               uint       `json:"week_id" gorm:"not null;uniqueIndex:idx_user_progress_user_week"`
	IsUnlocked           bool       `json:"is_unlocked" gorm:"default:false"`
	UnlockedAt           *time.Time `json:"unlocked_at"`
	CompletionPercentage float64    `json:"completion_percentage" gorm:"default:0"`
}
