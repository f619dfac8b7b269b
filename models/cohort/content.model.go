package cohort

import "gorm.io/gorm"

// Module represents a section within a week
type Module struct {
	gorm.Model
	WeekID      uint   `json:"week_id" gorm:"index;not null"`
	Title       string `json:"title"`
	Description string `json:"description"`
	OrderIndex  int    `json:"order_index" gorm:"default:0"` // Module order in week
	IsDeleted   bool   `gorm:"default:false"`
}

// Lesson represents a lesson within a module
type Lesson struct {
	gorm.Model
	ModuleID    uint   `json:"module_id" gorm:"index;not null"`
	Title       string `json:"title"`
	Description string `json:"description"`
	OrderIndex  int    `json:"order_index" gorm:"default:0"`
	// Minimum total time across the lesson's topics before the lesson can
	// count as completable. Distinct from each topic's own minimum.
	MinTimeRequiredSeconds int  `json:"min_time_required_seconds" gorm:"default:0"`
	IsPublished            bool `json:"is_published" gorm:"default:false"`
	IsDeleted              bool `gorm:"default:false"`
}

// Topic is the atomic unit of lesson content (a video or reading)
type Topic struct {
	gorm.Model
	LessonID    uint   `json:"lesson_id" gorm:"index;not null"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ContentType string `json:"content_type" gorm:"default:'VIDEO'"` // VIDEO, TEXT, PHOTO
	TextContent string `json:"text_content" gorm:"type:text"`
	VideoURL    string `json:"video_url"`
	ImageURL    string `json:"image_url"`
	OrderIndex  int    `json:"order_index" gorm:"default:0"`
	// Minimum watch/read time before the topic may be completed.
	// 0 means the config default applies.
	MinTimeRequiredSeconds int  `json:"min_time_required_seconds" gorm:"default:0"`
	CoinReward             int  `json:"coin_reward" gorm:"default:10"`
	IsPublished            bool `json:"is_published" gorm:"default:false"`
	IsDeleted              bool `gorm:"default:false"`
}
