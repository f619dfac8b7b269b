package cohort

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TopicCompletion is the single per-(user, topic) progress row. It is created
// when the student starts the topic and becomes terminal once CompletedAt is
// set: a completed topic is never uncompleted and its recorded progress is
// frozen at 100.
type TopicCompletion struct {
	gorm.Model
	UserID               uint           `json:"user_id" gorm:"not null;uniqueIndex:idx_topic_completion_user_topic"`
	TopicID              uint           `json:"topic_id" gorm:"not null;uniqueIndex:idx_topic_completion_user_topic"`
	StartedAt            time.Time      `json:"started_at"`
	CompletedAt          *time.Time     `json:"completed_at"`
	TimeSpentSeconds     int            `json:"time_spent_seconds" gorm:"default:0"`
	LastPositionSeconds  int            `json:"last_position_seconds" gorm:"default:0"`
	CompletionPercentage float64        `json:"completion_percentage" gorm:"default:0"` // scrubbing progress before completion
	CompletionData       datatypes.JSON `json:"completion_data"`
	CoinsAwarded         int            `json:"coins_awarded" gorm:"default:0"`
}

// LessonBlockCompletion records one attempt at an evaluable lesson block.
// Multiple attempts are kept; "latest" and "best" are derived by queries,
// never stored separately.
type LessonBlockCompletion struct {
	gorm.Model
	UserID          uint           `json:"user_id" gorm:"index;not null;uniqueIndex:idx_block_completion_attempt,priority:1"`
	LessonID        uint           `json:"lesson_id" gorm:"index;not null"`
	BlockID         uint           `json:"block_id" gorm:"not null;uniqueIndex:idx_block_completion_attempt,priority:2"`
	AttemptNumber   int            `json:"attempt_number" gorm:"default:1;uniqueIndex:idx_block_completion_attempt,priority:3"`
	IsCompleted     bool           `json:"is_completed" gorm:"default:false"`
	Passed          bool           `json:"passed" gorm:"default:false"`
	ScorePercentage float64        `json:"score_percentage" gorm:"default:0"`
	CoinsAwarded    int            `json:"coins_awarded" gorm:"default:0"`
	CompletionData  datatypes.JSON `json:"completion_data"`
}

// AssignmentSubmission is a student's submission for an ASSIGNMENT block,
// waiting on admin review
type AssignmentSubmission struct {
	gorm.Model
	UserID          uint       `json:"user_id" gorm:"index;not null"`
	BlockID         uint       `json:"block_id" gorm:"index;not null"`
	LessonID        uint       `json:"lesson_id" gorm:"index;not null"`
	Content         string     `json:"content" gorm:"type:text"`
	AttachmentURL   string     `json:"attachment_url"`
	Status          string     `json:"status" gorm:"default:'PENDING'"` // PENDING, APPROVED, REJECTED
	Score           int        `json:"score" gorm:"default:0"`
	ReviewedAt      *time.Time `json:"reviewed_at"`
	ReviewedBy      *uint      `json:"reviewed_by"`
	RejectionReason string     `json:"rejection_reason"`
	IsDeleted       bool       `gorm:"default:false"`
}

// LiveSession is an admin-scheduled live class attached to a LIVE block
type LiveSession struct {
	gorm.Model
	BlockID            uint       `json:"block_id" gorm:"index;not null"`
	Title              string     `json:"title"`
	Status             string     `json:"status" gorm:"default:'SCHEDULED'"` // SCHEDULED, LIVE, ENDED
	ScheduledAt        time.Time  `json:"scheduled_at"`
	StartedAt          *time.Time `json:"started_at"`
	EndedAt            *time.Time `json:"ended_at"`
	MeetingRef         string     `json:"meeting_ref"` // reference at the external meeting provider
	MeetingJoinURL     string     `json:"meeting_join_url"`
	MinDurationSeconds int        `json:"min_duration_seconds" gorm:"default:600"` // attendance threshold
	IsDeleted          bool       `gorm:"default:false"`
}

// LiveAttendance records a student's presence in a live session
type LiveAttendance struct {
	gorm.Model
	UserID          uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_live_attendance_user_session"`
	LiveSessionID   uint       `json:"live_session_id" gorm:"not null;uniqueIndex:idx_live_attendance_user_session"`
	JoinedAt        time.Time  `json:"joined_at"`
	LeftAt          *time.Time `json:"left_at"`
	DurationSeconds int        `json:"duration_seconds" gorm:"default:0"`
	Counted         bool       `json:"counted" gorm:"default:false"` // duration met the threshold
	CoinsAwarded    int        `json:"coins_awarded" gorm:"default:0"`
}
