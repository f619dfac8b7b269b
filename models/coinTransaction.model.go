package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CoinSource identifies the kind of event that produced a coin transaction
type CoinSource string

const (
	CoinSourceTopicCompletion       CoinSource = "topic_completion"
	CoinSourceLessonBlockCompletion CoinSource = "lesson_block_completion"
	CoinSourceQuizAttempt           CoinSource = "quiz_attempt"
	CoinSourceAssignmentApproval    CoinSource = "assignment_approval"
	CoinSourceLiveAttendance        CoinSource = "live_attendance"
	CoinSourceAdminAdjustment       CoinSource = "admin_adjustment"
)

// CoinTransaction is an append-only ledger row. Rows are never updated or
// deleted; corrections are recorded as new rows with the opposite sign.
// The (user_id, source, source_id) unique index is the idempotency key for
// rewards: at most one positive transaction may exist per key, so concurrent
// duplicate awards race safely at the storage layer.
type CoinTransaction struct {
	gorm.Model
	UserID   uint           `gorm:"not null;index;uniqueIndex:idx_coin_reward_key" json:"user_id"`
	Amount   int            `gorm:"not null" json:"amount"`
	Source   CoinSource     `gorm:"type:varchar(50);not null;uniqueIndex:idx_coin_reward_key" json:"source"`
	SourceID uint           `gorm:"not null;uniqueIndex:idx_coin_reward_key" json:"source_id"`
	Reason   string         `gorm:"type:text" json:"reason"`
	Metadata datatypes.JSON `json:"metadata"`
}
