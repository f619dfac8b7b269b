package cohort

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuestionType defines how a quiz question is graded
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTypeTrueFalse      QuestionType = "TRUE_FALSE"
	QuestionTypeFreeText       QuestionType = "FREE_TEXT"
)

// Quiz can stand alone in a week or be embedded in a lesson via a QUIZ block
type Quiz struct {
	gorm.Model
	WeekID           uint    `json:"week_id" gorm:"index;not null"`
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	MaxAttempts      int     `json:"max_attempts" gorm:"default:3"`
	PassingScore     float64 `json:"passing_score" gorm:"default:70"`     // percentage required to pass
	TimeLimitSeconds int     `json:"time_limit_seconds" gorm:"default:0"` // 0 = no limit
	IsRandomized     bool    `json:"is_randomized" gorm:"default:false"`
	CoinReward       int     `json:"coin_reward" gorm:"default:25"`
	IsPublished      bool    `json:"is_published" gorm:"default:false"`
	IsDeleted        bool    `gorm:"default:false"`
}

// QuizQuestion holds one question with its options and answer key.
// Options and CorrectAnswers are arrays of option ids (or "true"/"false"
// for TRUE_FALSE questions). CorrectAnswers is never serialized to students.
type QuizQuestion struct {
	gorm.Model
	QuizID         uint           `json:"quiz_id" gorm:"index;not null"`
	QuestionType   QuestionType   `json:"question_type" gorm:"type:varchar(20);default:'MULTIPLE_CHOICE'"`
	QuestionText   string         `json:"question_text" gorm:"type:text"`
	Options        datatypes.JSON `json:"options"` // [{"id":"a","text":"..."}]
	CorrectAnswers datatypes.JSON `json:"-"`       // ["a","c"]
	Points         int            `json:"points" gorm:"default:1"`
	OrderIndex     int            `json:"order_index" gorm:"default:0"`
	IsDeleted      bool           `gorm:"default:false"`
}

// QuizAttempt is one student run through a quiz. An attempt stays open until
// submitted or expired; grading happens exactly once per attempt.
type QuizAttempt struct {
	gorm.Model
	UserID          uint           `json:"user_id" gorm:"index;not null"`
	QuizID          uint           `json:"quiz_id" gorm:"index;not null"`
	AttemptNumber   int            `json:"attempt_number" gorm:"default:1"`
	StartedAt       time.Time      `json:"started_at"`
	ExpiresAt       *time.Time     `json:"expires_at"` // nil when the quiz has no time limit
	CompletedAt     *time.Time     `json:"completed_at"`
	Score           float64        `json:"score" gorm:"default:0"`
	Percentage      float64        `json:"percentage" gorm:"default:0"`
	Passed          bool           `json:"passed" gorm:"default:false"`
	Answers         datatypes.JSON `json:"answers"`          // submitted answers as received
	QuestionResults datatypes.JSON `json:"question_results"` // per-question grading detail
	CoinsAwarded    int            `json:"coins_awarded" gorm:"default:0"`
	TimeTakenSecs   int            `json:"time_taken_seconds" gorm:"default:0"`
}
