package cohort

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BlockType tags the payload variant carried by a LessonBlock
type BlockType string

const (
	BlockTypeVideo      BlockType = "VIDEO"
	BlockTypeText       BlockType = "TEXT"
	BlockTypePhoto      BlockType = "PHOTO"
	BlockTypeQuiz       BlockType = "QUIZ"
	BlockTypeAssignment BlockType = "ASSIGNMENT"
	BlockTypeLive       BlockType = "LIVE"
)

// LessonBlock is an embedded unit inside a lesson. The payload is a tagged
// union: BlockType selects which typed payload the JSON column decodes into.
type LessonBlock struct {
	gorm.Model
	LessonID    uint           `json:"lesson_id" gorm:"index;not null"`
	BlockType   BlockType      `json:"block_type" gorm:"type:varchar(20);not null"`
	Title       string         `json:"title"`
	OrderIndex  int            `json:"order_index" gorm:"default:0"`
	CoinReward  int            `json:"coin_reward" gorm:"default:10"`
	Payload     datatypes.JSON `json:"payload"`
	IsPublished bool           `json:"is_published" gorm:"default:false"`
	IsDeleted   bool           `gorm:"default:false"`
}

// IsEvaluable reports whether the block counts as a completable unit in the
// owning lesson's progress (quiz, assignment and live blocks do; plain media
// blocks are informational only).
func (b *LessonBlock) IsEvaluable() bool {
	switch b.BlockType {
	case BlockTypeQuiz, BlockTypeAssignment, BlockTypeLive:
		return true
	}
	return false
}

// VideoPayload for VIDEO blocks
type VideoPayload struct {
	VideoURL        string `json:"video_url"`
	DurationSeconds int    `json:"duration_seconds"`
}

// TextPayload for TEXT blocks
type TextPayload struct {
	Body string `json:"body"`
}

// PhotoPayload for PHOTO blocks
type PhotoPayload struct {
	ImageURL string `json:"image_url"`
	Caption  string `json:"caption"`
}

// QuizPayload for QUIZ blocks, pointing at the embedded quiz row
type QuizPayload struct {
	QuizID uint `json:"quiz_id"`
}

// AssignmentPayload for ASSIGNMENT blocks
type AssignmentPayload struct {
	Instructions string `json:"instructions"`
	MaxScore     int    `json:"max_score"`
}

// LivePayload for LIVE blocks, pointing at the scheduled session row
type LivePayload struct {
	LiveSessionID uint `json:"live_session_id"`
}

// DecodePayload decodes the payload JSON into the typed variant selected by
// BlockType. Decoding happens once at the boundary; services work with the
// typed value.
func (b *LessonBlock) DecodePayload() (interface{}, error) {
	var target interface{}
	switch b.BlockType {
	case BlockTypeVideo:
		target = &VideoPayload{}
	case BlockTypeText:
		target = &TextPayload{}
	case BlockTypePhoto:
		target = &PhotoPayload{}
	case BlockTypeQuiz:
		target = &QuizPayload{}
	case BlockTypeAssignment:
		target = &AssignmentPayload{}
	case BlockTypeLive:
		target = &LivePayload{}
	default:
		return nil, fmt.Errorf("unknown block type %q", b.BlockType)
	}

	if len(b.Payload) > 0 {
		if err := json.Unmarshal(b.Payload, target); err != nil {
			return nil, fmt.Errorf("block %d payload: %w", b.ID, err)
		}
	}
	return target, nil
}
