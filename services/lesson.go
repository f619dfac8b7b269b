package services

import (
	"time"

	"lms/models"
	cohortModels "lms/models/cohort"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LessonProgress is the aggregated view of one lesson for one user
type LessonProgress struct {
	LessonID               uint    `json:"lesson_id"`
	CompletedUnits         int     `json:"completed"`
	TotalUnits             int     `json:"total"`
	Percentage             float64 `json:"percentage"`
	TimeSpentSeconds       int     `json:"time_spent"`
	MinTimeRequiredSeconds int     `json:"min_time_required"`
	TimeRequirementMet     bool    `json:"time_requirement_met"`
	CanComplete            bool    `json:"can_complete"`
}

// LessonService aggregates topic and block completions into a lesson
// percentage. Calculation is pure over stored facts: re-running it with
// unchanged inputs always yields the same numbers.
type LessonService struct {
	db     *gorm.DB
	now    func() time.Time
	ledger *CoinLedger
}

func NewLessonService(db *gorm.DB) *LessonService {
	return &LessonService{db: db, now: time.Now, ledger: NewCoinLedger(db)}
}

// CalculateLessonProgress blends two sources: the topic completion ratio and,
// when the lesson carries evaluable blocks (quiz/assignment/live), those
// blocks as additional completable units. A lesson with zero topics is fully
// determined by its blocks.
func (s *LessonService) CalculateLessonProgress(userID, lessonID uint) (*LessonProgress, error) {
	lesson, err := findLesson(s.db, lessonID)
	if err != nil {
		return nil, err
	}

	topics, err := publishedTopics(s.db, lessonID)
	if err != nil {
		return nil, err
	}
	blocks, err := publishedBlocks(s.db, lessonID)
	if err != nil {
		return nil, err
	}

	progress := &LessonProgress{
		LessonID:               lessonID,
		MinTimeRequiredSeconds: lesson.MinTimeRequiredSeconds,
	}

	// Topic units
	topicIDs := make([]uint, len(topics))
	for i, t := range topics {
		topicIDs[i] = t.ID
	}
	progress.TotalUnits += len(topics)
	if len(topicIDs) > 0 {
		var completions []cohortModels.TopicCompletion
		if err := s.db.Where("user_id = ? AND topic_id IN ?", userID, topicIDs).Find(&completions).Error; err != nil {
			return nil, err
		}
		for _, c := range completions {
			progress.TimeSpentSeconds += c.TimeSpentSeconds
			if c.CompletedAt != nil {
				progress.CompletedUnits++
			}
		}
	}

	// Evaluable block units
	blocksDone := 0
	blocksTotal := 0
	for _, b := range blocks {
		if !b.IsEvaluable() {
			continue
		}
		blocksTotal++
		done, err := s.isBlockCompleted(userID, b.ID)
		if err != nil {
			return nil, err
		}
		if done {
			blocksDone++
		}
	}
	progress.TotalUnits += blocksTotal
	progress.CompletedUnits += blocksDone

	if progress.TotalUnits > 0 {
		progress.Percentage = float64(progress.CompletedUnits) / float64(progress.TotalUnits) * 100
	} else {
		// An empty published lesson cannot hold back the module average
		progress.Percentage = 100
	}

	progress.TimeRequirementMet = progress.TimeSpentSeconds >= lesson.MinTimeRequiredSeconds
	progress.CanComplete = progress.TimeRequirementMet && blocksDone == blocksTotal

	return progress, nil
}

// isBlockCompleted checks whether any attempt on the block is completed
func (s *LessonService) isBlockCompleted(userID, blockID uint) (bool, error) {
	var count int64
	err := s.db.Model(&cohortModels.LessonBlockCompletion{}).
		Where("user_id = ? AND block_id = ? AND is_completed = ?", userID, blockID, true).
		Count(&count).Error
	return count > 0, err
}

// BestBlockScore returns the highest score across a user's attempts on a
// block. Derived, never stored.
func (s *LessonService) BestBlockScore(userID, blockID uint) (float64, error) {
	var best float64
	err := s.db.Model(&cohortModels.LessonBlockCompletion{}).
		Where("user_id = ? AND block_id = ?", userID, blockID).
		Select("COALESCE(MAX(score_percentage), 0)").
		Scan(&best).Error
	return best, err
}

// BlockCompletionInput carries a completion event for a lesson block
type BlockCompletionInput struct {
	ScorePercentage float64
	Passed          bool
	IsCompleted     bool
	CompletionData  datatypes.JSON
}

// CompleteLessonBlock appends a new attempt for (user, block) with the next
// attempt number and, on the first completed attempt, awards the block's coin
// reward keyed on the block id. Attempt rows are append-only; retakes get a
// fresh attempt number.
func (s *LessonService) CompleteLessonBlock(userID, blockID uint, input BlockCompletionInput) (*cohortModels.LessonBlockCompletion, error) {
	block, err := findBlock(s.db, blockID)
	if err != nil {
		return nil, err
	}

	var completion *cohortModels.LessonBlockCompletion
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		completion, err = s.appendBlockAttempt(tx, userID, block, input, true)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}

	if input.IsCompleted {
		weekID, err := weekIDForLesson(s.db, block.LessonID)
		if err == nil {
			NewWeekUnlockService(s.db).CascadeFrom(userID, weekID)
		}
	}
	return completion, nil
}

// appendBlockAttemptNoReward records an attempt whose reward is handled by
// the caller's own coin source (quiz pass, assignment approval, live
// attendance), so the block's generic reward must not stack on top
func (s *LessonService) appendBlockAttemptNoReward(tx *gorm.DB, userID uint, block *cohortModels.LessonBlock, input BlockCompletionInput) (*cohortModels.LessonBlockCompletion, error) {
	return s.appendBlockAttempt(tx, userID, block, input, false)
}

// appendBlockAttempt writes the attempt row and reward inside the caller's
// transaction. Shared by the direct block-completion endpoint, the quiz
// engine, assignment review and live attendance.
func (s *LessonService) appendBlockAttempt(tx *gorm.DB, userID uint, block *cohortModels.LessonBlock, input BlockCompletionInput, awardCoins bool) (*cohortModels.LessonBlockCompletion, error) {
	var attemptCount int64
	if err := tx.Model(&cohortModels.LessonBlockCompletion{}).
		Where("user_id = ? AND block_id = ?", userID, block.ID).
		Count(&attemptCount).Error; err != nil {
		return nil, err
	}

	completion := cohortModels.LessonBlockCompletion{
		UserID:          userID,
		LessonID:        block.LessonID,
		BlockID:         block.ID,
		AttemptNumber:   int(attemptCount) + 1,
		IsCompleted:     input.IsCompleted,
		Passed:          input.Passed,
		ScorePercentage: input.ScorePercentage,
		CompletionData:  input.CompletionData,
	}

	if input.IsCompleted && awardCoins {
		awarded, err := s.ledger.Award(tx, userID, block.CoinReward, models.CoinSourceLessonBlockCompletion, block.ID, "Block completed: "+block.Title, nil)
		if err != nil {
			return nil, err
		}
		completion.CoinsAwarded = awarded
	}

	if err := tx.Create(&completion).Error; err != nil {
		if isDuplicateKey(err) {
			// Concurrent attempt with the same number; re-read it and report
			// success to the retrying caller
			err = tx.Where("user_id = ? AND block_id = ? AND attempt_number = ?", userID, block.ID, completion.AttemptNumber).First(&completion).Error
		}
		if err != nil {
			return nil, err
		}
	}
	return &completion, nil
}
