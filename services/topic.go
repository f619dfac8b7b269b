package services

import (
	"errors"
	"time"

	"lms/config"
	"lms/models"
	cohortModels "lms/models/cohort"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TopicService owns the topic state machine: started -> (progress updates) ->
// completed. Completion is terminal and pays the topic's coin reward exactly
// once.
type TopicService struct {
	db     *gorm.DB
	now    func() time.Time
	ledger *CoinLedger
	weeks  *WeekUnlockService
}

func NewTopicService(db *gorm.DB) *TopicService {
	return &TopicService{
		db:     db,
		now:    time.Now,
		ledger: NewCoinLedger(db),
		weeks:  NewWeekUnlockService(db),
	}
}

// minSecondsFor returns the topic's own minimum watch time, falling back to
// the configured default when the content author left it unset
func minSecondsFor(topic *cohortModels.Topic) int {
	if topic.MinTimeRequiredSeconds > 0 {
		return topic.MinTimeRequiredSeconds
	}
	if config.AppConfig != nil {
		return config.AppConfig.DefaultTopicMinSeconds
	}
	return 120
}

// checkTopicAccess verifies the topic's week is unlocked for the user
func (s *TopicService) checkTopicAccess(userID, topicID uint) error {
	weekID, err := weekIDForTopic(s.db, topicID)
	if err != nil {
		return err
	}
	unlocked, err := s.weeks.IsWeekUnlocked(userID, weekID)
	if err != nil {
		return err
	}
	if !unlocked {
		return ErrWeekLocked
	}
	return nil
}

// StartTopic returns the existing progress row for (user, topic) or creates
// one with StartedAt set. Find-or-create keyed on the unique index, so
// duplicate start calls land on the same row.
func (s *TopicService) StartTopic(userID, topicID uint) (*cohortModels.TopicCompletion, error) {
	if _, err := findTopic(s.db, topicID); err != nil {
		return nil, err
	}
	if err := s.checkTopicAccess(userID, topicID); err != nil {
		return nil, err
	}

	completion := cohortModels.TopicCompletion{UserID: userID, TopicID: topicID}
	err := s.db.Where("user_id = ? AND topic_id = ?", userID, topicID).
		Attrs(cohortModels.TopicCompletion{StartedAt: s.now()}).
		FirstOrCreate(&completion).Error
	if err != nil && isDuplicateKey(err) {
		// A concurrent starter won the race; read their row
		err = s.db.Where("user_id = ? AND topic_id = ?", userID, topicID).First(&completion).Error
	}
	if err != nil {
		return nil, err
	}
	return &completion, nil
}

// UpdateTopicProgress records watch progress. Stored time, position and
// percentage only ever increase, and a completed topic is frozen: updates
// after completion are no-ops returning the stored row.
func (s *TopicService) UpdateTopicProgress(userID, topicID uint, percentage float64, timeSpentSeconds, lastPositionSeconds int) (*cohortModels.TopicCompletion, error) {
	completion, err := s.StartTopic(userID, topicID)
	if err != nil {
		return nil, err
	}

	if completion.CompletedAt != nil {
		return completion, nil
	}

	if timeSpentSeconds > completion.TimeSpentSeconds {
		completion.TimeSpentSeconds = timeSpentSeconds
	}
	if lastPositionSeconds > completion.LastPositionSeconds {
		completion.LastPositionSeconds = lastPositionSeconds
	}
	if percentage > completion.CompletionPercentage {
		completion.CompletionPercentage = percentage
	}
	if completion.CompletionPercentage > 100 {
		completion.CompletionPercentage = 100
	}

	if err := s.db.Save(completion).Error; err != nil {
		return nil, err
	}
	return completion, nil
}

// IsEligibleForCompletion reports whether the accumulated watch time meets
// the topic's minimum
func (s *TopicService) IsEligibleForCompletion(userID, topicID uint) (bool, error) {
	remaining, err := s.GetTimeRemainingForEligibility(userID, topicID)
	if err != nil {
		return false, err
	}
	return remaining == 0, nil
}

// GetTimeRemainingForEligibility returns how many more seconds the student
// must spend before the topic can be completed
func (s *TopicService) GetTimeRemainingForEligibility(userID, topicID uint) (int, error) {
	topic, err := findTopic(s.db, topicID)
	if err != nil {
		return 0, err
	}
	var completion cohortModels.TopicCompletion
	spent := 0
	err = s.db.Where("user_id = ? AND topic_id = ?", userID, topicID).First(&completion).Error
	if err == nil {
		spent = completion.TimeSpentSeconds
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	remaining := minSecondsFor(topic) - spent
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// CompleteTopic marks the topic completed and pays its coin reward, both in
// one transaction. A second call returns the stored row with
// ErrAlreadyCompleted so callers can treat the retry as success. On first
// completion the upward recomputation cascade runs (lesson -> module ->
// week) and the next week's gate is re-evaluated.
func (s *TopicService) CompleteTopic(userID, topicID uint, completionData datatypes.JSON) (*cohortModels.TopicCompletion, error) {
	topic, err := findTopic(s.db, topicID)
	if err != nil {
		return nil, err
	}
	if err := s.checkTopicAccess(userID, topicID); err != nil {
		return nil, err
	}

	var completion cohortModels.TopicCompletion
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND topic_id = ?", userID, topicID).
			Attrs(cohortModels.TopicCompletion{StartedAt: s.now()}).
			FirstOrCreate(&completion).Error
		if err != nil {
			return err
		}

		if completion.CompletedAt != nil {
			return ErrAlreadyCompleted
		}

		if completion.TimeSpentSeconds < minSecondsFor(topic) {
			return ErrNotEligible
		}

		now := s.now()
		awarded, err := s.ledger.Award(tx, userID, topic.CoinReward, models.CoinSourceTopicCompletion, topic.ID, "Topic completed: "+topic.Title, nil)
		if err != nil {
			return err
		}

		completion.CompletedAt = &now
		completion.CompletionPercentage = 100
		completion.CompletionData = completionData
		completion.CoinsAwarded = awarded
		return tx.Save(&completion).Error
	})
	if txErr != nil {
		if errors.Is(txErr, ErrAlreadyCompleted) {
			return &completion, ErrAlreadyCompleted
		}
		return nil, txErr
	}

	// Cascade: recompute week progress from source rows and re-evaluate the
	// next week's gate. Runs outside the completion transaction; it is a
	// pure recomputation and safe to repeat.
	weekID, err := weekIDForTopic(s.db, topicID)
	if err == nil {
		s.weeks.CascadeFrom(userID, weekID)
	}

	return &completion, nil
}

// GetTopicProgress returns the stored row without mutating anything
func (s *TopicService) GetTopicProgress(userID, topicID uint) (*cohortModels.TopicCompletion, error) {
	var completion cohortModels.TopicCompletion
	if err := s.db.Where("user_id = ? AND topic_id = ?", userID, topicID).First(&completion).Error; err != nil {
		return nil, err
	}
	return &completion, nil
}
