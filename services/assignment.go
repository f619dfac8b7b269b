package services

import (
	"errors"
	"time"

	"lms/models"
	cohortModels "lms/models/cohort"

	"gorm.io/gorm"
)

// AssignmentService handles student submissions for ASSIGNMENT blocks and
// the admin review that turns an approval into a completion fact plus reward
type AssignmentService struct {
	db      *gorm.DB
	now     func() time.Time
	ledger  *CoinLedger
	lessons *LessonService
	weeks   *WeekUnlockService
}

func NewAssignmentService(db *gorm.DB) *AssignmentService {
	return &AssignmentService{
		db:      db,
		now:     time.Now,
		ledger:  NewCoinLedger(db),
		lessons: NewLessonService(db),
		weeks:   NewWeekUnlockService(db),
	}
}

// Submit creates or refreshes the student's submission. Submissions stay
// editable while pending or rejected; an approved assignment is terminal.
func (s *AssignmentService) Submit(userID, blockID uint, content, attachmentURL string) (*cohortModels.AssignmentSubmission, error) {
	block, err := findBlock(s.db, blockID)
	if err != nil {
		return nil, err
	}
	if block.BlockType != cohortModels.BlockTypeAssignment {
		return nil, ErrInvalidStateTransition
	}

	weekID, err := weekIDForLesson(s.db, block.LessonID)
	if err != nil {
		return nil, err
	}
	unlocked, err := s.weeks.IsWeekUnlocked(userID, weekID)
	if err != nil {
		return nil, err
	}
	if !unlocked {
		return nil, ErrWeekLocked
	}

	var submission cohortModels.AssignmentSubmission
	err = s.db.Where("user_id = ? AND block_id = ? AND is_deleted = ?", userID, blockID, false).
		Order("created_at desc").First(&submission).Error
	switch {
	case err == nil && submission.Status == "APPROVED":
		return &submission, ErrAlreadyCompleted
	case err == nil:
		// Resubmission replaces the pending/rejected content and goes back
		// to the review queue
		submission.Content = content
		submission.AttachmentURL = attachmentURL
		submission.Status = "PENDING"
		submission.ReviewedAt = nil
		submission.ReviewedBy = nil
		submission.RejectionReason = ""
		if err := s.db.Save(&submission).Error; err != nil {
			return nil, err
		}
		return &submission, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		submission = cohortModels.AssignmentSubmission{
			UserID:        userID,
			BlockID:       blockID,
			LessonID:      block.LessonID,
			Content:       content,
			AttachmentURL: attachmentURL,
			Status:        "PENDING",
		}
		if err := s.db.Create(&submission).Error; err != nil {
			return nil, err
		}
		return &submission, nil
	default:
		return nil, err
	}
}

// Review approves or rejects a pending submission. Approval writes the block
// completion fact and the reward in one transaction, keyed on the block so a
// re-review after resubmission can never pay twice.
func (s *AssignmentService) Review(reviewerID, submissionID uint, approve bool, score int, rejectionReason string) (*cohortModels.AssignmentSubmission, error) {
	var submission cohortModels.AssignmentSubmission
	err := s.db.Where("id = ? AND is_deleted = ?", submissionID, false).First(&submission).Error
	if err != nil {
		return nil, err
	}
	if submission.Status != "PENDING" {
		return nil, ErrInvalidStateTransition
	}

	block, err := findBlock(s.db, submission.BlockID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		submission.ReviewedAt = &now
		submission.ReviewedBy = &reviewerID

		if !approve {
			submission.Status = "REJECTED"
			submission.RejectionReason = rejectionReason
			return tx.Save(&submission).Error
		}

		submission.Status = "APPROVED"
		submission.Score = score
		if err := tx.Save(&submission).Error; err != nil {
			return err
		}

		awarded, err := s.ledger.Award(tx, submission.UserID, block.CoinReward, models.CoinSourceAssignmentApproval, block.ID, "Assignment approved: "+block.Title, nil)
		if err != nil {
			return err
		}

		input := BlockCompletionInput{
			ScorePercentage: float64(score),
			Passed:          true,
			IsCompleted:     true,
		}
		completion, err := s.lessons.appendBlockAttemptNoReward(tx, submission.UserID, block, input)
		if err != nil {
			return err
		}
		completion.CoinsAwarded = awarded
		return tx.Save(completion).Error
	})
	if txErr != nil {
		return nil, txErr
	}

	if approve {
		weekID, err := weekIDForLesson(s.db, block.LessonID)
		if err == nil {
			s.weeks.CascadeFrom(submission.UserID, weekID)
		}
	}
	return &submission, nil
}

// PendingSubmissions lists the review queue, oldest first
func (s *AssignmentService) PendingSubmissions(limit int) ([]cohortModels.AssignmentSubmission, error) {
	var submissions []cohortModels.AssignmentSubmission
	q := s.db.Where("status = ? AND is_deleted = ?", "PENDING", false).Order("created_at asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&submissions).Error
	return submissions, err
}
