package services

import (
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"time"

	"lms/models"
	cohortModels "lms/models/cohort"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SubmittedAnswer is one answer in a quiz submission
type SubmittedAnswer struct {
	QuestionID uint   `json:"question_id"`
	Answer     string `json:"answer"`
}

// QuestionResult is the per-question grading detail stored on the attempt
type QuestionResult struct {
	QuestionID    uint   `json:"question_id"`
	Submitted     string `json:"submitted"`
	Correct       bool   `json:"correct"`
	PointsAwarded int    `json:"points_awarded"`
	PendingReview bool   `json:"pending_review"` // free-text answers await manual grading
}

// QuestionView is a question as shown to the student: answer keys stripped
type QuestionView struct {
	ID           uint                      `json:"id"`
	QuestionType cohortModels.QuestionType `json:"question_type"`
	QuestionText string                    `json:"question_text"`
	Options      datatypes.JSON            `json:"options"`
	Points       int                       `json:"points"`
}

// QuizService grades submitted attempts against question definitions,
// independent of where the quiz is embedded (standalone week quiz or
// lesson-embedded block)
type QuizService struct {
	db      *gorm.DB
	now     func() time.Time
	ledger  *CoinLedger
	lessons *LessonService
	weeks   *WeekUnlockService
}

func NewQuizService(db *gorm.DB) *QuizService {
	return &QuizService{
		db:      db,
		now:     time.Now,
		ledger:  NewCoinLedger(db),
		lessons: NewLessonService(db),
		weeks:   NewWeekUnlockService(db),
	}
}

func (s *QuizService) findQuiz(quizID uint) (*cohortModels.Quiz, error) {
	var quiz cohortModels.Quiz
	if err := s.db.Where("id = ? AND is_deleted = ? AND is_published = ?", quizID, false, true).First(&quiz).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

// StartQuizAttempt opens a new attempt, or returns the currently open one.
// Fails with ErrMaxAttemptsReached once the attempt cap is hit. When the quiz
// carries a time limit the attempt gets a server-side expiry.
func (s *QuizService) StartQuizAttempt(userID, quizID uint) (*cohortModels.QuizAttempt, error) {
	quiz, err := s.findQuiz(quizID)
	if err != nil {
		return nil, err
	}

	unlocked, err := s.weeks.IsWeekUnlocked(userID, quiz.WeekID)
	if err != nil {
		return nil, err
	}
	if !unlocked {
		return nil, ErrWeekLocked
	}

	// One attempt may be open at a time; a still-open attempt is returned
	// as-is so a retried start is a no-op. An open but expired attempt is
	// finalized first.
	var open cohortModels.QuizAttempt
	err = s.db.Where("user_id = ? AND quiz_id = ? AND completed_at IS NULL", userID, quizID).First(&open).Error
	if err == nil {
		if open.ExpiresAt != nil && s.now().After(*open.ExpiresAt) {
			if _, err := s.finalizeAttempt(&open, quiz, nil); err != nil {
				return nil, err
			}
		} else {
			return &open, nil
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var attemptCount int64
	if err := s.db.Model(&cohortModels.QuizAttempt{}).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Count(&attemptCount).Error; err != nil {
		return nil, err
	}
	if int(attemptCount) >= quiz.MaxAttempts {
		return nil, ErrMaxAttemptsReached
	}

	attempt := cohortModels.QuizAttempt{
		UserID:        userID,
		QuizID:        quizID,
		AttemptNumber: int(attemptCount) + 1,
		StartedAt:     s.now(),
	}
	if quiz.TimeLimitSeconds > 0 {
		expires := attempt.StartedAt.Add(time.Duration(quiz.TimeLimitSeconds) * time.Second)
		attempt.ExpiresAt = &expires
	}
	if err := s.db.Create(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

// GetQuestionsForAttempt returns the quiz questions with answer keys
// stripped. Randomized quizzes shuffle per attempt, seeded by the attempt id
// so the order is stable across reloads of the same attempt.
func (s *QuizService) GetQuestionsForAttempt(attempt *cohortModels.QuizAttempt) ([]QuestionView, error) {
	quiz, err := s.findQuiz(attempt.QuizID)
	if err != nil {
		return nil, err
	}

	questions, err := s.questionsForQuiz(attempt.QuizID)
	if err != nil {
		return nil, err
	}

	views := make([]QuestionView, len(questions))
	for i, q := range questions {
		views[i] = QuestionView{
			ID:           q.ID,
			QuestionType: q.QuestionType,
			QuestionText: q.QuestionText,
			Options:      q.Options,
			Points:       q.Points,
		}
	}

	if quiz.IsRandomized {
		rng := rand.New(rand.NewSource(int64(attempt.ID)))
		rng.Shuffle(len(views), func(i, j int) {
			views[i], views[j] = views[j], views[i]
		})
	}
	return views, nil
}

func (s *QuizService) questionsForQuiz(quizID uint) ([]cohortModels.QuizQuestion, error) {
	var questions []cohortModels.QuizQuestion
	err := s.db.Where("quiz_id = ? AND is_deleted = ?", quizID, false).Order("order_index asc").Find(&questions).Error
	return questions, err
}

// SubmitQuizAttempt grades the attempt exactly once. A missing attempt fails
// with ErrAttemptNotFound, a graded one with ErrAlreadyCompleted. Expired
// attempts are still graded with whatever answers were received: expiry is
// server-authoritative, not just a client timer.
func (s *QuizService) SubmitQuizAttempt(userID, attemptID uint, answers []SubmittedAnswer) (*cohortModels.QuizAttempt, error) {
	var attempt cohortModels.QuizAttempt
	err := s.db.Where("id = ? AND user_id = ?", attemptID, userID).First(&attempt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, err
	}
	if attempt.CompletedAt != nil {
		return &attempt, ErrAlreadyCompleted
	}

	quiz, err := s.findQuiz(attempt.QuizID)
	if err != nil {
		return nil, err
	}
	return s.finalizeAttempt(&attempt, quiz, answers)
}

// finalizeAttempt grades and persists the attempt, pays the reward on a pass
// and records the embedded block completion, all in one transaction. Attempts
// are never re-graded.
func (s *QuizService) finalizeAttempt(attempt *cohortModels.QuizAttempt, quiz *cohortModels.Quiz, answers []SubmittedAnswer) (*cohortModels.QuizAttempt, error) {
	questions, err := s.questionsForQuiz(quiz.ID)
	if err != nil {
		return nil, err
	}

	score, totalPoints, results := gradeAnswers(questions, answers)
	percentage := float64(0)
	if totalPoints > 0 {
		percentage = score / float64(totalPoints) * 100
	}
	passed := percentage >= quiz.PassingScore

	now := s.now()
	answersJSON, _ := json.Marshal(answers)
	resultsJSON, _ := json.Marshal(results)

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		// Re-read inside the transaction so the client timer and the
		// server-side expiry sweep racing on the same attempt can both call
		// in safely; only the first one grades.
		var current cohortModels.QuizAttempt
		if err := tx.Where("id = ?", attempt.ID).First(&current).Error; err != nil {
			return err
		}
		if current.CompletedAt != nil {
			*attempt = current
			return ErrAlreadyCompleted
		}

		attempt.CompletedAt = &now
		attempt.Score = score
		attempt.Percentage = percentage
		attempt.Passed = passed
		attempt.Answers = answersJSON
		attempt.QuestionResults = resultsJSON
		attempt.TimeTakenSecs = int(now.Sub(attempt.StartedAt).Seconds())

		if passed {
			// Keyed on the quiz, not the attempt: re-passing on a retake
			// never pays twice
			awarded, err := s.ledger.Award(tx, attempt.UserID, quiz.CoinReward, models.CoinSourceQuizAttempt, quiz.ID, "Quiz passed: "+quiz.Title, nil)
			if err != nil {
				return err
			}
			attempt.CoinsAwarded = awarded
		}

		if err := tx.Save(attempt).Error; err != nil {
			return err
		}

		// Lesson-embedded quizzes also feed the owning lesson's progress
		block, err := s.embeddedBlock(tx, quiz.ID)
		if err != nil {
			return err
		}
		if block != nil {
			input := BlockCompletionInput{
				ScorePercentage: percentage,
				Passed:          passed,
				IsCompleted:     passed,
			}
			// The quiz reward already covers this completion; the block's
			// own coin reward does not apply on this path.
			if _, err := s.lessons.appendBlockAttemptNoReward(tx, attempt.UserID, block, input); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, ErrAlreadyCompleted) {
			return attempt, nil
		}
		return nil, txErr
	}

	// Cascade from the quiz's week (covers both standalone and embedded
	// placements)
	s.weeks.CascadeFrom(attempt.UserID, quiz.WeekID)

	return attempt, nil
}

// embeddedBlock finds the QUIZ lesson block pointing at this quiz, if any
func (s *QuizService) embeddedBlock(tx *gorm.DB, quizID uint) (*cohortModels.LessonBlock, error) {
	var blocks []cohortModels.LessonBlock
	err := tx.Where("block_type = ? AND is_deleted = ?", cohortModels.BlockTypeQuiz, false).Find(&blocks).Error
	if err != nil {
		return nil, err
	}
	for i := range blocks {
		payload, err := blocks[i].DecodePayload()
		if err != nil {
			continue
		}
		if qp, ok := payload.(*cohortModels.QuizPayload); ok && qp.QuizID == quizID {
			return &blocks[i], nil
		}
	}
	return nil, nil
}

// gradeAnswers compares submissions against the answer keys. Choice questions
// grade by set membership (the submitted option id must be one of the correct
// answers, supporting multi-correct questions). Free-text questions are never
// auto-graded: they score 0 and are flagged for manual review.
func gradeAnswers(questions []cohortModels.QuizQuestion, answers []SubmittedAnswer) (float64, int, []QuestionResult) {
	submitted := make(map[uint]string, len(answers))
	for _, a := range answers {
		submitted[a.QuestionID] = a.Answer
	}

	score := float64(0)
	totalPoints := 0
	results := make([]QuestionResult, 0, len(questions))

	for _, q := range questions {
		totalPoints += q.Points
		result := QuestionResult{QuestionID: q.ID, Submitted: submitted[q.ID]}

		switch q.QuestionType {
		case cohortModels.QuestionTypeFreeText:
			result.PendingReview = true
		default:
			var correct []string
			if len(q.CorrectAnswers) > 0 {
				if err := json.Unmarshal(q.CorrectAnswers, &correct); err != nil {
					log.Printf("Error decoding answer key for question %d: %v", q.ID, err)
				}
			}
			for _, c := range correct {
				if result.Submitted != "" && result.Submitted == c {
					result.Correct = true
					result.PointsAwarded = q.Points
					score += float64(q.Points)
					break
				}
			}
		}
		results = append(results, result)
	}
	return score, totalPoints, results
}

// ExpireOverdueAttempts force-submits every open attempt past its expiry.
// Called by the scheduler; grading an expired attempt with no received
// answers yields a zero score.
func (s *QuizService) ExpireOverdueAttempts() (int, error) {
	var overdue []cohortModels.QuizAttempt
	err := s.db.Where("completed_at IS NULL AND expires_at IS NOT NULL AND expires_at < ?", s.now()).Find(&overdue).Error
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range overdue {
		quiz, err := s.findQuiz(overdue[i].QuizID)
		if err != nil {
			log.Printf("Error loading quiz %d for expiry: %v", overdue[i].QuizID, err)
			continue
		}
		if _, err := s.finalizeAttempt(&overdue[i], quiz, nil); err != nil {
			log.Printf("Error expiring attempt %d: %v", overdue[i].ID, err)
			continue
		}
		expired++
	}
	return expired, nil
}

// GetAttempts lists a user's attempts on a quiz, newest first
func (s *QuizService) GetAttempts(userID, quizID uint) ([]cohortModels.QuizAttempt, error) {
	var attempts []cohortModels.QuizAttempt
	err := s.db.Where("user_id = ? AND quiz_id = ?", userID, quizID).Order("attempt_number desc").Find(&attempts).Error
	return attempts, err
}

// GetAttempt loads one attempt owned by the user
func (s *QuizService) GetAttempt(userID, attemptID uint) (*cohortModels.QuizAttempt, error) {
	var attempt cohortModels.QuizAttempt
	err := s.db.Where("id = ? AND user_id = ?", attemptID, userID).First(&attempt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}
