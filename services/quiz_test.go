package services

import (
	"fmt"
	"testing"
	"time"

	"lms/models"
	cohortModels "lms/models/cohort"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func seedQuiz(t *testing.T, db *gorm.DB, weekID uint) *cohortModels.Quiz {
	t.Helper()

	quiz := cohortModels.Quiz{
		WeekID:       weekID,
		Title:        "Syntax check",
		MaxAttempts:  3,
		PassingScore: 70,
		CoinReward:   25,
		IsPublished:  true,
	}
	require.NoError(t, db.Create(&quiz).Error)

	q1 := cohortModels.QuizQuestion{
		QuizID:         quiz.ID,
		QuestionType:   cohortModels.QuestionTypeMultipleChoice,
		QuestionText:   "Which keyword declares a variable?",
		Options:        datatypes.JSON(`[{"id":"a","text":"var"},{"id":"b","text":"let"}]`),
		CorrectAnswers: datatypes.JSON(`["a"]`),
		Points:         1,
		OrderIndex:     1,
	}
	require.NoError(t, db.Create(&q1).Error)

	q2 := cohortModels.QuizQuestion{
		QuizID:         quiz.ID,
		QuestionType:   cohortModels.QuestionTypeTrueFalse,
		QuestionText:   "Slices are reference types.",
		Options:        datatypes.JSON(`[{"id":"true","text":"True"},{"id":"false","text":"False"}]`),
		CorrectAnswers: datatypes.JSON(`["true"]`),
		Points:         1,
		OrderIndex:     2,
	}
	require.NoError(t, db.Create(&q2).Error)

	return &quiz
}

func quizQuestions(t *testing.T, db *gorm.DB, quizID uint) []cohortModels.QuizQuestion {
	t.Helper()
	var questions []cohortModels.QuizQuestion
	require.NoError(t, db.Where("quiz_id = ?", quizID).Order("order_index asc").Find(&questions).Error)
	return questions
}

func TestStartQuizAttemptRequiresUnlockedWeek(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)
	quiz := seedQuiz(t, db, f.week2.ID)

	_, err := NewQuizService(db).StartQuizAttempt(f.user.ID, quiz.ID)
	assert.ErrorIs(t, err, ErrWeekLocked)
}

func TestStartQuizAttemptReturnsOpenAttempt(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)
	quiz := seedQuiz(t, db, f.week1.ID)

	quizzes := NewQuizService(db)

	first, err := quizzes.StartQuizAttempt(f.user.ID, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.AttemptNumber)

	second, err := quizzes.StartQuizAttempt(f.user.ID, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestPartialScoreFailsBelowPassingScore(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)
	quiz := seedQuiz(t, db, f.week1.ID)
	questions := quizQuestions(t, db, quiz.ID)

	quizzes := NewQuizService(db)
	attempt, err := quizzes.StartQuizAttempt(f.user.ID, quiz.ID)
	require.NoError(t, err)

	// One of two points: 50%, below the 70 passing score
	graded, err := quizzes.SubmitQuizAttempt(f.user.ID, attempt.ID, []SubmittedAnswer{
		{QuestionID: questions[0].ID, Answer: "a"},
		{QuestionID: questions[1].ID, Answer: "false"},
	})
	require.NoError(t, err)
	require.NotNil(t, graded.CompletedAt)
	assert.InDelta(t, 1, graded.Score, 0.001)
	assert.InDelta(t, 50, graded.Percentage, 0.001)
	assert.False(t, graded.Passed)
	assert.Equal(t, 0, graded.CoinsAwarded)
}

func TestPassingAttemptPaysRewardOnce(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)
	quiz := seedQuiz(t, db, f.week1.ID)
	questions := quizQuestions(t, db, quiz.ID)

	quizzes := NewQuizService(db)

	allCorrect := []SubmittedAnswer{
		{QuestionID: questions[0].ID, Answer: "a"},
		{QuestionID: questions[1].ID, Answer: "true"},
	}

	attempt, err := quizzes.StartQuizAttempt(f.user.ID, quiz.ID)
	require.NoError(t, err)
	graded, err := quizzes.SubmitQuizAttempt(f.user.ID, attempt.ID, allCorrect)
	require.NoError(t, err)
	assert.True(t, graded.Passed)
	assert.Equal(t, 25, graded.CoinsAwarded)

	// Passing again on a retake pays nothing more
	retake, err := quizzes.StartQuizAttempt(f.user.ID, quiz.ID)
	require.NoError(t, err)
	graded, err = quizzes.SubmitQuizAttempt(f.user.ID, retake.ID, allCorrect)
	require.NoError(t, err)
	assert.True(t, graded.Passed)
	assert.Equal(t, 0, graded.CoinsAwarded)

	balance, err := NewCoinLedger(db).GetBalance(f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, balance)
}

func TestSubmitGradedAttemptIsRefused(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)
	quiz := seedQuiz(t, db, f.week1.ID)

	quizzes := NewQuizService(db)
	attempt, err := quizzes.StartQuizAttempt(f.user.ID, quiz.ID)
	require.NoError(t, err)
	_, err = quizzes.SubmitQuizAttempt(f.user.ID, attempt.ID, nil)
	require.NoError(t, err)

	stored, err := quizzes.SubmitQuizAttempt(f.user.ID, attempt.ID, nil)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
	require.NotNil(t, stored)
	assert.NotNil(t, stored.CompletedAt)
}

func TestMaxAttemptsReached(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)
	quiz := seedQuiz(t, db, f.week1.ID)

	quizzes := NewQuizService(db)

	for i := 0; i < 3; i++ {
		attempt, err := quizzes.StartQuizAttempt(f.user.ID, quiz.ID)
		require.NoError(t, err)
		assert.Equal(t, i+1, attempt.AttemptNumber)
		_, err = quizzes.SubmitQuizAttempt(f.user.ID, attempt.ID, nil)
		require.NoError(t, err)
	}

	_, err := quizzes.StartQuizAttempt(f.user.ID, quiz.ID)
	assert.ErrorIs(t, err, ErrMaxAttemptsReached)
}

func TestFreeTextIsFlaggedForReview(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)
	quiz := seedQuiz(t, db, f.week1.ID)

	freeText := cohortModels.QuizQuestion{
		QuizID:       quiz.ID,
		QuestionType: cohortModels.QuestionTypeFreeText,
		QuestionText: "Explain goroutine scheduling.",
		Points:       2,
		OrderIndex:   3,
	}
	require.NoError(t, db.Create(&freeText).Error)
	questions := quizQuestions(t, db, quiz.ID)

	score, totalPoints, results := gradeAnswers(questions, []SubmittedAnswer{
		{QuestionID: questions[0].ID, Answer: "a"},
		{QuestionID: questions[1].ID, Answer: "true"},
		{QuestionID: freeText.ID, Answer: "The runtime multiplexes goroutines onto OS threads."},
	})
	assert.InDelta(t, 2, score, 0.001)
	assert.Equal(t, 4, totalPoints)

	require.Len(t, results, 3)
	last := results[2]
	assert.True(t, last.PendingReview)
	assert.False(t, last.Correct)
	assert.Equal(t, 0, last.PointsAwarded)
}

func TestRandomizedOrderIsStablePerAttempt(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)
	quiz := seedQuiz(t, db, f.week1.ID)
	quiz.IsRandomized = true
	require.NoError(t, db.Save(quiz).Error)

	quizzes := NewQuizService(db)
	attempt, err := quizzes.StartQuizAttempt(f.user.ID, quiz.ID)
	require.NoError(t, err)

	first, err := quizzes.GetQuestionsForAttempt(attempt)
	require.NoError(t, err)
	second, err := quizzes.GetQuestionsForAttempt(attempt)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExpireOverdueAttempts(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)
	quiz := seedQuiz(t, db, f.week1.ID)
	quiz.TimeLimitSeconds = 300
	require.NoError(t, db.Save(quiz).Error)

	quizzes := NewQuizService(db)
	attempt, err := quizzes.StartQuizAttempt(f.user.ID, quiz.ID)
	require.NoError(t, err)
	require.NotNil(t, attempt.ExpiresAt)

	// Nothing to expire yet
	expired, err := quizzes.ExpireOverdueAttempts()
	require.NoError(t, err)
	assert.Equal(t, 0, expired)

	// Ten minutes later the sweep finalizes the attempt at zero score
	quizzes.now = frozenClock(time.Now().Add(10 * time.Minute))
	expired, err = quizzes.ExpireOverdueAttempts()
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	stored, err := quizzes.GetAttempt(f.user.ID, attempt.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CompletedAt)
	assert.InDelta(t, 0, stored.Percentage, 0.001)
	assert.False(t, stored.Passed)
}

func TestEmbeddedQuizFeedsLessonProgress(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)
	quiz := seedQuiz(t, db, f.week1.ID)
	questions := quizQuestions(t, db, quiz.ID)

	block := cohortModels.LessonBlock{
		LessonID:    f.lesson.ID,
		BlockType:   cohortModels.BlockTypeQuiz,
		Title:       "Checkpoint quiz",
		CoinReward:  10,
		Payload:     datatypes.JSON(fmt.Sprintf(`{"quiz_id":%d}`, quiz.ID)),
		IsPublished: true,
	}
	require.NoError(t, db.Create(&block).Error)

	quizzes := NewQuizService(db)
	attempt, err := quizzes.StartQuizAttempt(f.user.ID, quiz.ID)
	require.NoError(t, err)
	_, err = quizzes.SubmitQuizAttempt(f.user.ID, attempt.ID, []SubmittedAnswer{
		{QuestionID: questions[0].ID, Answer: "a"},
		{QuestionID: questions[1].ID, Answer: "true"},
	})
	require.NoError(t, err)

	// The pass recorded a block completion without stacking the block reward
	var completion cohortModels.LessonBlockCompletion
	require.NoError(t, db.Where("user_id = ? AND block_id = ?", f.user.ID, block.ID).First(&completion).Error)
	assert.True(t, completion.IsCompleted)
	assert.Equal(t, 0, completion.CoinsAwarded)

	var rewardRows int64
	require.NoError(t, db.Model(&models.CoinTransaction{}).
		Where("user_id = ? AND source = ?", f.user.ID, models.CoinSourceLessonBlockCompletion).
		Count(&rewardRows).Error)
	assert.Equal(t, int64(0), rewardRows)

	progress, err := NewLessonService(db).CalculateLessonProgress(f.user.ID, f.lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, progress.TotalUnits) // two topics plus the quiz block
	assert.Equal(t, 1, progress.CompletedUnits)
}
