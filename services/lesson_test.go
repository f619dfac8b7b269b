package services

import (
	"testing"

	"lms/models"
	cohortModels "lms/models/cohort"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedAssignmentBlock(t *testing.T, db *gorm.DB, lessonID uint) *cohortModels.LessonBlock {
	t.Helper()
	block := cohortModels.LessonBlock{
		LessonID:    lessonID,
		BlockType:   cohortModels.BlockTypeAssignment,
		Title:       "Build a CLI",
		CoinReward:  15,
		IsPublished: true,
	}
	require.NoError(t, db.Create(&block).Error)
	return &block
}

func TestLessonProgressBlendsTopicsAndBlocks(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)
	seedAssignmentBlock(t, db, f.lesson.ID)

	lessons := NewLessonService(db)

	progress, err := lessons.CalculateLessonProgress(f.user.ID, f.lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, progress.TotalUnits)
	assert.Equal(t, 0, progress.CompletedUnits)
	assert.InDelta(t, 0, progress.Percentage, 0.001)

	completeTopic(t, db, f.user.ID, f.topicA.ID)
	progress, err = lessons.CalculateLessonProgress(f.user.ID, f.lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, progress.CompletedUnits)
	assert.InDelta(t, 100.0/3, progress.Percentage, 0.01)
	assert.False(t, progress.CanComplete)
}

func TestEmptyLessonCountsAsComplete(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)

	empty := cohortModels.Lesson{ModuleID: 9999, Title: "Placeholder", IsPublished: true}
	require.NoError(t, db.Create(&empty).Error)

	progress, err := NewLessonService(db).CalculateLessonProgress(f.user.ID, empty.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, progress.TotalUnits)
	assert.InDelta(t, 100, progress.Percentage, 0.001)
}

func TestCompleteLessonBlockPaysOnFirstCompletionOnly(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)
	block := seedAssignmentBlock(t, db, f.lesson.ID)

	lessons := NewLessonService(db)

	first, err := lessons.CompleteLessonBlock(f.user.ID, block.ID, BlockCompletionInput{
		ScorePercentage: 80, Passed: true, IsCompleted: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, first.AttemptNumber)
	assert.Equal(t, 15, first.CoinsAwarded)

	// Retake: a fresh attempt row, no second reward
	second, err := lessons.CompleteLessonBlock(f.user.ID, block.ID, BlockCompletionInput{
		ScorePercentage: 95, Passed: true, IsCompleted: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, second.AttemptNumber)
	assert.Equal(t, 0, second.CoinsAwarded)

	balance, err := NewCoinLedger(db).GetBalance(f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, balance)

	best, err := lessons.BestBlockScore(f.user.ID, block.ID)
	require.NoError(t, err)
	assert.InDelta(t, 95, best, 0.001)
}

func TestModuleProgressAveragesLessons(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)

	var module cohortModels.Module
	require.NoError(t, db.Where("week_id = ?", f.week1.ID).First(&module).Error)

	// Second lesson in the module with a single topic
	lesson2 := cohortModels.Lesson{ModuleID: module.ID, Title: "Types", OrderIndex: 2, IsPublished: true}
	require.NoError(t, db.Create(&lesson2).Error)
	topic := cohortModels.Topic{LessonID: lesson2.ID, Title: "Structs", MinTimeRequiredSeconds: 60, CoinReward: 10, OrderIndex: 1, IsPublished: true}
	require.NoError(t, db.Create(&topic).Error)

	completeTopic(t, db, f.user.ID, topic.ID)

	progress, err := NewModuleService(db).CalculateModuleProgress(f.user.ID, module.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, progress.TotalLessons)
	assert.Equal(t, 1, progress.CompletedLessons)
	assert.InDelta(t, 50, progress.Percentage, 0.001) // (0 + 100) / 2
}

func TestAssignmentReviewFlow(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)
	block := seedAssignmentBlock(t, db, f.lesson.ID)
	admin := createUser(t, db, "admin@test.local")

	assignments := NewAssignmentService(db)

	submission, err := assignments.Submit(f.user.ID, block.ID, "My solution", "")
	require.NoError(t, err)
	assert.Equal(t, "PENDING", submission.Status)

	// Resubmission replaces content on the same row
	submission, err = assignments.Submit(f.user.ID, block.ID, "Better solution", "")
	require.NoError(t, err)
	assert.Equal(t, "Better solution", submission.Content)

	queue, err := assignments.PendingSubmissions(10)
	require.NoError(t, err)
	require.Len(t, queue, 1)

	reviewed, err := assignments.Review(admin.ID, submission.ID, true, 85, "")
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", reviewed.Status)
	assert.Equal(t, 85, reviewed.Score)

	// Approval paid the block reward and recorded the completion
	balance, err := NewCoinLedger(db).GetBalance(f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, balance)

	var completion cohortModels.LessonBlockCompletion
	require.NoError(t, db.Where("user_id = ? AND block_id = ?", f.user.ID, block.ID).First(&completion).Error)
	assert.True(t, completion.IsCompleted)
	assert.Equal(t, 15, completion.CoinsAwarded)

	// A second review of the approved submission is refused
	_, err = assignments.Review(admin.ID, submission.ID, true, 90, "")
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	// Re-submitting an approved assignment is refused too
	_, err = assignments.Submit(f.user.ID, block.ID, "One more", "")
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestRejectedAssignmentCanBeResubmittedWithoutDoublePay(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)
	block := seedAssignmentBlock(t, db, f.lesson.ID)
	admin := createUser(t, db, "admin@test.local")

	assignments := NewAssignmentService(db)

	submission, err := assignments.Submit(f.user.ID, block.ID, "Draft", "")
	require.NoError(t, err)

	rejected, err := assignments.Review(admin.ID, submission.ID, false, 0, "Too short")
	require.NoError(t, err)
	assert.Equal(t, "REJECTED", rejected.Status)
	assert.Equal(t, "Too short", rejected.RejectionReason)

	submission, err = assignments.Submit(f.user.ID, block.ID, "Full write-up", "")
	require.NoError(t, err)
	assert.Equal(t, "PENDING", submission.Status)
	assert.Empty(t, submission.RejectionReason)

	_, err = assignments.Review(admin.ID, submission.ID, true, 100, "")
	require.NoError(t, err)

	var rewardRows int64
	require.NoError(t, db.Model(&models.CoinTransaction{}).
		Where("user_id = ? AND source = ?", f.user.ID, models.CoinSourceAssignmentApproval).
		Count(&rewardRows).Error)
	assert.Equal(t, int64(1), rewardRows)
}
