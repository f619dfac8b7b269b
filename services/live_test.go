package services

import (
	"testing"
	"time"

	cohortModels "lms/models/cohort"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedLiveSession(t *testing.T, db *gorm.DB, lessonID uint) (*cohortModels.LessonBlock, *cohortModels.LiveSession) {
	t.Helper()

	block := cohortModels.LessonBlock{
		LessonID:    lessonID,
		BlockType:   cohortModels.BlockTypeLive,
		Title:       "Office hours",
		CoinReward:  10,
		IsPublished: true,
	}
	require.NoError(t, db.Create(&block).Error)

	session := cohortModels.LiveSession{
		BlockID:            block.ID,
		Title:              "Office hours",
		Status:             "SCHEDULED",
		ScheduledAt:        time.Now(),
		MinDurationSeconds: 600,
	}
	require.NoError(t, db.Create(&session).Error)
	return &block, &session
}

func TestLiveSessionStateMachine(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)
	_, session := seedLiveSession(t, db, f.lesson.ID)

	live := NewLiveService(db)

	// Joining before the session is live is refused
	_, err := live.Join(f.user.ID, session.ID)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	// Ending a session that never went live is refused
	_, err = live.EndSession(session.ID)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	started, err := live.StartSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, "LIVE", started.Status)

	// Starting twice is refused
	_, err = live.StartSession(session.ID)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	ended, err := live.EndSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, "ENDED", ended.Status)
}

func TestAttendanceBelowMinimumIsNotCounted(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)
	_, session := seedLiveSession(t, db, f.lesson.ID)

	live := NewLiveService(db)
	start := time.Date(2026, 4, 1, 18, 0, 0, 0, time.UTC)

	live.now = frozenClock(start)
	_, err := live.StartSession(session.ID)
	require.NoError(t, err)
	_, err = live.Join(f.user.ID, session.ID)
	require.NoError(t, err)

	// Two minutes is short of the 10 minute threshold
	live.now = frozenClock(start.Add(2 * time.Minute))
	attendance, err := live.Leave(f.user.ID, session.ID)
	require.NoError(t, err)
	assert.False(t, attendance.Counted)
	assert.Equal(t, 0, attendance.CoinsAwarded)

	balance, err := NewCoinLedger(db).GetBalance(f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestAttendanceRewardIsPaidOnce(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)
	block, session := seedLiveSession(t, db, f.lesson.ID)

	live := NewLiveService(db)
	start := time.Date(2026, 4, 1, 18, 0, 0, 0, time.UTC)

	live.now = frozenClock(start)
	_, err := live.StartSession(session.ID)
	require.NoError(t, err)
	_, err = live.Join(f.user.ID, session.ID)
	require.NoError(t, err)

	live.now = frozenClock(start.Add(15 * time.Minute))
	attendance, err := live.Leave(f.user.ID, session.ID)
	require.NoError(t, err)
	assert.True(t, attendance.Counted)
	assert.Equal(t, 10, attendance.CoinsAwarded)
	assert.Equal(t, 900, attendance.DurationSeconds)

	// Leaving again is a no-op
	again, err := live.Leave(f.user.ID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, attendance.ID, again.ID)

	balance, err := NewCoinLedger(db).GetBalance(f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, balance)

	// The attendance recorded a block completion for lesson progress
	var completion cohortModels.LessonBlockCompletion
	require.NoError(t, db.Where("user_id = ? AND block_id = ?", f.user.ID, block.ID).First(&completion).Error)
	assert.True(t, completion.IsCompleted)
}

func TestEndSessionClosesOpenAttendances(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)
	_, session := seedLiveSession(t, db, f.lesson.ID)

	live := NewLiveService(db)
	start := time.Date(2026, 4, 1, 18, 0, 0, 0, time.UTC)

	live.now = frozenClock(start)
	_, err := live.StartSession(session.ID)
	require.NoError(t, err)
	_, err = live.Join(f.user.ID, session.ID)
	require.NoError(t, err)

	// The student never clicks leave; ending the session settles them
	live.now = frozenClock(start.Add(45 * time.Minute))
	_, err = live.EndSession(session.ID)
	require.NoError(t, err)

	var attendance cohortModels.LiveAttendance
	require.NoError(t, db.Where("user_id = ? AND live_session_id = ?", f.user.ID, session.ID).First(&attendance).Error)
	require.NotNil(t, attendance.LeftAt)
	assert.True(t, attendance.Counted)
	assert.Equal(t, 10, attendance.CoinsAwarded)
}
