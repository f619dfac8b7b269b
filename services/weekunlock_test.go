package services

import (
	"testing"
	"time"

	cohortModels "lms/models/cohort"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateSequentialGate(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)

	weeks := NewWeekUnlockService(db)

	// Week 1 at 0%: week 2 fails both the sequential and min_progress rules
	eval, err := weeks.Evaluate(f.user.ID, &f.week2)
	require.NoError(t, err)
	assert.False(t, eval.CanUnlock)
	require.Len(t, eval.Requirements, 3)
	assert.Equal(t, "sequential", eval.Requirements[0].Rule)
	assert.True(t, eval.Requirements[0].Satisfied) // week 1 was unlocked at enrollment
	assert.Equal(t, "min_progress", eval.Requirements[1].Rule)
	assert.False(t, eval.Requirements[1].Satisfied)
	assert.InDelta(t, 90, eval.Requirements[1].Threshold, 0.001)

	// One of two topics done: 50% is still short of the default 90
	completeTopic(t, db, f.user.ID, f.topicA.ID)
	eval, err = weeks.Evaluate(f.user.ID, &f.week2)
	require.NoError(t, err)
	assert.False(t, eval.CanUnlock)
	assert.InDelta(t, 50, eval.Requirements[1].Current, 0.001)

	completeTopic(t, db, f.user.ID, f.topicB.ID)
	eval, err = weeks.Evaluate(f.user.ID, &f.week2)
	require.NoError(t, err)
	assert.True(t, eval.CanUnlock)
	assert.InDelta(t, 100, eval.Requirements[1].Current, 0.001)
}

func TestEvaluateHonoursPerWeekMinProgress(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)

	minProgress := float64(50)
	f.week2.MinProgress = &minProgress
	require.NoError(t, db.Save(&f.week2).Error)

	completeTopic(t, db, f.user.ID, f.topicA.ID)

	ok, err := NewWeekUnlockService(db).CanUnlockWeek(f.user.ID, &f.week2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluateMinCoinsGate(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)

	f.week2.MinCoins = 100
	require.NoError(t, db.Save(&f.week2).Error)

	completeTopic(t, db, f.user.ID, f.topicA.ID)
	completeTopic(t, db, f.user.ID, f.topicB.ID)

	// Two topic rewards leave the balance at 20, short of 100
	weeks := NewWeekUnlockService(db)
	eval, err := weeks.Evaluate(f.user.ID, &f.week2)
	require.NoError(t, err)
	assert.False(t, eval.CanUnlock)
	assert.Equal(t, "min_coins", eval.Requirements[2].Rule)
	assert.InDelta(t, 20, eval.Requirements[2].Current, 0.001)

	_, err = NewCoinLedger(db).Adjust(f.user.ID, 80, 1, "Top up")
	require.NoError(t, err)
	ok, err := weeks.CanUnlockWeek(f.user.ID, &f.week2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeadlineIsWarningOnly(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)

	deadline := time.Now().Add(-24 * time.Hour)
	f.week2.DeadlineAt = &deadline
	require.NoError(t, db.Save(&f.week2).Error)

	completeTopic(t, db, f.user.ID, f.topicA.ID)
	completeTopic(t, db, f.user.ID, f.topicB.ID)

	eval, err := NewWeekUnlockService(db).Evaluate(f.user.ID, &f.week2)
	require.NoError(t, err)
	assert.True(t, eval.DeadlinePassed)
	assert.True(t, eval.CanUnlock)
}

func TestUnlockWeekIsMonotonic(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)

	weeks := NewWeekUnlockService(db)
	weeks.now = frozenClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	first, err := weeks.UnlockWeek(f.user.ID, f.week2.ID)
	require.NoError(t, err)
	require.NotNil(t, first.UnlockedAt)

	// A later unlock call must not move UnlockedAt
	weeks.now = frozenClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	second, err := weeks.UnlockWeek(f.user.ID, f.week2.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.UnlockedAt.Equal(*second.UnlockedAt))
}

func TestTryUnlockWeekRefusesWhenGated(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)

	_, err := NewWeekUnlockService(db).TryUnlockWeek(f.user.ID, f.week2.ID)
	assert.ErrorIs(t, err, ErrWeekLocked)
}

func TestRecalculateNeverRetractsUnlock(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)

	weeks := NewWeekUnlockService(db)
	_, err := weeks.UnlockWeek(f.user.ID, f.week2.ID)
	require.NoError(t, err)

	// Recomputing a 0% week leaves the unlock flag alone
	percentage, err := weeks.RecalculateWeekProgress(f.user.ID, f.week2.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0, percentage, 0.001)

	unlocked, err := weeks.IsWeekUnlocked(f.user.ID, f.week2.ID)
	require.NoError(t, err)
	assert.True(t, unlocked)
}

func TestCompletingWeekAutoUnlocksNext(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)

	weeks := NewWeekUnlockService(db)

	unlocked, err := weeks.IsWeekUnlocked(f.user.ID, f.week2.ID)
	require.NoError(t, err)
	assert.False(t, unlocked)

	completeTopic(t, db, f.user.ID, f.topicA.ID)
	completeTopic(t, db, f.user.ID, f.topicB.ID)

	// The cascade from the second completion met the gate and opened week 2
	unlocked, err = weeks.IsWeekUnlocked(f.user.ID, f.week2.ID)
	require.NoError(t, err)
	assert.True(t, unlocked)

	var progress cohortModels.UserProgress
	require.NoError(t, db.Where("user_id = ? AND week_id = ?", f.user.ID, f.week1.ID).First(&progress).Error)
	assert.InDelta(t, 100, progress.CompletionPercentage, 0.001)
}
