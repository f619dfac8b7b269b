package services

import (
	"testing"

	"lms/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartTopicIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)

	topics := NewTopicService(db)

	first, err := topics.StartTopic(f.user.ID, f.topicA.ID)
	require.NoError(t, err)
	second, err := topics.StartTopic(f.user.ID, f.topicA.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.StartedAt.Unix(), second.StartedAt.Unix())
}

func TestStartTopicInLockedWeekIsRefused(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)

	// topicC lives in week 2, which has not been unlocked
	_, err := NewTopicService(db).StartTopic(f.user.ID, f.topicC.ID)
	assert.ErrorIs(t, err, ErrWeekLocked)
}

func TestUpdateTopicProgressIsMonotonic(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)

	topics := NewTopicService(db)

	completion, err := topics.UpdateTopicProgress(f.user.ID, f.topicA.ID, 40, 100, 90)
	require.NoError(t, err)
	assert.Equal(t, 100, completion.TimeSpentSeconds)
	assert.InDelta(t, 40, completion.CompletionPercentage, 0.001)

	// Lower values never overwrite stored progress
	completion, err = topics.UpdateTopicProgress(f.user.ID, f.topicA.ID, 20, 50, 30)
	require.NoError(t, err)
	assert.Equal(t, 100, completion.TimeSpentSeconds)
	assert.Equal(t, 90, completion.LastPositionSeconds)
	assert.InDelta(t, 40, completion.CompletionPercentage, 0.001)

	// Reported percentage is capped at 100
	completion, err = topics.UpdateTopicProgress(f.user.ID, f.topicA.ID, 250, 120, 120)
	require.NoError(t, err)
	assert.InDelta(t, 100, completion.CompletionPercentage, 0.001)
}

func TestCompleteTopicRequiresMinimumTime(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)

	topics := NewTopicService(db)

	// topicA requires 60 seconds; only 30 spent
	_, err := topics.UpdateTopicProgress(f.user.ID, f.topicA.ID, 50, 30, 30)
	require.NoError(t, err)
	_, err = topics.CompleteTopic(f.user.ID, f.topicA.ID, nil)
	assert.ErrorIs(t, err, ErrNotEligible)

	remaining, err := topics.GetTimeRemainingForEligibility(f.user.ID, f.topicA.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, remaining)

	_, err = topics.UpdateTopicProgress(f.user.ID, f.topicA.ID, 100, 60, 60)
	require.NoError(t, err)
	eligible, err := topics.IsEligibleForCompletion(f.user.ID, f.topicA.ID)
	require.NoError(t, err)
	assert.True(t, eligible)

	completion, err := topics.CompleteTopic(f.user.ID, f.topicA.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, completion.CompletedAt)
	assert.InDelta(t, 100, completion.CompletionPercentage, 0.001)
	assert.Equal(t, 10, completion.CoinsAwarded)
}

func TestCompleteTopicIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)

	completeTopic(t, db, f.user.ID, f.topicA.ID)

	topics := NewTopicService(db)
	completion, err := topics.CompleteTopic(f.user.ID, f.topicA.ID, nil)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
	require.NotNil(t, completion)
	require.NotNil(t, completion.CompletedAt)

	// Exactly one completion row and one coin transaction
	var rows int64
	require.NoError(t, db.Model(&models.CoinTransaction{}).
		Where("user_id = ? AND source = ? AND source_id = ?", f.user.ID, models.CoinSourceTopicCompletion, f.topicA.ID).
		Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	balance, err := NewCoinLedger(db).GetBalance(f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, balance)
}

func TestCompletedTopicIsFrozen(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)

	completeTopic(t, db, f.user.ID, f.topicA.ID)

	completion, err := NewTopicService(db).UpdateTopicProgress(f.user.ID, f.topicA.ID, 10, 9999, 9999)
	require.NoError(t, err)
	assert.Equal(t, 3600, completion.TimeSpentSeconds)
	assert.InDelta(t, 100, completion.CompletionPercentage, 0.001)
}
