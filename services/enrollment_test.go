package services

import (
	"testing"

	cohortModels "lms/models/cohort"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrollUnlocksFirstWeek(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)

	enrollment, err := NewEnrollmentService(db).Enroll(f.user.ID, f.cohort.ID)
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", enrollment.Status)

	unlocked, err := NewWeekUnlockService(db).IsWeekUnlocked(f.user.ID, f.week1.ID)
	require.NoError(t, err)
	assert.True(t, unlocked)

	unlocked, err = NewWeekUnlockService(db).IsWeekUnlocked(f.user.ID, f.week2.ID)
	require.NoError(t, err)
	assert.False(t, unlocked)
}

func TestEnrollTwiceReturnsSameRow(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)

	enrollments := NewEnrollmentService(db)
	first, err := enrollments.Enroll(f.user.ID, f.cohort.ID)
	require.NoError(t, err)
	second, err := enrollments.Enroll(f.user.ID, f.cohort.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&cohortModels.Enrollment{}).
		Where("user_id = ? AND cohort_id = ?", f.user.ID, f.cohort.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestWithdrawAndReenrollKeepsProgress(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)

	completeTopic(t, db, f.user.ID, f.topicA.ID)

	enrollments := NewEnrollmentService(db)
	withdrawn, err := enrollments.Withdraw(f.user.ID, f.cohort.ID)
	require.NoError(t, err)
	assert.Equal(t, "WITHDRAWN", withdrawn.Status)
	require.NotNil(t, withdrawn.WithdrawnAt)

	_, err = enrollments.GetEnrollment(f.user.ID, f.cohort.ID)
	assert.ErrorIs(t, err, ErrNotEnrolled)

	reactivated, err := enrollments.Enroll(f.user.ID, f.cohort.ID)
	require.NoError(t, err)
	assert.Equal(t, withdrawn.ID, reactivated.ID)
	assert.Equal(t, "ACTIVE", reactivated.Status)
	assert.Nil(t, reactivated.WithdrawnAt)

	// The topic completion survived the round trip
	completion, err := NewTopicService(db).GetTopicProgress(f.user.ID, f.topicA.ID)
	require.NoError(t, err)
	assert.NotNil(t, completion.CompletedAt)
}

func TestCertificateRequiresCompletedEnrollment(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)

	_, err := NewEnrollmentService(db).IssueCertificate(f.user.ID, f.cohort.ID)
	assert.ErrorIs(t, err, ErrNotEligible)
}

func TestFullCohortCompletionFlow(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)

	// Week 1: both topics
	completeTopic(t, db, f.user.ID, f.topicA.ID)
	completeTopic(t, db, f.user.ID, f.topicB.ID)

	// The cascade opened week 2; finish its only topic
	unlocked, err := NewWeekUnlockService(db).IsWeekUnlocked(f.user.ID, f.week2.ID)
	require.NoError(t, err)
	require.True(t, unlocked)
	completeTopic(t, db, f.user.ID, f.topicC.ID)

	enrollments := NewEnrollmentService(db)
	enrollment, err := enrollments.GetEnrollment(f.user.ID, f.cohort.ID)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", enrollment.Status)
	assert.InDelta(t, 100, enrollment.CompletionPercentage, 0.001)
	require.NotNil(t, enrollment.CompletedAt)

	// Three topic rewards of 10 each
	balance, err := NewCoinLedger(db).GetBalance(f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, balance)

	cert, err := enrollments.IssueCertificate(f.user.ID, f.cohort.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, cert.CertificateNumber)

	// Re-requesting returns the same certificate
	again, err := enrollments.IssueCertificate(f.user.ID, f.cohort.ID)
	require.NoError(t, err)
	assert.Equal(t, cert.ID, again.ID)
	assert.Equal(t, cert.CertificateNumber, again.CertificateNumber)
}
