package services

import (
	"testing"
	"time"

	"lms/config"
	"lms/database"
	"lms/models"
	cohortModels "lms/models/cohort"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	config.AppConfig = &config.Config{
		DefaultTopicMinSeconds: 120,
		DefaultWeekMinProgress: 90,
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	database.RunMigrations(db)
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := models.User{Name: "Test Student", Email: email, Password: "hashed", Role: "STUDENT"}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

// fixture is a two week cohort: week 1 holds one module with one lesson of
// two topics, week 2 holds one module with one lesson of one topic. Week 2
// gates on week 1 sequentially.
type fixture struct {
	user   *models.User
	cohort cohortModels.Cohort
	week1  cohortModels.Week
	week2  cohortModels.Week
	lesson cohortModels.Lesson
	topicA cohortModels.Topic
	topicB cohortModels.Topic
	topicC cohortModels.Topic
}

func seedCohort(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()

	f := &fixture{user: createUser(t, db, "student@test.local")}

	f.cohort = cohortModels.Cohort{Title: "Go Bootcamp", Status: "ACTIVE", IsPublished: true}
	require.NoError(t, db.Create(&f.cohort).Error)

	f.week1 = cohortModels.Week{CohortID: f.cohort.ID, WeekNumber: 1, Title: "Week 1", Sequential: true, IsPublished: true}
	require.NoError(t, db.Create(&f.week1).Error)
	f.week2 = cohortModels.Week{CohortID: f.cohort.ID, WeekNumber: 2, Title: "Week 2", Sequential: true, IsPublished: true}
	require.NoError(t, db.Create(&f.week2).Error)

	module1 := cohortModels.Module{WeekID: f.week1.ID, Title: "Basics", OrderIndex: 1}
	require.NoError(t, db.Create(&module1).Error)
	module2 := cohortModels.Module{WeekID: f.week2.ID, Title: "Advanced", OrderIndex: 1}
	require.NoError(t, db.Create(&module2).Error)

	f.lesson = cohortModels.Lesson{ModuleID: module1.ID, Title: "Syntax", OrderIndex: 1, IsPublished: true}
	require.NoError(t, db.Create(&f.lesson).Error)
	lesson2 := cohortModels.Lesson{ModuleID: module2.ID, Title: "Concurrency", OrderIndex: 1, IsPublished: true}
	require.NoError(t, db.Create(&lesson2).Error)

	f.topicA = cohortModels.Topic{LessonID: f.lesson.ID, Title: "Variables", MinTimeRequiredSeconds: 60, CoinReward: 10, OrderIndex: 1, IsPublished: true}
	require.NoError(t, db.Create(&f.topicA).Error)
	f.topicB = cohortModels.Topic{LessonID: f.lesson.ID, Title: "Functions", MinTimeRequiredSeconds: 60, CoinReward: 10, OrderIndex: 2, IsPublished: true}
	require.NoError(t, db.Create(&f.topicB).Error)
	f.topicC = cohortModels.Topic{LessonID: lesson2.ID, Title: "Goroutines", MinTimeRequiredSeconds: 60, CoinReward: 10, OrderIndex: 1, IsPublished: true}
	require.NoError(t, db.Create(&f.topicC).Error)

	return f
}

// enroll joins the fixture user and opens week 1
func (f *fixture) enroll(t *testing.T, db *gorm.DB) {
	t.Helper()
	_, err := NewEnrollmentService(db).Enroll(f.user.ID, f.cohort.ID)
	require.NoError(t, err)
}

// completeTopic fast-forwards the watch time and completes the topic
func completeTopic(t *testing.T, db *gorm.DB, userID, topicID uint) {
	t.Helper()
	topics := NewTopicService(db)
	_, err := topics.UpdateTopicProgress(userID, topicID, 100, 3600, 3600)
	require.NoError(t, err)
	_, err = topics.CompleteTopic(userID, topicID, nil)
	require.NoError(t, err)
}

func frozenClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
