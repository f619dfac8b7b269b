package jobs

import (
	"fmt"
	"log"
	"time"

	"lms/database"
	"lms/services"

	"github.com/robfig/cron/v3"
)

// logScheduler logs scheduler events with timestamp
func logScheduler(message string) {
	log.Printf("[ATTEMPT-SCHEDULER %s] %s", time.Now().Format(time.RFC3339), message)
}

// expireOverdueAttempts force-submits quiz attempts whose server-side expiry
// has passed. The client timer is advisory; this sweep is the authority.
func expireOverdueAttempts() {
	quizzes := services.NewQuizService(database.Database.Db)
	expired, err := quizzes.ExpireOverdueAttempts()
	if err != nil {
		logScheduler("Error expiring overdue attempts: " + err.Error())
		return
	}
	if expired > 0 {
		logScheduler(fmt.Sprintf("Auto-submitted %d expired attempts", expired))
	}
}

// StartAttemptScheduler runs the expiry sweep every minute
func StartAttemptScheduler() {
	c := cron.New()

	_, err := c.AddFunc("* * * * *", expireOverdueAttempts)
	if err != nil {
		log.Fatalf("Failed to schedule attempt expiry job: %v", err)
	}

	c.Start()
	logScheduler("Attempt expiry scheduler started")
}
