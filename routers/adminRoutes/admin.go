package adminRoutes

import (
	controllers "lms/controllers/admin"
	"lms/middleware"
	adminValidators "lms/validators/admin"
	cohortValidators "lms/validators/cohort"
	progressValidators "lms/validators/progress"
	quizValidators "lms/validators/quiz"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminRoutes sets up content management, assignment review, live
// session control and manual coin adjustments
func SetupAdminRoutes(app *fiber.App) {
	adminOnly := middleware.RequireRole("ADMIN")

	cohortGroup := app.Group("/admin/cohort")
	cohortGroup.Post("/create", middleware.JWTMiddleware, adminOnly, adminValidators.CreateCohort(), controllers.CreateCohort)
	cohortGroup.Post("/:cohortId/publish", middleware.JWTMiddleware, adminOnly, cohortValidators.CohortID(), controllers.PublishCohort)
	cohortGroup.Post("/:cohortId/week", middleware.JWTMiddleware, adminOnly, cohortValidators.CohortID(), adminValidators.CreateWeek(), controllers.CreateWeek)

	weekGroup := app.Group("/admin/week")
	weekGroup.Post("/:weekId/publish", middleware.JWTMiddleware, adminOnly, progressValidators.WeekID(), controllers.PublishWeek)
	weekGroup.Post("/:weekId/module", middleware.JWTMiddleware, adminOnly, progressValidators.WeekID(), controllers.CreateModule)
	weekGroup.Post("/:weekId/quiz", middleware.JWTMiddleware, adminOnly, progressValidators.WeekID(), adminValidators.CreateQuiz(), controllers.CreateQuiz)

	moduleGroup := app.Group("/admin/module")
	moduleGroup.Post("/:moduleId/lesson", middleware.JWTMiddleware, adminOnly, progressValidators.ModuleID(), controllers.CreateLesson)

	lessonGroup := app.Group("/admin/lesson")
	lessonGroup.Post("/:lessonId/topic", middleware.JWTMiddleware, adminOnly, progressValidators.LessonID(), controllers.CreateTopic)
	lessonGroup.Post("/:lessonId/block", middleware.JWTMiddleware, adminOnly, progressValidators.LessonID(), controllers.CreateBlock)

	quizGroup := app.Group("/admin/quiz")
	quizGroup.Post("/:quizId/publish", middleware.JWTMiddleware, adminOnly, quizValidators.QuizID(), controllers.PublishQuiz)
	quizGroup.Post("/:quizId/question", middleware.JWTMiddleware, adminOnly, quizValidators.QuizID(), adminValidators.CreateQuestion(), controllers.AddQuizQuestion)

	assignmentGroup := app.Group("/admin/assignment")
	assignmentGroup.Get("/pending", middleware.JWTMiddleware, adminOnly, controllers.PendingAssignments)
	assignmentGroup.Post("/:submissionId/review", middleware.JWTMiddleware, adminOnly, adminValidators.SubmissionID(), adminValidators.ReviewAssignment(), controllers.ReviewAssignment)

	blockGroup := app.Group("/admin/block")
	blockGroup.Post("/:blockId/live", middleware.JWTMiddleware, adminOnly, progressValidators.BlockID(), controllers.ScheduleLiveSession)

	liveGroup := app.Group("/admin/live")
	liveGroup.Post("/:sessionId/start", middleware.JWTMiddleware, adminOnly, progressValidators.SessionID(), controllers.StartLiveSession)
	liveGroup.Post("/:sessionId/end", middleware.JWTMiddleware, adminOnly, progressValidators.SessionID(), controllers.EndLiveSession)

	userGroup := app.Group("/admin/user")
	userGroup.Post("/:userId/coins/adjust", middleware.JWTMiddleware, adminOnly, adminValidators.UserID(), adminValidators.CoinAdjustment(), controllers.AdjustCoins)
}
