package progressRoutes

import (
	controllers "lms/controllers/progress"
	"lms/middleware"
	validators "lms/validators/progress"

	"github.com/gofiber/fiber/v2"
)

// SetupProgressRoutes sets up topic, lesson, module and week progress
// tracking plus the coin and leaderboard views
func SetupProgressRoutes(app *fiber.App) {
	topicGroup := app.Group("/topic")

	topicGroup.Post("/:topicId/start", middleware.JWTMiddleware, validators.TopicID(), controllers.StartTopic)
	topicGroup.Patch("/:topicId/progress", middleware.JWTMiddleware, validators.TopicID(), validators.TopicProgress(), controllers.UpdateTopicProgress)
	topicGroup.Post("/:topicId/complete", middleware.JWTMiddleware, validators.TopicID(), controllers.CompleteTopic)
	topicGroup.Get("/:topicId/progress", middleware.JWTMiddleware, validators.TopicID(), controllers.GetTopicProgress)

	lessonGroup := app.Group("/lesson")
	lessonGroup.Get("/:lessonId/progress", middleware.JWTMiddleware, validators.LessonID(), controllers.GetLessonProgress)

	blockGroup := app.Group("/block")
	blockGroup.Post("/:blockId/complete", middleware.JWTMiddleware, validators.BlockID(), controllers.CompleteLessonBlock)
	blockGroup.Post("/:blockId/assignment", middleware.JWTMiddleware, validators.BlockID(), validators.SubmitAssignment(), controllers.SubmitAssignment)

	moduleGroup := app.Group("/module")
	moduleGroup.Get("/:moduleId/progress", middleware.JWTMiddleware, validators.ModuleID(), controllers.GetModuleProgress)

	weekGroup := app.Group("/week")
	weekGroup.Get("/:weekId/unlock", middleware.JWTMiddleware, validators.WeekID(), controllers.EvaluateWeekUnlock)
	weekGroup.Post("/:weekId/unlock", middleware.JWTMiddleware, validators.WeekID(), controllers.UnlockWeek)
	weekGroup.Get("/:weekId/progress", middleware.JWTMiddleware, validators.WeekID(), controllers.GetWeekProgress)

	liveGroup := app.Group("/live")
	liveGroup.Post("/:sessionId/join", middleware.JWTMiddleware, validators.SessionID(), controllers.JoinLiveSession)
	liveGroup.Post("/:sessionId/leave", middleware.JWTMiddleware, validators.SessionID(), controllers.LeaveLiveSession)

	app.Get("/leaderboard", middleware.JWTMiddleware, controllers.GetLeaderboard)
	app.Get("/coins/history", middleware.JWTMiddleware, controllers.GetCoinHistory)
}
