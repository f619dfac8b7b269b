package quizRoutes

import (
	controllers "lms/controllers/quiz"
	"lms/middleware"
	validators "lms/validators/quiz"

	"github.com/gofiber/fiber/v2"
)

// SetupQuizRoutes sets up the student-facing quiz attempt flow
func SetupQuizRoutes(app *fiber.App) {
	quizGroup := app.Group("/quiz")

	quizGroup.Post("/:quizId/attempt/start", middleware.JWTMiddleware, validators.QuizID(), controllers.StartQuizAttempt)
	quizGroup.Post("/attempt/submit", middleware.JWTMiddleware, validators.SubmitAttempt(), controllers.SubmitQuizAttempt)
	quizGroup.Get("/:quizId/attempts", middleware.JWTMiddleware, validators.QuizID(), controllers.GetQuizAttempts)
}
