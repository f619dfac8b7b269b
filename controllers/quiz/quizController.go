package quizController

import (
	"lms/database"
	"lms/middleware"
	"lms/services"

	"github.com/gofiber/fiber/v2"
)

// StartQuizAttempt opens an attempt and returns its question list with
// answer keys stripped
func StartQuizAttempt(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	quizID := c.Locals("quizID").(uint)

	quizzes := services.NewQuizService(database.Database.Db)

	attempt, err := quizzes.StartQuizAttempt(userID, quizID)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	questions, err := quizzes.GetQuestionsForAttempt(attempt)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attempt started!", fiber.Map{
		"attempt":   attempt,
		"questions": questions,
	})
}

// SubmitQuizAttempt grades the attempt and returns the result
func SubmitQuizAttempt(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedQuizSubmission").(*struct {
		AttemptID uint `json:"attempt_id" validate:"required"`
		Answers   []struct {
			QuestionID uint   `json:"question_id" validate:"required"`
			Answer     string `json:"answer"`
		} `json:"answers" validate:"required,dive"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	answers := make([]services.SubmittedAnswer, len(reqData.Answers))
	for i, a := range reqData.Answers {
		answers[i] = services.SubmittedAnswer{QuestionID: a.QuestionID, Answer: a.Answer}
	}

	attempt, err := services.NewQuizService(database.Database.Db).SubmitQuizAttempt(userID, reqData.AttemptID, answers)
	if err == services.ErrAlreadyCompleted {
		// The attempt was already graded (client retry or the expiry sweep
		// got there first); return the stored result
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Attempt was already submitted.", attempt)
	}
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attempt submitted!", attempt)
}

// GetQuizAttempts lists the caller's attempts on a quiz
func GetQuizAttempts(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	quizID := c.Locals("quizID").(uint)

	attempts, err := services.NewQuizService(database.Database.Db).GetAttempts(userID, quizID)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attempts fetched!", attempts)
}
