package quizValidator

import (
	"strconv"

	"lms/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

func QuizID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("quizId"))
		if err != nil || id <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid quizId!", nil)
		}
		c.Locals("quizID", uint(id))
		return c.Next()
	}
}

func SubmitAttempt() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			AttemptID uint `json:"attempt_id" validate:"required"`
			Answers   []struct {
				QuestionID uint   `json:"question_id" validate:"required"`
				Answer     string `json:"answer"`
			} `json:"answers" validate:"required,dive"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			errs := make(map[string]string)
			for _, fieldErr := range err.(validator.ValidationErrors) {
				errs[fieldErr.Field()] = "Failed validation: " + fieldErr.Tag()
			}
			return middleware.ValidationErrorResponse(c, errs)
		}

		c.Locals("validatedQuizSubmission", reqData)
		return c.Next()
	}
}
