package adminValidator

import (
	"strconv"

	"lms/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

func idParam(param, localKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params(param))
		if err != nil || id <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid "+param+"!", nil)
		}
		c.Locals(localKey, uint(id))
		return c.Next()
	}
}

func SubmissionID() fiber.Handler { return idParam("submissionId", "submissionID") }
func QuestionID() fiber.Handler   { return idParam("questionId", "questionID") }
func UserID() fiber.Handler       { return idParam("userId", "targetUserID") }

func runValidation(c *fiber.Ctx, reqData interface{}) error {
	if err := validate.Struct(reqData); err != nil {
		errs := make(map[string]string)
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errs[fieldErr.Field()] = "Failed validation: " + fieldErr.Tag()
		}
		return middleware.ValidationErrorResponse(c, errs)
	}
	return nil
}

func CreateCohort() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Title       string `json:"title" validate:"required,min=3"`
			Description string `json:"description"`
			StartDate   string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if err := runValidation(c, reqData); err != nil {
			return err
		}

		c.Locals("validatedCohort", reqData)
		return c.Next()
	}
}

func CreateWeek() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			WeekNumber  int      `json:"week_number" validate:"required,min=1"`
			Title       string   `json:"title" validate:"required"`
			Description string   `json:"description"`
			Sequential  *bool    `json:"sequential"`
			MinProgress *float64 `json:"min_progress" validate:"omitempty,min=0,max=100"`
			MinCoins    int      `json:"min_coins" validate:"min=0"`
			DeadlineAt  string   `json:"deadline_at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if err := runValidation(c, reqData); err != nil {
			return err
		}

		c.Locals("validatedWeek", reqData)
		return c.Next()
	}
}

func CreateQuiz() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Title            string  `json:"title" validate:"required"`
			Description      string  `json:"description"`
			MaxAttempts      int     `json:"max_attempts" validate:"min=0"`
			PassingScore     float64 `json:"passing_score" validate:"min=0,max=100"`
			TimeLimitSeconds int     `json:"time_limit_seconds" validate:"min=0"`
			IsRandomized     bool    `json:"is_randomized"`
			CoinReward       int     `json:"coin_reward" validate:"min=0"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if err := runValidation(c, reqData); err != nil {
			return err
		}

		c.Locals("validatedQuiz", reqData)
		return c.Next()
	}
}

func CreateQuestion() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			QuestionText string `json:"question_text" validate:"required"`
			QuestionType string `json:"question_type" validate:"required,oneof=MULTIPLE_CHOICE TRUE_FALSE FREE_TEXT"`
			Options      []struct {
				ID   string `json:"id" validate:"required"`
				Text string `json:"text"`
			} `json:"options" validate:"dive"`
			CorrectAnswers []string `json:"correct_answers"`
			Points         int      `json:"points" validate:"min=1"`
			OrderIndex     int      `json:"order_index" validate:"min=0"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if err := runValidation(c, reqData); err != nil {
			return err
		}

		c.Locals("validatedQuestion", reqData)
		return c.Next()
	}
}

func ReviewAssignment() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Approve         bool   `json:"approve"`
			Score           int    `json:"score" validate:"min=0,max=100"`
			RejectionReason string `json:"rejection_reason"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if err := runValidation(c, reqData); err != nil {
			return err
		}

		c.Locals("validatedReview", reqData)
		return c.Next()
	}
}

func CoinAdjustment() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Amount      int    `json:"amount" validate:"required"`
			Reason      string `json:"reason" validate:"required"`
			ReferenceID uint   `json:"reference_id" validate:"required"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if err := runValidation(c, reqData); err != nil {
			return err
		}

		c.Locals("validatedCoinAdjustment", reqData)
		return c.Next()
	}
}
