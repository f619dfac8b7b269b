package progressValidator

import (
	"strconv"

	"lms/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// idParam parses the named route param and stores it under localKey as uint
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

func TopicID() fiber.Handler   { return idParam("topicId", "topicID") }
func LessonID() fiber.Handler  { return idParam("lessonId", "lessonID") }
func BlockID() fiber.Handler   { return idParam("blockId", "blockID") }
func ModuleID() fiber.Handler  { return idParam("moduleId", "moduleID") }
func WeekID() fiber.Handler    { return idParam("weekId", "weekID") }
func SessionID() fiber.Handler { return idParam("sessionId", "sessionID") }

func TopicProgress() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Percentage          float64 `json:"percentage" validate:"min=0,max=100"`
			TimeSpentSeconds    int     `json:"time_spent_seconds" validate:"min=0"`
			LastPositionSeconds int     `json:"last_position_seconds" validate:"min=0"`
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

		c.Locals("validatedTopicProgress", reqData)
		return c.Next()
	}
}

func SubmitAssignment() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Content       string `json:"content" validate:"required"`
			AttachmentURL string `json:"attachment_url" validate:"omitempty,url"`
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

		c.Locals("validatedAssignment", reqData)
		return c.Next()
	}
}
