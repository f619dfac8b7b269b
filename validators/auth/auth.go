package authValidator

import (
	"lms/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

func Signup() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Name     string `json:"name" validate:"required,min=2"`
			Email    string `json:"email" validate:"required,email"`
			Password string `json:"password" validate:"required,min=8"`
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

		c.Locals("validatedSignup", reqData)
		return c.Next()
	}
}

func Login() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Email    string `json:"email" validate:"required,email"`
			Password string `json:"password" validate:"required"`
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

		c.Locals("validatedLogin", reqData)
		return c.Next()
	}
}
