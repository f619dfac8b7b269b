package middleware

import (
	"errors"
	"log"
	"time"

	"lms/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func JsonResponse(c *fiber.Ctx, statusCode int, status bool, message string, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

func ValidationErrorResponse(c *fiber.Ctx, errs map[string]string) error {
	return JsonResponse(c, fiber.StatusUnprocessableEntity, false, "Validation failed!", errs)
}

// DomainErrorResponse maps engine errors onto transport codes with a
// structured body. Recoverable domain violations become a 4xx; anything
// unexpected is logged and returned as a 500.
func DomainErrorResponse(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Something went wrong!"

	switch {
	case errors.Is(err, services.ErrAlreadyCompleted):
		status, message = fiber.StatusConflict, "Already completed!"
	case errors.Is(err, services.ErrMaxAttemptsReached):
		status, message = fiber.StatusConflict, "Maximum attempts reached!"
	case errors.Is(err, services.ErrAttemptNotFound):
		status, message = fiber.StatusNotFound, "Attempt not found!"
	case errors.Is(err, services.ErrWeekLocked):
		status, message = fiber.StatusForbidden, "This week is still locked!"
	case errors.Is(err, services.ErrAccessDenied):
		status, message = fiber.StatusForbidden, "Access denied!"
	case errors.Is(err, services.ErrInvalidStateTransition):
		status, message = fiber.StatusConflict, "Invalid state transition!"
	case errors.Is(err, services.ErrNotEligible):
		status, message = fiber.StatusBadRequest, "Requirements not met yet!"
	case errors.Is(err, services.ErrNotEnrolled):
		status, message = fiber.StatusForbidden, "Not enrolled in this cohort!"
	case errors.Is(err, gorm.ErrRecordNotFound):
		status, message = fiber.StatusNotFound, "Not found!"
	default:
		log.Printf("Unexpected error on %s %s: %v", c.Method(), c.Path(), err)
	}

	return c.Status(status).JSON(fiber.Map{
		"status":    false,
		"error":     message,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
