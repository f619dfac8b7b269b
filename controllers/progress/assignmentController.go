package progressController

import (
	"lms/database"
	"lms/middleware"
	"lms/services"

	"github.com/gofiber/fiber/v2"
)

// SubmitAssignment creates or refreshes the student's submission for an
// assignment block
func SubmitAssignment(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	blockID := c.Locals("blockID").(uint)

	reqData, ok := c.Locals("validatedAssignment").(*struct {
		Content       string `json:"content" validate:"required"`
		AttachmentURL string `json:"attachment_url" validate:"omitempty,url"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	submission, err := services.NewAssignmentService(database.Database.Db).Submit(userID, blockID, reqData.Content, reqData.AttachmentURL)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Assignment submitted!", submission)
}

// JoinLiveSession records attendance entry for the current user
func JoinLiveSession(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	sessionID := c.Locals("sessionID").(uint)

	attendance, err := services.NewLiveService(database.Database.Db).Join(userID, sessionID)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Joined live session!", attendance)
}

// LeaveLiveSession closes the attendance window; a long enough stay pays the
// attendance reward
func LeaveLiveSession(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	sessionID := c.Locals("sessionID").(uint)

	attendance, err := services.NewLiveService(database.Database.Db).Leave(userID, sessionID)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Left live session!", attendance)
}
