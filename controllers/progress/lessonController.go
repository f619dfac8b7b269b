package progressController

import (
	"lms/database"
	"lms/middleware"
	"lms/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

// GetLessonProgress returns the aggregated lesson view for the current user
func GetLessonProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	lessonID := c.Locals("lessonID").(uint)

	progress, err := services.NewLessonService(database.Database.Db).CalculateLessonProgress(userID, lessonID)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson progress fetched!", progress)
}

// CompleteLessonBlock appends a completion attempt for a lesson block. Each
// call gets the next attempt number; coins are paid only on the first
// completed attempt of the block.
func CompleteLessonBlock(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	blockID := c.Locals("blockID").(uint)

	reqData := new(struct {
		ScorePercentage float64        `json:"score_percentage"`
		Passed          bool           `json:"passed"`
		IsCompleted     *bool          `json:"is_completed"`
		CompletionData  datatypes.JSON `json:"completion_data"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	// A block marked neither way counts as completed; quiz-style blocks pass
	// an explicit flag
	isCompleted := true
	if reqData.IsCompleted != nil {
		isCompleted = *reqData.IsCompleted
	}

	input := services.BlockCompletionInput{
		ScorePercentage: reqData.ScorePercentage,
		Passed:          reqData.Passed,
		IsCompleted:     isCompleted,
		CompletionData:  reqData.CompletionData,
	}

	completion, err := services.NewLessonService(database.Database.Db).CompleteLessonBlock(userID, blockID, input)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Block completion recorded!", completion)
}

// GetModuleProgress returns the aggregated module view for the current user
func GetModuleProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	moduleID := c.Locals("moduleID").(uint)

	progress, err := services.NewModuleService(database.Database.Db).CalculateModuleProgress(userID, moduleID)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Module progress fetched!", progress)
}
