package progressController

import (
	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

// StartTopic opens (or returns) the progress row for a topic
func StartTopic(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	topicID := c.Locals("topicID").(uint)

	completion, err := services.NewTopicService(database.Database.Db).StartTopic(userID, topicID)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Topic started!", completion)
}

// UpdateTopicProgress records watch time and scrubbing position
func UpdateTopicProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	topicID := c.Locals("topicID").(uint)

	reqData, ok := c.Locals("validatedTopicProgress").(*struct {
		Percentage          float64 `json:"percentage" validate:"min=0,max=100"`
		TimeSpentSeconds    int     `json:"time_spent_seconds" validate:"min=0"`
		LastPositionSeconds int     `json:"last_position_seconds" validate:"min=0"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	topics := services.NewTopicService(database.Database.Db)
	completion, err := topics.UpdateTopicProgress(userID, topicID, reqData.Percentage, reqData.TimeSpentSeconds, reqData.LastPositionSeconds)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	remaining, err := topics.GetTimeRemainingForEligibility(userID, topicID)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress updated!", fiber.Map{
		"completion":              completion,
		"time_remaining_seconds":  remaining,
		"eligible_for_completion": remaining == 0,
	})
}

// CompleteTopic marks the topic done, pays coins once and cascades the
// progress recomputation upward. A repeated call responds with the stored
// completion so client retries are safe.
func CompleteTopic(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	topicID := c.Locals("topicID").(uint)

	reqData := new(struct {
		CompletionData datatypes.JSON `json:"completion_data"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	db := database.Database.Db
	topics := services.NewTopicService(db)

	completion, err := topics.CompleteTopic(userID, topicID, reqData.CompletionData)
	alreadyCompleted := err == services.ErrAlreadyCompleted
	if err != nil && !alreadyCompleted {
		return middleware.DomainErrorResponse(c, err)
	}

	balance, err := services.NewCoinLedger(db).GetBalance(userID)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	var lessonProgress *services.LessonProgress
	var topic struct{ LessonID uint }
	if err := db.Table("topics").Select("lesson_id").Where("id = ?", topicID).Scan(&topic).Error; err == nil {
		lessonProgress, _ = services.NewLessonService(db).CalculateLessonProgress(userID, topic.LessonID)
	}

	message := "Topic completed!"
	if alreadyCompleted {
		message = "Topic was already completed."
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, message, fiber.Map{
		"completion": completion,
		"user_stats": fiber.Map{
			"new_coin_balance":  balance,
			"lesson_completion": lessonProgress,
		},
	})
}

// GetTopicProgress returns the stored progress row plus the eligibility state
func GetTopicProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	topicID := c.Locals("topicID").(uint)

	topics := services.NewTopicService(database.Database.Db)
	completion, err := topics.GetTopicProgress(userID, topicID)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	remaining, err := topics.GetTimeRemainingForEligibility(userID, topicID)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Topic progress fetched!", fiber.Map{
		"completion":              completion,
		"time_remaining_seconds":  remaining,
		"eligible_for_completion": remaining == 0,
	})
}
