package progressController

import (
	"errors"

	"lms/database"
	"lms/middleware"
	cohortModels "lms/models/cohort"
	"lms/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// EvaluateWeekUnlock reports whether the week can unlock for the current
// user, with the per-rule breakdown. Read-only.
func EvaluateWeekUnlock(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	weekID := c.Locals("weekID").(uint)

	db := database.Database.Db
	var week cohortModels.Week
	if err := db.Where("id = ? AND is_deleted = ? AND is_published = ?", weekID, false, true).First(&week).Error; err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	weeks := services.NewWeekUnlockService(db)

	unlocked, err := weeks.IsWeekUnlocked(userID, weekID)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	eval, err := weeks.Evaluate(userID, &week)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Unlock requirements evaluated!", fiber.Map{
		"is_unlocked":     unlocked,
		"can_unlock":      eval.CanUnlock,
		"deadline_passed": eval.DeadlinePassed,
		"requirements":    eval.Requirements,
	})
}

// UnlockWeek performs the unlock when the rules allow it. Unlocking an
// already unlocked week succeeds without mutation.
func UnlockWeek(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	weekID := c.Locals("weekID").(uint)

	progress, err := services.NewWeekUnlockService(database.Database.Db).TryUnlockWeek(userID, weekID)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Week unlocked!", progress)
}

// GetWeekProgress returns the stored per-week progress row, recomputed on
// demand so the percentage is never stale
func GetWeekProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	weekID := c.Locals("weekID").(uint)

	db := database.Database.Db
	weeks := services.NewWeekUnlockService(db)

	percentage, err := weeks.RecalculateWeekProgress(userID, weekID)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	var progress cohortModels.UserProgress
	err = db.Where("user_id = ? AND week_id = ?", userID, weekID).First(&progress).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.DomainErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Week progress fetched!", fiber.Map{
		"progress":   progress,
		"percentage": percentage,
	})
}
