package cohortController

import (
	"errors"

	"lms/database"
	"lms/middleware"
	cohortModels "lms/models/cohort"
	"lms/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CohortList returns published cohorts with pagination
func CohortList(c *fiber.Ctx) error {
	page := c.Locals("page").(int)
	limit := c.Locals("limit").(int)

	var cohorts []cohortModels.Cohort
	var total int64

	query := database.Database.Db.Model(&cohortModels.Cohort{}).
		Where("is_published = ? AND is_deleted = ?", true, false)

	if err := query.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch cohorts!", nil)
	}

	if err := query.Order("start_date ASC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&cohorts).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch cohorts!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Cohorts fetched!", fiber.Map{
		"cohorts": cohorts,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// GetCohort returns one cohort with its published weeks and, when the caller
// is enrolled, the per-week unlock state
func GetCohort(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	cohortID := c.Locals("cohortID").(uint)

	var cohort cohortModels.Cohort
	err := database.Database.Db.
		Where("id = ? AND is_published = ? AND is_deleted = ?", cohortID, true, false).
		First(&cohort).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Cohort not found!", nil)
	}
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	var weeks []cohortModels.Week
	if err := database.Database.Db.
		Where("cohort_id = ? AND is_published = ? AND is_deleted = ?", cohortID, true, false).
		Order("week_number ASC").Find(&weeks).Error; err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	enrollment, err := services.NewEnrollmentService(database.Database.Db).GetEnrollment(userID, cohortID)
	if err != nil && !errors.Is(err, services.ErrNotEnrolled) {
		return middleware.DomainErrorResponse(c, err)
	}

	weekStates := make([]fiber.Map, 0, len(weeks))
	for i := range weeks {
		state := fiber.Map{
			"week":                  weeks[i],
			"is_unlocked":           false,
			"completion_percentage": 0.0,
		}
		if enrollment != nil {
			var progress cohortModels.UserProgress
			err := database.Database.Db.
				Where("user_id = ? AND week_id = ?", userID, weeks[i].ID).
				First(&progress).Error
			if err == nil {
				state["is_unlocked"] = progress.IsUnlocked
				state["completion_percentage"] = progress.CompletionPercentage
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return middleware.DomainErrorResponse(c, err)
			}
		}
		weekStates = append(weekStates, state)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Cohort fetched!", fiber.Map{
		"cohort":     cohort,
		"weeks":      weekStates,
		"enrollment": enrollment,
	})
}

// Enroll joins the current user to a cohort and unlocks its first week
func Enroll(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	cohortID := c.Locals("cohortID").(uint)

	enrollment, err := services.NewEnrollmentService(database.Database.Db).Enroll(userID, cohortID)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrolled!", enrollment)
}

// Withdraw marks the enrollment WITHDRAWN, keeping the progress rows
func Withdraw(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	cohortID := c.Locals("cohortID").(uint)

	enrollment, err := services.NewEnrollmentService(database.Database.Db).Withdraw(userID, cohortID)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Withdrawn from cohort.", enrollment)
}

// MyEnrollments lists the caller's enrollments with their cohorts
func MyEnrollments(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var enrollments []cohortModels.Enrollment
	if err := database.Database.Db.
		Where("user_id = ?", userID).
		Order("created_at DESC").Find(&enrollments).Error; err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	result := make([]fiber.Map, 0, len(enrollments))
	for i := range enrollments {
		var cohort cohortModels.Cohort
		if err := database.Database.Db.First(&cohort, enrollments[i].CohortID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return middleware.DomainErrorResponse(c, err)
		}
		result = append(result, fiber.Map{
			"enrollment": enrollments[i],
			"cohort":     cohort,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched!", result)
}

// GetWeekContent returns the full content tree of an unlocked week. Locked
// weeks respond with the unlock requirements instead of content.
func GetWeekContent(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	weekID := c.Locals("weekID").(uint)

	var week cohortModels.Week
	err := database.Database.Db.
		Where("id = ? AND is_published = ? AND is_deleted = ?", weekID, true, false).
		First(&week).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Week not found!", nil)
	}
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	weeks := services.NewWeekUnlockService(database.Database.Db)
	unlocked, err := weeks.IsWeekUnlocked(userID, weekID)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}
	if !unlocked {
		evaluation, err := weeks.Evaluate(userID, &week)
		if err != nil {
			return middleware.DomainErrorResponse(c, err)
		}
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Week is locked.", fiber.Map{
			"can_unlock":   evaluation.CanUnlock,
			"requirements": evaluation.Requirements,
		})
	}

	var modules []cohortModels.Module
	if err := database.Database.Db.
		Where("week_id = ? AND is_deleted = ?", weekID, false).
		Order("order_index ASC").Find(&modules).Error; err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	moduleTrees := make([]fiber.Map, 0, len(modules))
	for i := range modules {
		var lessons []cohortModels.Lesson
		if err := database.Database.Db.
			Where("module_id = ? AND is_published = ? AND is_deleted = ?", modules[i].ID, true, false).
			Order("order_index ASC").Find(&lessons).Error; err != nil {
			return middleware.DomainErrorResponse(c, err)
		}

		lessonTrees := make([]fiber.Map, 0, len(lessons))
		for j := range lessons {
			var topics []cohortModels.Topic
			if err := database.Database.Db.
				Where("lesson_id = ? AND is_published = ? AND is_deleted = ?", lessons[j].ID, true, false).
				Order("order_index ASC").Find(&topics).Error; err != nil {
				return middleware.DomainErrorResponse(c, err)
			}

			var blocks []cohortModels.LessonBlock
			if err := database.Database.Db.
				Where("lesson_id = ? AND is_deleted = ?", lessons[j].ID, false).
				Order("order_index ASC").Find(&blocks).Error; err != nil {
				return middleware.DomainErrorResponse(c, err)
			}

			lessonTrees = append(lessonTrees, fiber.Map{
				"lesson": lessons[j],
				"topics": topics,
				"blocks": blocks,
			})
		}

		moduleTrees = append(moduleTrees, fiber.Map{
			"module":  modules[i],
			"lessons": lessonTrees,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Week content fetched!", fiber.Map{
		"week":    week,
		"modules": moduleTrees,
	})
}

// RequestCertificate issues (or re-returns) the completion certificate
func RequestCertificate(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	cohortID := c.Locals("cohortID").(uint)

	certificate, err := services.NewEnrollmentService(database.Database.Db).IssueCertificate(userID, cohortID)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate issued!", certificate)
}
