package adminController

import (
	"encoding/json"
	"errors"
	"time"

	"lms/database"
	"lms/middleware"
	cohortModels "lms/models/cohort"
	"lms/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PendingAssignments lists submissions waiting for review
func PendingAssignments(c *fiber.Ctx) error {
	submissions, err := services.NewAssignmentService(database.Database.Db).PendingSubmissions(50)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Pending submissions fetched!", submissions)
}

// ReviewAssignment approves or rejects a pending submission. Approval pays the
// block reward and records the completion.
func ReviewAssignment(c *fiber.Ctx) error {
	reviewerID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	submissionID := c.Locals("submissionID").(uint)

	reqData, ok := c.Locals("validatedReview").(*struct {
		Approve         bool   `json:"approve"`
		Score           int    `json:"score" validate:"min=0,max=100"`
		RejectionReason string `json:"rejection_reason"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	submission, err := services.NewAssignmentService(database.Database.Db).
		Review(reviewerID, submissionID, reqData.Approve, reqData.Score, reqData.RejectionReason)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Submission reviewed!", submission)
}

// ScheduleLiveSession creates a session for a LIVE block and points the block
// payload at it
func ScheduleLiveSession(c *fiber.Ctx) error {
	blockID := c.Locals("blockID").(uint)

	reqData := new(struct {
		Title              string `json:"title"`
		ScheduledAt        string `json:"scheduled_at"`
		MinDurationSeconds int    `json:"min_duration_seconds"`
	})
	if err := c.BodyParser(reqData); err != nil || reqData.ScheduledAt == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	scheduledAt, err := time.Parse(time.RFC3339, reqData.ScheduledAt)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid scheduled_at!", nil)
	}

	var block cohortModels.LessonBlock
	err = database.Database.Db.Where("id = ? AND is_deleted = ?", blockID, false).First(&block).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Block not found!", nil)
	}
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}
	if block.BlockType != cohortModels.BlockTypeLive {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Block is not a live block!", nil)
	}

	session := cohortModels.LiveSession{
		BlockID:            blockID,
		Title:              reqData.Title,
		Status:             "SCHEDULED",
		ScheduledAt:        scheduledAt,
		MinDurationSeconds: 600,
	}
	if reqData.MinDurationSeconds > 0 {
		session.MinDurationSeconds = reqData.MinDurationSeconds
	}

	err = database.Database.Db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&session).Error; err != nil {
			return err
		}
		payload, err := json.Marshal(cohortModels.LivePayload{LiveSessionID: session.ID})
		if err != nil {
			return err
		}
		return tx.Model(&cohortModels.LessonBlock{}).Where("id = ?", blockID).
			Update("payload", datatypes.JSON(payload)).Error
	})
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Live session scheduled!", session)
}

// StartLiveSession moves the session to LIVE and opens the external meeting
func StartLiveSession(c *fiber.Ctx) error {
	sessionID := c.Locals("sessionID").(uint)

	session, err := services.NewLiveService(database.Database.Db).StartSession(sessionID)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Session started!", session)
}

// EndLiveSession closes the session and every open attendance
func EndLiveSession(c *fiber.Ctx) error {
	sessionID := c.Locals("sessionID").(uint)

	session, err := services.NewLiveService(database.Database.Db).EndSession(sessionID)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Session ended!", session)
}

// AdjustCoins appends a manual ledger entry for a user. The client-supplied
// reference id keeps retries idempotent.
func AdjustCoins(c *fiber.Ctx) error {
	targetUserID := c.Locals("targetUserID").(uint)

	reqData, ok := c.Locals("validatedCoinAdjustment").(*struct {
		Amount      int    `json:"amount" validate:"required"`
		Reason      string `json:"reason" validate:"required"`
		ReferenceID uint   `json:"reference_id" validate:"required"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	txn, err := services.NewCoinLedger(database.Database.Db).
		Adjust(targetUserID, reqData.Amount, reqData.ReferenceID, reqData.Reason)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Adjustment recorded!", txn)
}
