package adminController

import (
	"encoding/json"
	"errors"
	"time"

	"lms/database"
	"lms/middleware"
	cohortModels "lms/models/cohort"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// nextOrderIndex appends new content after the current last sibling
func nextOrderIndex(model interface{}, parentColumn string, parentID uint) (int, error) {
	var max int
	err := database.Database.Db.Model(model).
		Where(parentColumn+" = ? AND is_deleted = ?", parentID, false).
		Select("COALESCE(MAX(order_index), 0)").
		Scan(&max).Error
	return max + 1, err
}

func CreateCohort(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedCohort").(*struct {
		Title       string `json:"title" validate:"required,min=3"`
		Description string `json:"description"`
		StartDate   string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	cohort := cohortModels.Cohort{
		Title:       reqData.Title,
		Description: reqData.Description,
		Status:      "DRAFT",
	}
	if reqData.StartDate != "" {
		startDate, _ := time.Parse("2006-01-02", reqData.StartDate)
		cohort.StartDate = &startDate
	}

	if err := database.Database.Db.Create(&cohort).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create cohort!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Cohort created!", cohort)
}

// PublishCohort makes the cohort visible and open for enrollment
func PublishCohort(c *fiber.Ctx) error {
	cohortID := c.Locals("cohortID").(uint)

	var cohort cohortModels.Cohort
	err := database.Database.Db.Where("id = ? AND is_deleted = ?", cohortID, false).First(&cohort).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Cohort not found!", nil)
	}
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	cohort.IsPublished = true
	cohort.Status = "ACTIVE"
	if err := database.Database.Db.Save(&cohort).Error; err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Cohort published!", cohort)
}

func CreateWeek(c *fiber.Ctx) error {
	cohortID := c.Locals("cohortID").(uint)

	reqData, ok := c.Locals("validatedWeek").(*struct {
		WeekNumber  int      `json:"week_number" validate:"required,min=1"`
		Title       string   `json:"title" validate:"required"`
		Description string   `json:"description"`
		Sequential  *bool    `json:"sequential"`
		MinProgress *float64 `json:"min_progress" validate:"omitempty,min=0,max=100"`
		MinCoins    int      `json:"min_coins" validate:"min=0"`
		DeadlineAt  string   `json:"deadline_at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	week := cohortModels.Week{
		CohortID:    cohortID,
		WeekNumber:  reqData.WeekNumber,
		Title:       reqData.Title,
		Description: reqData.Description,
		Sequential:  true,
		MinProgress: reqData.MinProgress,
		MinCoins:    reqData.MinCoins,
	}
	if reqData.Sequential != nil {
		week.Sequential = *reqData.Sequential
	}
	if reqData.DeadlineAt != "" {
		deadline, _ := time.Parse(time.RFC3339, reqData.DeadlineAt)
		week.DeadlineAt = &deadline
	}

	if err := database.Database.Db.Create(&week).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create week!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Week created!", week)
}

func PublishWeek(c *fiber.Ctx) error {
	weekID := c.Locals("weekID").(uint)

	var week cohortModels.Week
	err := database.Database.Db.Where("id = ? AND is_deleted = ?", weekID, false).First(&week).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Week not found!", nil)
	}
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	week.IsPublished = true
	if err := database.Database.Db.Save(&week).Error; err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Week published!", week)
}

func CreateModule(c *fiber.Ctx) error {
	weekID := c.Locals("weekID").(uint)

	reqData := new(struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	})
	if err := c.BodyParser(reqData); err != nil || reqData.Title == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	orderIndex, err := nextOrderIndex(&cohortModels.Module{}, "week_id", weekID)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	module := cohortModels.Module{
		WeekID:      weekID,
		Title:       reqData.Title,
		Description: reqData.Description,
		OrderIndex:  orderIndex,
	}
	if err := database.Database.Db.Create(&module).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create module!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Module created!", module)
}

func CreateLesson(c *fiber.Ctx) error {
	moduleID := c.Locals("moduleID").(uint)

	reqData := new(struct {
		Title                  string `json:"title"`
		Description            string `json:"description"`
		MinTimeRequiredSeconds int    `json:"min_time_required_seconds"`
	})
	if err := c.BodyParser(reqData); err != nil || reqData.Title == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	orderIndex, err := nextOrderIndex(&cohortModels.Lesson{}, "module_id", moduleID)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	lesson := cohortModels.Lesson{
		ModuleID:               moduleID,
		Title:                  reqData.Title,
		Description:            reqData.Description,
		MinTimeRequiredSeconds: reqData.MinTimeRequiredSeconds,
		OrderIndex:             orderIndex,
		IsPublished:            true,
	}
	if err := database.Database.Db.Create(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create lesson!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson created!", lesson)
}

func CreateTopic(c *fiber.Ctx) error {
	lessonID := c.Locals("lessonID").(uint)

	reqData := new(struct {
		Title                  string `json:"title"`
		Description            string `json:"description"`
		ContentType            string `json:"content_type"`
		TextContent            string `json:"text_content"`
		VideoURL               string `json:"video_url"`
		ImageURL               string `json:"image_url"`
		MinTimeRequiredSeconds int    `json:"min_time_required_seconds"`
		CoinReward             *int   `json:"coin_reward"`
	})
	if err := c.BodyParser(reqData); err != nil || reqData.Title == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	orderIndex, err := nextOrderIndex(&cohortModels.Topic{}, "lesson_id", lessonID)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	contentType := reqData.ContentType
	if contentType == "" {
		contentType = "VIDEO"
	}

	topic := cohortModels.Topic{
		LessonID:               lessonID,
		Title:                  reqData.Title,
		Description:            reqData.Description,
		ContentType:            contentType,
		TextContent:            reqData.TextContent,
		VideoURL:               reqData.VideoURL,
		ImageURL:               reqData.ImageURL,
		MinTimeRequiredSeconds: reqData.MinTimeRequiredSeconds,
		CoinReward:             10,
		OrderIndex:             orderIndex,
		IsPublished:            true,
	}
	if reqData.CoinReward != nil {
		topic.CoinReward = *reqData.CoinReward
	}

	if err := database.Database.Db.Create(&topic).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create topic!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Topic created!", topic)
}

// CreateBlock appends a lesson block. The payload is validated against the
// block type before saving so a broken tagged union never reaches students.
func CreateBlock(c *fiber.Ctx) error {
	lessonID := c.Locals("lessonID").(uint)

	reqData := new(struct {
		BlockType  string          `json:"block_type"`
		Title      string          `json:"title"`
		CoinReward *int            `json:"coin_reward"`
		Payload    json.RawMessage `json:"payload"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	orderIndex, err := nextOrderIndex(&cohortModels.LessonBlock{}, "lesson_id", lessonID)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	block := cohortModels.LessonBlock{
		LessonID:    lessonID,
		BlockType:   cohortModels.BlockType(reqData.BlockType),
		Title:       reqData.Title,
		OrderIndex:  orderIndex,
		CoinReward:  10,
		Payload:     datatypes.JSON(reqData.Payload),
		IsPublished: true,
	}
	if reqData.CoinReward != nil {
		block.CoinReward = *reqData.CoinReward
	}

	if _, err := block.DecodePayload(); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid block payload!", nil)
	}

	if err := database.Database.Db.Create(&block).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create block!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Block created!", block)
}

func CreateQuiz(c *fiber.Ctx) error {
	weekID := c.Locals("weekID").(uint)

	reqData, ok := c.Locals("validatedQuiz").(*struct {
		Title            string  `json:"title" validate:"required"`
		Description      string  `json:"description"`
		MaxAttempts      int     `json:"max_attempts" validate:"min=0"`
		PassingScore     float64 `json:"passing_score" validate:"min=0,max=100"`
		TimeLimitSeconds int     `json:"time_limit_seconds" validate:"min=0"`
		IsRandomized     bool    `json:"is_randomized"`
		CoinReward       int     `json:"coin_reward" validate:"min=0"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	quiz := cohortModels.Quiz{
		WeekID:           weekID,
		Title:            reqData.Title,
		Description:      reqData.Description,
		MaxAttempts:      3,
		PassingScore:     70,
		TimeLimitSeconds: reqData.TimeLimitSeconds,
		IsRandomized:     reqData.IsRandomized,
		CoinReward:       25,
	}
	if reqData.MaxAttempts > 0 {
		quiz.MaxAttempts = reqData.MaxAttempts
	}
	if reqData.PassingScore > 0 {
		quiz.PassingScore = reqData.PassingScore
	}
	if reqData.CoinReward > 0 {
		quiz.CoinReward = reqData.CoinReward
	}

	if err := database.Database.Db.Create(&quiz).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create quiz!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz created!", quiz)
}

func PublishQuiz(c *fiber.Ctx) error {
	quizID := c.Locals("quizID").(uint)

	var quiz cohortModels.Quiz
	err := database.Database.Db.Where("id = ? AND is_deleted = ?", quizID, false).First(&quiz).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found!", nil)
	}
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	quiz.IsPublished = true
	if err := database.Database.Db.Save(&quiz).Error; err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz published!", quiz)
}

func AddQuizQuestion(c *fiber.Ctx) error {
	quizID := c.Locals("quizID").(uint)

	reqData, ok := c.Locals("validatedQuestion").(*struct {
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
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	options, err := json.Marshal(reqData.Options)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid options!", nil)
	}
	correctAnswers, err := json.Marshal(reqData.CorrectAnswers)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid correct answers!", nil)
	}

	question := cohortModels.QuizQuestion{
		QuizID:         quizID,
		QuestionType:   cohortModels.QuestionType(reqData.QuestionType),
		QuestionText:   reqData.QuestionText,
		Options:        datatypes.JSON(options),
		CorrectAnswers: datatypes.JSON(correctAnswers),
		Points:         reqData.Points,
		OrderIndex:     reqData.OrderIndex,
	}
	if err := database.Database.Db.Create(&question).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create question!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Question added!", question)
}
