package services

import (
	cohortModels "lms/models/cohort"

	"gorm.io/gorm"
)

// Explicit read-only lookups over the content hierarchy. The engine never
// walks lazy relations; each service fetches exactly the slice of the
// hierarchy it needs through these helpers.

func findTopic(db *gorm.DB, topicID uint) (*cohortModels.Topic, error) {
	var topic cohortModels.Topic
	if err := db.Where("id = ? AND is_deleted = ? AND is_published = ?", topicID, false, true).First(&topic).Error; err != nil {
		return nil, err
	}
	return &topic, nil
}

func findLesson(db *gorm.DB, lessonID uint) (*cohortModels.Lesson, error) {
	var lesson cohortModels.Lesson
	if err := db.Where("id = ? AND is_deleted = ? AND is_published = ?", lessonID, false, true).First(&lesson).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func findBlock(db *gorm.DB, blockID uint) (*cohortModels.LessonBlock, error) {
	var block cohortModels.LessonBlock
	if err := db.Where("id = ? AND is_deleted = ? AND is_published = ?", blockID, false, true).First(&block).Error; err != nil {
		return nil, err
	}
	return &block, nil
}

func findWeek(db *gorm.DB, weekID uint) (*cohortModels.Week, error) {
	var week cohortModels.Week
	if err := db.Where("id = ? AND is_deleted = ? AND is_published = ?", weekID, false, true).First(&week).Error; err != nil {
		return nil, err
	}
	return &week, nil
}

// weekIDForLesson resolves lesson -> module -> week
func weekIDForLesson(db *gorm.DB, lessonID uint) (uint, error) {
	var moduleID uint
	err := db.Model(&cohortModels.Lesson{}).Where("id = ?", lessonID).Select("module_id").Scan(&moduleID).Error
	if err != nil {
		return 0, err
	}
	var weekID uint
	err = db.Model(&cohortModels.Module{}).Where("id = ?", moduleID).Select("week_id").Scan(&weekID).Error
	return weekID, err
}

// weekIDForTopic resolves topic -> lesson -> module -> week
func weekIDForTopic(db *gorm.DB, topicID uint) (uint, error) {
	var lessonID uint
	err := db.Model(&cohortModels.Topic{}).Where("id = ?", topicID).Select("lesson_id").Scan(&lessonID).Error
	if err != nil {
		return 0, err
	}
	return weekIDForLesson(db, lessonID)
}

func publishedModules(db *gorm.DB, weekID uint) ([]cohortModels.Module, error) {
	var modules []cohortModels.Module
	err := db.Where("week_id = ? AND is_deleted = ?", weekID, false).Order("order_index asc").Find(&modules).Error
	return modules, err
}

func publishedLessons(db *gorm.DB, moduleID uint) ([]cohortModels.Lesson, error) {
	var lessons []cohortModels.Lesson
	err := db.Where("module_id = ? AND is_deleted = ? AND is_published = ?", moduleID, false, true).Order("order_index asc").Find(&lessons).Error
	return lessons, err
}

func publishedTopics(db *gorm.DB, lessonID uint) ([]cohortModels.Topic, error) {
	var topics []cohortModels.Topic
	err := db.Where("lesson_id = ? AND is_deleted = ? AND is_published = ?", lessonID, false, true).Order("order_index asc").Find(&topics).Error
	return topics, err
}

func publishedBlocks(db *gorm.DB, lessonID uint) ([]cohortModels.LessonBlock, error) {
	var blocks []cohortModels.LessonBlock
	err := db.Where("lesson_id = ? AND is_deleted = ? AND is_published = ?", lessonID, false, true).Order("order_index asc").Find(&blocks).Error
	return blocks, err
}

func publishedWeeks(db *gorm.DB, cohortID uint) ([]cohortModels.Week, error) {
	var weeks []cohortModels.Week
	err := db.Where("cohort_id = ? AND is_deleted = ? AND is_published = ?", cohortID, false, true).Order("week_number asc").Find(&weeks).Error
	return weeks, err
}
