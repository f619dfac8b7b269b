package services

import (
	"gorm.io/gorm"
)

// ModuleProgress is the aggregated view of one module for one user
type ModuleProgress struct {
	ModuleID         uint             `json:"module_id"`
	TotalLessons     int              `json:"total_lessons"`
	CompletedLessons int              `json:"completed_lessons"`
	Percentage       float64          `json:"percentage"`
	Lessons          []LessonProgress `json:"lessons,omitempty"`
}

// ModuleService is a pure aggregation step over lesson progress; it triggers
// no rewards and stores nothing
type ModuleService struct {
	db      *gorm.DB
	lessons *LessonService
}

func NewModuleService(db *gorm.DB) *ModuleService {
	return &ModuleService{db: db, lessons: NewLessonService(db)}
}

// CalculateModuleProgress averages the module's lesson percentages. A lesson
// counts as completed only when it reaches 100% and its time requirement is
// met.
func (s *ModuleService) CalculateModuleProgress(userID, moduleID uint) (*ModuleProgress, error) {
	lessons, err := publishedLessons(s.db, moduleID)
	if err != nil {
		return nil, err
	}

	progress := &ModuleProgress{ModuleID: moduleID, TotalLessons: len(lessons)}
	if len(lessons) == 0 {
		return progress, nil
	}

	sum := float64(0)
	for _, lesson := range lessons {
		lp, err := s.lessons.CalculateLessonProgress(userID, lesson.ID)
		if err != nil {
			return nil, err
		}
		sum += lp.Percentage
		if lp.Percentage >= 100 && lp.TimeRequirementMet {
			progress.CompletedLessons++
		}
		progress.Lessons = append(progress.Lessons, *lp)
	}
	progress.Percentage = sum / float64(len(lessons))

	return progress, nil
}
