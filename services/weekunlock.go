package services

import (
	"errors"
	"log"
	"time"

	"lms/config"
	"lms/models"
	cohortModels "lms/models/cohort"
	"lms/utils"

	"gorm.io/gorm"
)

// UnlockRequirement reports one gating rule, its threshold and the user's
// current value against it
type UnlockRequirement struct {
	Rule      string  `json:"rule"`
	Threshold float64 `json:"threshold"`
	Current   float64 `json:"current"`
	Satisfied bool    `json:"satisfied"`
}

// UnlockEvaluation is the result of evaluating every unlock rule for one
// (user, week). The same evaluation backs both the unlock decision and the
// requirements summary shown to students, so the two can never disagree.
type UnlockEvaluation struct {
	CanUnlock      bool                `json:"can_unlock"`
	DeadlinePassed bool                `json:"deadline_passed"`
	Requirements   []UnlockRequirement `json:"requirements"`
}

// WeekUnlockService owns the per-(user, week) unlock state machine:
// Locked -> Unlocked, one way. Recomputation updates percentages but never
// retracts an unlock.
type WeekUnlockService struct {
	db      *gorm.DB
	now     func() time.Time
	ledger  *CoinLedger
	modules *ModuleService
}

func NewWeekUnlockService(db *gorm.DB) *WeekUnlockService {
	return &WeekUnlockService{
		db:      db,
		now:     time.Now,
		ledger:  NewCoinLedger(db),
		modules: NewModuleService(db),
	}
}

func defaultMinProgress() float64 {
	if config.AppConfig != nil {
		return float64(config.AppConfig.DefaultWeekMinProgress)
	}
	return 90
}

// IsWeekUnlocked reads the stored unlock flag
func (s *WeekUnlockService) IsWeekUnlocked(userID, weekID uint) (bool, error) {
	var progress cohortModels.UserProgress
	err := s.db.Where("user_id = ? AND week_id = ?", userID, weekID).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return progress.IsUnlocked, nil
}

// WeekProgress computes the week's completion as the average of its modules'
// percentages, always from source rows
func (s *WeekUnlockService) WeekProgress(userID, weekID uint) (float64, error) {
	modules, err := publishedModules(s.db, weekID)
	if err != nil {
		return 0, err
	}
	if len(modules) == 0 {
		return 0, nil
	}

	sum := float64(0)
	for _, mod := range modules {
		mp, err := s.modules.CalculateModuleProgress(userID, mod.ID)
		if err != nil {
			return 0, err
		}
		sum += mp.Percentage
	}
	return sum / float64(len(modules)), nil
}

// previousWeek returns the published week preceding this one by week_number,
// or nil for the cohort's first week
func (s *WeekUnlockService) previousWeek(week *cohortModels.Week) (*cohortModels.Week, error) {
	var prev cohortModels.Week
	err := s.db.Where("cohort_id = ? AND week_number < ? AND is_deleted = ? AND is_published = ?",
		week.CohortID, week.WeekNumber, false, true).
		Order("week_number desc").First(&prev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &prev, nil
}

// Evaluate runs every unlock rule for (user, week). CanUnlockWeek and the
// requirements summary both come from here.
func (s *WeekUnlockService) Evaluate(userID uint, week *cohortModels.Week) (*UnlockEvaluation, error) {
	eval := &UnlockEvaluation{CanUnlock: true}

	prev, err := s.previousWeek(week)
	if err != nil {
		return nil, err
	}

	// Rule 1: sequential prerequisite - the previous week must already be
	// unlocked. The first week has no prerequisite.
	if week.Sequential {
		satisfied := true
		current := float64(1)
		if prev != nil {
			unlocked, err := s.IsWeekUnlocked(userID, prev.ID)
			if err != nil {
				return nil, err
			}
			satisfied = unlocked
			if !unlocked {
				current = 0
			}
		}
		eval.Requirements = append(eval.Requirements, UnlockRequirement{
			Rule: "sequential", Threshold: 1, Current: current, Satisfied: satisfied,
		})
		if !satisfied {
			eval.CanUnlock = false
		}
	}

	// Rule 2: minimum completion of the previous week
	minProgress := defaultMinProgress()
	if week.MinProgress != nil {
		minProgress = *week.MinProgress
	}
	prevProgress := float64(100)
	if prev != nil {
		prevProgress, err = s.WeekProgress(userID, prev.ID)
		if err != nil {
			return nil, err
		}
	}
	progressOK := prevProgress >= minProgress
	eval.Requirements = append(eval.Requirements, UnlockRequirement{
		Rule: "min_progress", Threshold: minProgress, Current: prevProgress, Satisfied: progressOK,
	})
	if !progressOK {
		eval.CanUnlock = false
	}

	// Rule 3: minimum coin balance
	balance, err := s.ledger.GetBalance(userID)
	if err != nil {
		return nil, err
	}
	coinsOK := balance >= week.MinCoins
	eval.Requirements = append(eval.Requirements, UnlockRequirement{
		Rule: "min_coins", Threshold: float64(week.MinCoins), Current: float64(balance), Satisfied: coinsOK,
	})
	if !coinsOK {
		eval.CanUnlock = false
	}

	// Rule 4: deadline. A passed deadline never blocks unlocking; it is
	// surfaced as a warning for reporting only.
	if week.DeadlineAt != nil && s.now().After(*week.DeadlineAt) {
		eval.DeadlinePassed = true
	}

	return eval, nil
}

// CanUnlockWeek evaluates all unlock rules and reports the verdict
func (s *WeekUnlockService) CanUnlockWeek(userID uint, week *cohortModels.Week) (bool, error) {
	eval, err := s.Evaluate(userID, week)
	if err != nil {
		return false, err
	}
	return eval.CanUnlock, nil
}

// UnlockWeek flips the unlock flag for (user, week). Idempotent: an already
// unlocked week returns the stored row without mutation. The flag is never
// set back to false.
func (s *WeekUnlockService) UnlockWeek(userID, weekID uint) (*cohortModels.UserProgress, error) {
	var progress cohortModels.UserProgress
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND week_id = ?", userID, weekID).
			FirstOrCreate(&progress, cohortModels.UserProgress{UserID: userID, WeekID: weekID}).Error
		if err != nil && isDuplicateKey(err) {
			err = tx.Where("user_id = ? AND week_id = ?", userID, weekID).First(&progress).Error
		}
		if err != nil {
			return err
		}
		if progress.IsUnlocked {
			return nil
		}
		now := s.now()
		progress.IsUnlocked = true
		progress.UnlockedAt = &now
		return tx.Save(&progress).Error
	})
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// TryUnlockWeek evaluates the gate and performs the unlock, returning
// ErrWeekLocked when the rules are not met. Already unlocked weeks succeed
// without re-evaluation.
func (s *WeekUnlockService) TryUnlockWeek(userID, weekID uint) (*cohortModels.UserProgress, error) {
	unlocked, err := s.IsWeekUnlocked(userID, weekID)
	if err != nil {
		return nil, err
	}
	if unlocked {
		return s.UnlockWeek(userID, weekID)
	}

	week, err := findWeek(s.db, weekID)
	if err != nil {
		return nil, err
	}
	ok, err := s.CanUnlockWeek(userID, week)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrWeekLocked
	}
	return s.UnlockWeek(userID, weekID)
}

// UnlockFirstWeek opens the cohort's first published week at enrollment time
func (s *WeekUnlockService) UnlockFirstWeek(userID, cohortID uint) error {
	weeks, err := publishedWeeks(s.db, cohortID)
	if err != nil {
		return err
	}
	if len(weeks) == 0 {
		return nil
	}
	_, err = s.UnlockWeek(userID, weeks[0].ID)
	return err
}

// RecalculateWeekProgress recomputes the stored completion percentage for
// (user, week) from module aggregates. It deliberately never touches
// IsUnlocked: unlocking is a one-way gate decided only by CanUnlockWeek, and
// a later drop in recomputed percentage (a data correction, an unpublished
// topic) must not retract it.
func (s *WeekUnlockService) RecalculateWeekProgress(userID, weekID uint) (float64, error) {
	percentage, err := s.WeekProgress(userID, weekID)
	if err != nil {
		return 0, err
	}

	var progress cohortModels.UserProgress
	err = s.db.Where("user_id = ? AND week_id = ?", userID, weekID).
		FirstOrCreate(&progress, cohortModels.UserProgress{UserID: userID, WeekID: weekID}).Error
	if err != nil && isDuplicateKey(err) {
		err = s.db.Where("user_id = ? AND week_id = ?", userID, weekID).First(&progress).Error
	}
	if err != nil {
		return 0, err
	}

	err = s.db.Model(&cohortModels.UserProgress{}).
		Where("id = ?", progress.ID).
		UpdateColumn("completion_percentage", percentage).Error
	return percentage, err
}

// CascadeFrom runs the upward recomputation after a completion event in the
// given week: week percentage, enrollment percentage, then the next week's
// gate. Every step recomputes from source rows, so concurrent cascades
// converge to the same result.
func (s *WeekUnlockService) CascadeFrom(userID, weekID uint) {
	if _, err := s.RecalculateWeekProgress(userID, weekID); err != nil {
		log.Printf("Error recalculating week %d progress for user %d: %v", weekID, userID, err)
		return
	}

	week, err := findWeek(s.db, weekID)
	if err != nil {
		log.Printf("Error loading week %d: %v", weekID, err)
		return
	}

	if err := s.recalculateEnrollment(userID, week.CohortID); err != nil {
		log.Printf("Error recalculating enrollment for user %d cohort %d: %v", userID, week.CohortID, err)
	}

	if err := s.autoUnlockNext(userID, week); err != nil {
		log.Printf("Error evaluating next week unlock for user %d: %v", userID, err)
	}
}

// recalculateEnrollment refreshes the denormalized completion percentage on
// the enrollment row (average over published weeks) and flips the status to
// COMPLETED at 100%
func (s *WeekUnlockService) recalculateEnrollment(userID, cohortID uint) error {
	weeks, err := publishedWeeks(s.db, cohortID)
	if err != nil || len(weeks) == 0 {
		return err
	}

	sum := float64(0)
	for _, week := range weeks {
		p, err := s.WeekProgress(userID, week.ID)
		if err != nil {
			return err
		}
		sum += p
	}
	percentage := sum / float64(len(weeks))

	var enrollment cohortModels.Enrollment
	err = s.db.Where("user_id = ? AND cohort_id = ?", userID, cohortID).First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if enrollment.Status == "WITHDRAWN" {
		return nil
	}

	enrollment.CompletionPercentage = percentage
	if percentage >= 100 && enrollment.CompletedAt == nil {
		now := s.now()
		enrollment.Status = "COMPLETED"
		enrollment.CompletedAt = &now
	}
	return s.db.Save(&enrollment).Error
}

// autoUnlockNext re-evaluates the gate of the week following the one that
// just progressed and unlocks it when the rules are met
func (s *WeekUnlockService) autoUnlockNext(userID uint, week *cohortModels.Week) error {
	var next cohortModels.Week
	err := s.db.Where("cohort_id = ? AND week_number > ? AND is_deleted = ? AND is_published = ?",
		week.CohortID, week.WeekNumber, false, true).
		Order("week_number asc").First(&next).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	unlocked, err := s.IsWeekUnlocked(userID, next.ID)
	if err != nil || unlocked {
		return err
	}

	ok, err := s.CanUnlockWeek(userID, &next)
	if err != nil || !ok {
		return err
	}
	if _, err := s.UnlockWeek(userID, next.ID); err != nil {
		return err
	}

	// Notify the student, best effort
	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err == nil {
		go utils.SendWeekUnlockedEmail(user.Email, user.Name, next.Title)
	}
	return nil
}
