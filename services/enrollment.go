package services

import (
	"errors"
	"time"

	"lms/models"
	cohortModels "lms/models/cohort"
	"lms/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EnrollmentService manages cohort membership and the certificate issued at
// 100% completion
type EnrollmentService struct {
	db    *gorm.DB
	now   func() time.Time
	weeks *WeekUnlockService
}

func NewEnrollmentService(db *gorm.DB) *EnrollmentService {
	return &EnrollmentService{db: db, now: time.Now, weeks: NewWeekUnlockService(db)}
}

// Enroll creates the (user, cohort) membership and immediately opens the
// first week's gate. Re-enrolling an active member returns the existing row;
// a withdrawn member is reactivated rather than duplicated.
func (s *EnrollmentService) Enroll(userID, cohortID uint) (*cohortModels.Enrollment, error) {
	var c cohortModels.Cohort
	if err := s.db.Where("id = ? AND is_deleted = ? AND is_published = ? AND status = ?", cohortID, false, true, "ACTIVE").First(&c).Error; err != nil {
		return nil, err
	}

	var enrollment cohortModels.Enrollment
	err := s.db.Where("user_id = ? AND cohort_id = ?", userID, cohortID).First(&enrollment).Error
	switch {
	case err == nil && enrollment.Status == "WITHDRAWN":
		enrollment.Status = "ACTIVE"
		enrollment.WithdrawnAt = nil
		if err := s.db.Save(&enrollment).Error; err != nil {
			return nil, err
		}
	case err == nil:
		return &enrollment, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		enrollment = cohortModels.Enrollment{UserID: userID, CohortID: cohortID, Status: "ACTIVE"}
		if err := s.db.Create(&enrollment).Error; err != nil {
			if isDuplicateKey(err) {
				// Concurrent enrollment; use the winner's row
				if err := s.db.Where("user_id = ? AND cohort_id = ?", userID, cohortID).First(&enrollment).Error; err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
	default:
		return nil, err
	}

	if err := s.weeks.UnlockFirstWeek(userID, cohortID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Withdraw soft-transitions the enrollment. The row and all progress facts
// are kept.
func (s *EnrollmentService) Withdraw(userID, cohortID uint) (*cohortModels.Enrollment, error) {
	var enrollment cohortModels.Enrollment
	err := s.db.Where("user_id = ? AND cohort_id = ?", userID, cohortID).First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotEnrolled
	}
	if err != nil {
		return nil, err
	}
	if enrollment.Status == "WITHDRAWN" {
		return &enrollment, nil
	}

	now := s.now()
	enrollment.Status = "WITHDRAWN"
	enrollment.WithdrawnAt = &now
	if err := s.db.Save(&enrollment).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// GetEnrollment loads the (user, cohort) membership or ErrNotEnrolled
func (s *EnrollmentService) GetEnrollment(userID, cohortID uint) (*cohortModels.Enrollment, error) {
	var enrollment cohortModels.Enrollment
	err := s.db.Where("user_id = ? AND cohort_id = ? AND status <> ?", userID, cohortID, "WITHDRAWN").First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotEnrolled
	}
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// IssueCertificate issues the completion certificate for a finished
// enrollment. Idempotent: an existing certificate is returned as-is.
func (s *EnrollmentService) IssueCertificate(userID, cohortID uint) (*cohortModels.Certificate, error) {
	enrollment, err := s.GetEnrollment(userID, cohortID)
	if err != nil {
		return nil, err
	}
	if enrollment.Status != "COMPLETED" {
		return nil, ErrNotEligible
	}

	var cert cohortModels.Certificate
	err = s.db.Where("user_id = ? AND cohort_id = ? AND is_deleted = ?", userID, cohortID, false).First(&cert).Error
	if err == nil {
		return &cert, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cert = cohortModels.Certificate{
		UserID:            userID,
		CohortID:          cohortID,
		EnrollmentID:      enrollment.ID,
		CertificateNumber: uuid.NewString(),
		IssuedAt:          s.now(),
	}
	if err := s.db.Create(&cert).Error; err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err == nil {
		go utils.SendCertificateEmail(user.Email, user.Name, cert.CertificateNumber)
	}
	return &cert, nil
}
