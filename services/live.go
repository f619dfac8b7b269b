package services

import (
	"errors"
	"log"
	"time"

	"lms/models"
	cohortModels "lms/models/cohort"
	"lms/utils"

	"gorm.io/gorm"
)

// LiveService owns the live-class state machine (SCHEDULED -> LIVE -> ENDED)
// and the attendance facts that feed lesson progress
type LiveService struct {
	db      *gorm.DB
	now     func() time.Time
	ledger  *CoinLedger
	lessons *LessonService
	weeks   *WeekUnlockService
}

func NewLiveService(db *gorm.DB) *LiveService {
	return &LiveService{
		db:      db,
		now:     time.Now,
		ledger:  NewCoinLedger(db),
		lessons: NewLessonService(db),
		weeks:   NewWeekUnlockService(db),
	}
}

func (s *LiveService) findSession(sessionID uint) (*cohortModels.LiveSession, error) {
	var session cohortModels.LiveSession
	if err := s.db.Where("id = ? AND is_deleted = ?", sessionID, false).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// StartSession moves a scheduled session live and creates the meeting at the
// external provider. Starting anything but a SCHEDULED session is an invalid
// transition.
func (s *LiveService) StartSession(sessionID uint) (*cohortModels.LiveSession, error) {
	session, err := s.findSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != "SCHEDULED" {
		return nil, ErrInvalidStateTransition
	}

	meeting, err := utils.CreateMeeting(session.Title)
	if err != nil {
		// The class still proceeds without the external meeting; the ref
		// stays empty and can be attached manually
		log.Printf("Error creating meeting for session %d: %v", sessionID, err)
	} else {
		session.MeetingRef = meeting.Ref
		session.MeetingJoinURL = meeting.JoinURL
	}

	now := s.now()
	session.Status = "LIVE"
	session.StartedAt = &now
	if err := s.db.Save(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// EndSession closes a live session, ends the provider meeting and finalizes
// every open attendance. Ending a session that is not live is an invalid
// transition.
func (s *LiveService) EndSession(sessionID uint) (*cohortModels.LiveSession, error) {
	session, err := s.findSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != "LIVE" {
		return nil, ErrInvalidStateTransition
	}

	if session.MeetingRef != "" {
		if err := utils.EndMeeting(session.MeetingRef); err != nil {
			log.Printf("Error ending meeting %s: %v", session.MeetingRef, err)
		}
	}

	now := s.now()
	session.Status = "ENDED"
	session.EndedAt = &now
	if err := s.db.Save(session).Error; err != nil {
		return nil, err
	}

	// Close out everyone still marked present
	var open []cohortModels.LiveAttendance
	if err := s.db.Where("live_session_id = ? AND left_at IS NULL", sessionID).Find(&open).Error; err != nil {
		return nil, err
	}
	for i := range open {
		if err := s.closeAttendance(&open[i], session, now); err != nil {
			log.Printf("Error finalizing attendance %d: %v", open[i].ID, err)
		}
	}
	return session, nil
}

// Join records the student's entry into a live session. Re-joining returns
// the existing attendance row.
func (s *LiveService) Join(userID, sessionID uint) (*cohortModels.LiveAttendance, error) {
	session, err := s.findSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != "LIVE" {
		return nil, ErrInvalidStateTransition
	}

	attendance := cohortModels.LiveAttendance{UserID: userID, LiveSessionID: sessionID}
	err = s.db.Where("user_id = ? AND live_session_id = ?", userID, sessionID).
		Attrs(cohortModels.LiveAttendance{JoinedAt: s.now()}).
		FirstOrCreate(&attendance).Error
	if err != nil && isDuplicateKey(err) {
		err = s.db.Where("user_id = ? AND live_session_id = ?", userID, sessionID).First(&attendance).Error
	}
	if err != nil {
		return nil, err
	}
	return &attendance, nil
}

// Leave closes the student's attendance and, when the stay met the session's
// minimum duration, records the completion fact and reward
func (s *LiveService) Leave(userID, sessionID uint) (*cohortModels.LiveAttendance, error) {
	session, err := s.findSession(sessionID)
	if err != nil {
		return nil, err
	}

	var attendance cohortModels.LiveAttendance
	err = s.db.Where("user_id = ? AND live_session_id = ?", userID, sessionID).First(&attendance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidStateTransition
	}
	if err != nil {
		return nil, err
	}
	if attendance.LeftAt != nil {
		return &attendance, nil
	}

	if err := s.closeAttendance(&attendance, session, s.now()); err != nil {
		return nil, err
	}
	return &attendance, nil
}

// closeAttendance stamps the exit time and, once per (user, session), turns a
// long enough stay into a completion plus coins
func (s *LiveService) closeAttendance(attendance *cohortModels.LiveAttendance, session *cohortModels.LiveSession, at time.Time) error {
	attendance.LeftAt = &at
	duration := int(at.Sub(attendance.JoinedAt).Seconds())
	if duration > attendance.DurationSeconds {
		attendance.DurationSeconds = duration
	}

	counted := attendance.DurationSeconds >= session.MinDurationSeconds
	alreadyCounted := attendance.Counted

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		if counted && !alreadyCounted {
			attendance.Counted = true

			block, err := findBlock(tx, session.BlockID)
			if err != nil {
				return err
			}
			awarded, err := s.ledger.Award(tx, attendance.UserID, block.CoinReward, models.CoinSourceLiveAttendance, session.ID, "Attended live class: "+session.Title, nil)
			if err != nil {
				return err
			}
			attendance.CoinsAwarded = awarded

			input := BlockCompletionInput{
				ScorePercentage: 100,
				Passed:          true,
				IsCompleted:     true,
			}
			if _, err := s.lessons.appendBlockAttemptNoReward(tx, attendance.UserID, block, input); err != nil {
				return err
			}
		}
		return tx.Save(attendance).Error
	})
	if txErr != nil {
		return txErr
	}

	if counted && !alreadyCounted {
		var block cohortModels.LessonBlock
		if err := s.db.Where("id = ?", session.BlockID).First(&block).Error; err == nil {
			if weekID, err := weekIDForLesson(s.db, block.LessonID); err == nil {
				s.weeks.CascadeFrom(attendance.UserID, weekID)
			}
		}
	}
	return nil
}
