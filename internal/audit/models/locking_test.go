package models_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"qualityaudit/internal/audit/models"
	id "qualityaudit/pkg/domain"
	dErrors "qualityaudit/pkg/domain-errors"
	"qualityaudit/pkg/platform/clock"
)

type LockingSuite struct {
	suite.Suite
	clk   clock.Fixed
	audit *models.QualityAudit
}

func TestLockingSuite(t *testing.T) {
	suite.Run(t, new(LockingSuite))
}

func (s *LockingSuite) SetupTest() {
	s.clk = fixedAt("2024-06-01")
	s.audit = newAudit()
	_, err := s.audit.RecordEvaluation(id.NewSupervisorID(), models.RatingPositive, day("2024-05-01"), day("2025-05-01"), s.clk)
	s.Require().NoError(err)
}

func (s *LockingSuite) current() *models.Evaluation {
	current, err := s.audit.Current()
	s.Require().NoError(err)
	return current
}

func (s *LockingSuite) TestSuspend() {
	s.Require().NoError(s.audit.SuspendCurrent(s.clk))

	events := s.audit.PopEvents()
	s.Require().Len(events, 1)
	suspended, ok := events[0].(models.EvaluationSuspended)
	s.Require().True(ok)
	s.Equal(s.current().ID(), suspended.EvaluationID())
	s.Equal(s.clk.At, suspended.SuspendedAt)
	s.Equal(models.LockActionSuspended, suspended.Action())

	s.True(s.current().IsSuspended())
	s.True(s.current().IsLocked())
	s.False(s.current().IsActive(s.clk))
	s.Equal(s.clk.At, s.current().Suspension().SuspendedAt)
}

func (s *LockingSuite) TestSuspendUnlockSuspend() {
	s.Require().NoError(s.audit.SuspendCurrent(s.clk))
	s.Require().NoError(s.audit.UnlockCurrent(s.clk))
	s.False(s.current().IsLocked())
	s.Require().NoError(s.audit.SuspendCurrent(s.clk))

	events := s.audit.PopEvents()
	s.Require().Len(events, 3)
	s.Equal(models.LockActionSuspended, events[0].Action())
	s.Equal(models.LockActionUnlocked, events[1].Action())
	s.Equal(models.LockActionSuspended, events[2].Action())
}

func (s *LockingSuite) TestUnlockDrainsOneEvent() {
	s.Require().NoError(s.audit.SuspendCurrent(s.clk))
	s.audit.PopEvents()

	s.Require().NoError(s.audit.UnlockCurrent(s.clk))

	events := s.audit.PopEvents()
	s.Require().Len(events, 1)
	s.IsType(models.EvaluationUnlocked{}, events[0])
	s.Empty(s.audit.PopEvents())
}

func (s *LockingSuite) TestPendingEventsDoesNotDrain() {
	s.Require().NoError(s.audit.SuspendCurrent(s.clk))

	s.Len(s.audit.PendingEvents(), 1)
	s.Len(s.audit.PendingEvents(), 1)
	s.Len(s.audit.PopEvents(), 1)
	s.Empty(s.audit.PendingEvents())
}

func (s *LockingSuite) TestOutboxEntriesKeepOrder() {
	s.Require().NoError(s.audit.SuspendCurrent(s.clk))
	s.Require().NoError(s.audit.UnlockCurrent(s.clk))

	entries := models.NewOutboxEntries(s.audit.PendingEvents())

	s.Require().Len(entries, 2)
	s.Equal(models.LockActionSuspended, entries[0].Event.Action())
	s.Equal(models.LockActionUnlocked, entries[1].Event.Action())
	s.False(entries[0].EventID.IsNil())
	s.NotEqual(entries[0].EventID, entries[1].EventID)
}

func (s *LockingSuite) TestWithdraw() {
	s.Run("from the unlocked state", func() {
		s.Require().NoError(s.audit.WithdrawCurrent(s.clk))

		events := s.audit.PopEvents()
		s.Require().Len(events, 1)
		s.IsType(models.EvaluationWithdrawn{}, events[0])
		s.True(s.current().IsWithdrawn())
	})
}

func (s *LockingSuite) TestWithdrawSuspended() {
	s.Require().NoError(s.audit.SuspendCurrent(s.clk))
	s.audit.PopEvents()

	s.Require().NoError(s.audit.WithdrawCurrent(s.clk))

	events := s.audit.PopEvents()
	s.Require().Len(events, 1)
	s.IsType(models.EvaluationWithdrawn{}, events[0])
	s.True(s.current().IsWithdrawn())
	s.False(s.current().IsSuspended(), "withdrawal clears the suspension")
	s.Require().ErrorIs(s.audit.UnlockCurrent(s.clk), models.ErrCannotUnlock)
}

func (s *LockingSuite) TestRejectedTransitions() {
	s.Run("suspend twice", func() {
		s.SetupTest()
		s.Require().NoError(s.audit.SuspendCurrent(s.clk))
		s.Require().ErrorIs(s.audit.SuspendCurrent(s.clk), models.ErrAlreadySuspended)
	})

	s.Run("withdraw twice", func() {
		s.SetupTest()
		s.Require().NoError(s.audit.WithdrawCurrent(s.clk))
		s.Require().ErrorIs(s.audit.WithdrawCurrent(s.clk), models.ErrAlreadyWithdrawn)
	})

	s.Run("suspend after withdraw", func() {
		s.SetupTest()
		s.Require().NoError(s.audit.WithdrawCurrent(s.clk))
		s.Require().ErrorIs(s.audit.SuspendCurrent(s.clk), models.ErrCannotSuspendWithdrawn)
	})

	s.Run("unlock without suspension", func() {
		s.SetupTest()
		s.Require().ErrorIs(s.audit.UnlockCurrent(s.clk), models.ErrCannotUnlock)
	})

	s.Run("rejections queue no events", func() {
		s.SetupTest()
		s.Require().Error(s.audit.UnlockCurrent(s.clk))
		s.Empty(s.audit.PopEvents())
	})
}

func (s *LockingSuite) TestExpiredEvaluation() {
	later := fixedAt("2025-05-02")

	s.Run("cannot be suspended", func() {
		s.SetupTest()
		s.Require().ErrorIs(s.audit.SuspendCurrent(later), models.ErrCannotLockExpired)
	})

	s.Run("cannot be withdrawn even when suspended", func() {
		s.SetupTest()
		s.Require().NoError(s.audit.SuspendCurrent(s.clk))
		s.Require().ErrorIs(s.audit.WithdrawCurrent(later), models.ErrCannotLockExpired)
	})

	s.Run("takes precedence over withdrawn", func() {
		s.SetupTest()
		s.Require().NoError(s.audit.WithdrawCurrent(s.clk))
		s.Require().ErrorIs(s.audit.SuspendCurrent(later), models.ErrCannotLockExpired)
	})

	s.Run("expiration instant is still valid", func() {
		s.SetupTest()
		s.Require().NoError(s.audit.SuspendCurrent(fixedAt("2025-05-01")))
	})
}

func (s *LockingSuite) TestLocksCurrentNotMostRecent() {
	audit := newAudit()
	clk := fixedAt("2025-01-01")
	_, err := audit.RecordEvaluation(id.NewSupervisorID(), models.RatingNegative, day("2024-09-01"), day("2025-09-01"), clk)
	s.Require().NoError(err)
	older, err := audit.RecordEvaluation(id.NewSupervisorID(), models.RatingNegative, day("2024-06-01"), day("2025-06-01"), clk)
	s.Require().NoError(err)

	s.Require().NoError(audit.SuspendCurrent(clk))

	s.True(older.IsSuspended())
	latest, ok := audit.MostRecent()
	s.Require().True(ok)
	s.False(latest.IsSuspended())
}

func (s *LockingSuite) TestNewLockEvent() {
	evaluationID := id.NewEvaluationID()

	event, ok := models.NewLockEvent(models.LockActionWithdrawn, evaluationID, s.clk.At)
	s.Require().True(ok)
	s.Equal(models.EvaluationWithdrawn{Evaluation: evaluationID, WithdrawnAt: s.clk.At}, event)

	_, ok = models.NewLockEvent(models.LockAction("frozen"), evaluationID, s.clk.At)
	s.False(ok)
}

func (s *LockingSuite) TestNewLockHistoryEntry() {
	evaluationID := id.NewEvaluationID()
	at := day("2024-06-01")

	s.Run("projects the event", func() {
		eventID := id.NewEventID()
		entry, err := models.NewLockHistoryEntry(eventID, models.EvaluationWithdrawn{Evaluation: evaluationID, WithdrawnAt: at})
		s.Require().NoError(err)
		s.Equal(models.LockHistoryEntry{
			EventID:      eventID,
			EvaluationID: evaluationID,
			Action:       models.LockActionWithdrawn,
			OccurredAt:   at,
		}, entry)
	})

	s.Run("requires an event id", func() {
		_, err := models.NewLockHistoryEntry(id.EventID{}, models.EvaluationUnlocked{Evaluation: evaluationID, UnlockedAt: at})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("rejects a nil event", func() {
		_, err := models.NewLockHistoryEntry(id.NewEventID(), nil)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
