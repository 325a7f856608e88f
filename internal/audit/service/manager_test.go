package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	auditmetrics "qualityaudit/internal/audit/metrics"
	"qualityaudit/internal/audit/models"
	"qualityaudit/internal/audit/outbox"
	"qualityaudit/internal/audit/projection"
	"qualityaudit/internal/audit/service"
	"qualityaudit/internal/audit/service/mocks"
	"qualityaudit/internal/audit/store/contract"
	"qualityaudit/internal/audit/store/lockhistory"
	"qualityaudit/internal/audit/store/qualityaudit"
	id "qualityaudit/pkg/domain"
	dErrors "qualityaudit/pkg/domain-errors"
	qatestutil "qualityaudit/pkg/testutil"
)

type AuditManagerSuite struct {
	suite.Suite
	ctx       context.Context
	clock     *qatestutil.Clock
	contracts *contract.InMemoryStore
	audits    *qualityaudit.InMemoryStore
	sink      *recordingSink
	relay     *outbox.Relay
	metrics   *auditmetrics.Metrics
	manager   *service.AuditManager
	parties   parties
	current   *models.Evaluation
}

func TestAuditManagerSuite(t *testing.T) {
	suite.Run(t, new(AuditManagerSuite))
}

func (s *AuditManagerSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = qatestutil.NewClock("2024-06-01")
	s.contracts = contract.NewInMemoryStore()
	s.audits = qualityaudit.NewInMemoryStore()
	s.sink = &recordingSink{}
	s.metrics = auditmetrics.New(prometheus.NewRegistry())
	s.relay = outbox.New(s.audits.Outbox(), s.sink, outbox.WithMetrics(s.metrics))
	opts := []service.Option{
		service.WithClock(s.clock),
		service.WithMetrics(s.metrics),
		service.WithEventRelay(s.relay),
	}
	s.manager = service.NewAuditManager(s.contracts, s.audits, opts...)
	s.parties = newParties(s.ctx, s.contracts)

	recorder := service.NewAuditRecorder(s.contracts, s.audits, opts...)
	var err error
	s.current, err = recorder.RecordEvaluation(s.ctx, s.parties.client, s.parties.supervisor, s.parties.standard,
		models.RatingPositive, qatestutil.MustDate("2024-05-01"), qatestutil.MustDate("2025-05-01"))
	s.Require().NoError(err)
}

func (s *AuditManagerSuite) reload() *models.Evaluation {
	audit, err := s.audits.FindFor(s.ctx, s.parties.client.ID, s.parties.standard.ID)
	s.Require().NoError(err)
	current, err := audit.Current()
	s.Require().NoError(err)
	return current
}

func (s *AuditManagerSuite) clientID() id.ClientID     { return s.parties.client.ID }
func (s *AuditManagerSuite) standardID() id.StandardID { return s.parties.standard.ID }

func (s *AuditManagerSuite) TestSuspendPublishesEvent() {
	s.Require().NoError(s.manager.SuspendCurrent(s.ctx, s.clientID(), s.standardID()))

	current := s.reload()
	s.True(current.IsSuspended())
	s.Equal(s.clock.Now(), current.Suspension().SuspendedAt)

	s.Require().Len(s.sink.batches, 1)
	s.Equal([]models.Event{
		models.EvaluationSuspended{Evaluation: s.current.ID(), SuspendedAt: s.clock.Now()},
	}, s.sink.batches[0])
	s.Equal(1.0, testutil.ToFloat64(s.metrics.LockTransitions.WithLabelValues("suspended")))
}

func (s *AuditManagerSuite) TestLockLifecycle() {
	s.Require().NoError(s.manager.SuspendCurrent(s.ctx, s.clientID(), s.standardID()))
	s.clock.Advance(24 * time.Hour)
	s.Require().NoError(s.manager.UnlockCurrent(s.ctx, s.clientID(), s.standardID()))
	s.clock.Advance(24 * time.Hour)
	s.Require().NoError(s.manager.SuspendCurrent(s.ctx, s.clientID(), s.standardID()))
	s.Require().NoError(s.manager.WithdrawCurrent(s.ctx, s.clientID(), s.standardID()))

	current := s.reload()
	s.True(current.IsWithdrawn())
	s.False(current.IsSuspended())

	err := s.manager.UnlockCurrent(s.ctx, s.clientID(), s.standardID())
	s.ErrorIs(err, models.ErrCannotUnlock)

	s.Equal([]models.LockAction{
		models.LockActionSuspended,
		models.LockActionUnlocked,
		models.LockActionSuspended,
		models.LockActionWithdrawn,
	}, s.sink.actions())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CommandsRejected.WithLabelValues("unlock_current")))
}

func (s *AuditManagerSuite) TestRejectedTransitionsPublishNothing() {
	s.Require().NoError(s.manager.SuspendCurrent(s.ctx, s.clientID(), s.standardID()))

	err := s.manager.SuspendCurrent(s.ctx, s.clientID(), s.standardID())
	s.ErrorIs(err, models.ErrAlreadySuspended)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Len(s.sink.batches, 1)
}

func (s *AuditManagerSuite) TestExpiredEvaluationCannotBeLocked() {
	s.clock.Set("2025-05-02")

	s.ErrorIs(s.manager.SuspendCurrent(s.ctx, s.clientID(), s.standardID()), models.ErrCannotLockExpired)
	s.ErrorIs(s.manager.WithdrawCurrent(s.ctx, s.clientID(), s.standardID()), models.ErrCannotLockExpired)
	s.Empty(s.sink.batches)
	s.False(s.reload().IsLocked())
}

func (s *AuditManagerSuite) TestUnknownAudit() {
	err := s.manager.SuspendCurrent(s.ctx, id.NewClientID(), s.standardID())
	s.ErrorIs(err, models.ErrAuditNotFound)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	err = s.manager.AddWatcher(s.ctx, s.clientID(), id.NewStandardID(), models.ClientWatcher(id.NewClientID()))
	s.ErrorIs(err, models.ErrAuditNotFound)
}

func (s *AuditManagerSuite) TestWatchers() {
	colleague := models.SupervisorWatcher(id.NewSupervisorID())

	s.Run("add", func() {
		s.Require().NoError(s.manager.AddWatcher(s.ctx, s.clientID(), s.standardID(), colleague))
		s.Equal([]models.WatcherID{colleague}, s.reload().Watchers())
	})

	s.Run("owner and manager are rejected", func() {
		err := s.manager.AddWatcher(s.ctx, s.clientID(), s.standardID(), models.ClientWatcher(s.clientID()))
		s.ErrorIs(err, models.ErrOwnerCannotBeWatcher)
		err = s.manager.AddWatcher(s.ctx, s.clientID(), s.standardID(), models.SupervisorWatcher(s.parties.supervisor.ID))
		s.ErrorIs(err, models.ErrManagerCannotBeWatcher)
	})

	s.Run("remove", func() {
		s.Require().NoError(s.manager.RemoveWatcher(s.ctx, s.clientID(), s.standardID(), colleague))
		s.Empty(s.reload().Watchers())
		s.Require().NoError(s.manager.RemoveWatcher(s.ctx, s.clientID(), s.standardID(), colleague))
	})

	s.Empty(s.sink.batches)
}

func (s *AuditManagerSuite) TestChangeManager() {
	successor := id.NewSupervisorID()

	s.Run("requires a contract with the new manager", func() {
		err := s.manager.ChangeManager(s.ctx, s.clientID(), s.standardID(), successor)
		s.ErrorIs(err, models.ErrNoActiveContract)
		s.Equal(s.parties.supervisor.ID, s.reload().ManagerID())
	})

	s.Run("hands over and drops the new manager from watchers", func() {
		bind(s.ctx, s.contracts, s.clientID(), successor)
		s.Require().NoError(s.manager.AddWatcher(s.ctx, s.clientID(), s.standardID(), models.SupervisorWatcher(successor)))

		s.Require().NoError(s.manager.ChangeManager(s.ctx, s.clientID(), s.standardID(), successor))
		current := s.reload()
		s.Equal(successor, current.ManagerID())
		s.Empty(current.Watchers())
	})
}

func (s *AuditManagerSuite) TestCommandsActOnCurrentNotMostRecent() {
	recorder := service.NewAuditRecorder(s.contracts, s.audits, service.WithClock(s.clock))
	below, err := recorder.RecordEvaluation(s.ctx, s.parties.client, s.parties.supervisor, s.parties.standard,
		models.RatingNegative, qatestutil.MustDate("2023-10-01"), qatestutil.MustDate("2024-10-01"))
	s.Require().NoError(err)

	s.Require().NoError(s.manager.SuspendCurrent(s.ctx, s.clientID(), s.standardID()))

	audit, err := s.audits.FindFor(s.ctx, s.clientID(), s.standardID())
	s.Require().NoError(err)
	evaluations := audit.Evaluations()
	s.False(evaluations[0].IsSuspended())
	s.Equal(below.ID(), evaluations[1].ID())
	s.True(evaluations[1].IsSuspended())
}

func (s *AuditManagerSuite) TestProjectorAsSink() {
	history := lockhistory.NewInMemoryStore()
	projector := projection.New(history)
	manager := service.NewAuditManager(s.contracts, s.audits,
		service.WithClock(s.clock),
		service.WithEventRelay(outbox.New(s.audits.Outbox(), projector)),
	)

	s.Require().NoError(manager.SuspendCurrent(s.ctx, s.clientID(), s.standardID()))
	s.clock.Advance(time.Hour)
	s.Require().NoError(manager.UnlockCurrent(s.ctx, s.clientID(), s.standardID()))

	entries, err := projector.History(s.ctx, s.current.ID())
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(models.LockActionSuspended, entries[0].Action)
	s.Equal(models.LockActionUnlocked, entries[1].Action)
	s.True(entries[0].OccurredAt.Before(entries[1].OccurredAt))
}

func (s *AuditManagerSuite) TestFailedDeliveryIsRetriedOnce() {
	history := lockhistory.NewInMemoryStore()
	projector := projection.New(history)
	relay := outbox.New(s.audits.Outbox(), &flakySink{next: projector, failures: 1})
	manager := service.NewAuditManager(s.contracts, s.audits,
		service.WithClock(s.clock),
		service.WithEventRelay(relay),
	)

	s.Run("the committed suspend succeeds while the sink is down", func() {
		s.Require().NoError(manager.SuspendCurrent(s.ctx, s.clientID(), s.standardID()))
		s.True(s.reload().IsSuspended())

		pending, err := s.audits.Outbox().Pending(s.ctx, 10)
		s.Require().NoError(err)
		s.Len(pending, 1)
	})

	s.Run("a repeated suspend is rejected without a second event", func() {
		err := manager.SuspendCurrent(s.ctx, s.clientID(), s.standardID())
		s.ErrorIs(err, models.ErrAlreadySuspended)
	})

	s.Run("the next flush delivers exactly one row", func() {
		n, err := relay.Flush(s.ctx)
		s.Require().NoError(err)
		s.Equal(1, n)

		n, err = relay.Flush(s.ctx)
		s.Require().NoError(err)
		s.Zero(n)

		entries, err := projector.History(s.ctx, s.current.ID())
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal(models.LockActionSuspended, entries[0].Action)
	})
}

func (s *AuditManagerSuite) TestWithoutRelayEventsWaitInOutbox() {
	manager := service.NewAuditManager(s.contracts, s.audits, service.WithClock(s.clock))
	s.NoError(manager.SuspendCurrent(s.ctx, s.clientID(), s.standardID()))
	s.True(s.reload().IsSuspended())

	pending, err := s.audits.Outbox().Pending(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(models.LockActionSuspended, pending[0].Event.Action())
}

func TestAuditManager_RelayFailureKeepsCommittedTransition(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	audits := mocks.NewMockQualityAuditRepository(ctrl)
	relay := mocks.NewMockEventRelay(ctrl)
	clk := qatestutil.NewClock("2024-06-01")

	clientID, standardID := id.NewClientID(), id.NewStandardID()
	audit := models.NewQualityAudit(clientID, standardID)
	_, err := audit.RecordEvaluation(id.NewSupervisorID(), models.RatingPositive,
		qatestutil.MustDate("2024-05-01"), qatestutil.MustDate("2025-05-01"), clk)
	if err != nil {
		t.Fatal(err)
	}

	gomock.InOrder(
		audits.EXPECT().FindFor(gomock.Any(), clientID, standardID).Return(audit, nil),
		audits.EXPECT().Save(gomock.Any(), audit).DoAndReturn(func(_ context.Context, a *models.QualityAudit) error {
			if n := len(a.PendingEvents()); n != 1 {
				t.Fatalf("expected the withdrawal to be saved with its event, got %d pending", n)
			}
			return nil
		}),
		relay.EXPECT().Flush(gomock.Any()).Return(0, errors.New("broker down")),
	)

	manager := service.NewAuditManager(contract.NewInMemoryStore(), audits,
		service.WithClock(clk),
		service.WithEventRelay(relay),
	)
	if err := manager.WithdrawCurrent(ctx, clientID, standardID); err != nil {
		t.Fatalf("expected the committed withdrawal to succeed, got %v", err)
	}
}

func TestAuditManager_SaveFailureSkipsFlush(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	audits := mocks.NewMockQualityAuditRepository(ctrl)
	relay := mocks.NewMockEventRelay(ctrl)
	clk := qatestutil.NewClock("2024-06-01")

	clientID, standardID := id.NewClientID(), id.NewStandardID()
	audit := models.NewQualityAudit(clientID, standardID)
	_, err := audit.RecordEvaluation(id.NewSupervisorID(), models.RatingPositive,
		qatestutil.MustDate("2024-05-01"), qatestutil.MustDate("2025-05-01"), clk)
	if err != nil {
		t.Fatal(err)
	}

	audits.EXPECT().FindFor(gomock.Any(), clientID, standardID).Return(audit, nil)
	audits.EXPECT().Save(gomock.Any(), audit).Return(errors.New("disk full"))

	manager := service.NewAuditManager(contract.NewInMemoryStore(), audits,
		service.WithClock(clk),
		service.WithEventRelay(relay),
	)
	err = manager.SuspendCurrent(ctx, clientID, standardID)
	if !dErrors.HasCode(err, dErrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
