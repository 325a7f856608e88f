package projection_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	auditmetrics "qualityaudit/internal/audit/metrics"
	"qualityaudit/internal/audit/models"
	"qualityaudit/internal/audit/projection"
	"qualityaudit/internal/audit/store/lockhistory"
	id "qualityaudit/pkg/domain"
	dErrors "qualityaudit/pkg/domain-errors"
	qatestutil "qualityaudit/pkg/testutil"
)

type ProjectorSuite struct {
	suite.Suite
	ctx       context.Context
	store     *lockhistory.InMemoryStore
	metrics   *auditmetrics.Metrics
	projector *projection.Projector
}

func TestProjectorSuite(t *testing.T) {
	suite.Run(t, new(ProjectorSuite))
}

func (s *ProjectorSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = lockhistory.NewInMemoryStore()
	s.metrics = auditmetrics.New(prometheus.NewRegistry())
	s.projector = projection.New(s.store, projection.WithMetrics(s.metrics))
}

func TestProjectorLockHistory(t *testing.T) {
	qatestutil.Given(t, "a projector over an empty lock history", func(t *testing.T) {
		ctx := context.Background()
		metrics := auditmetrics.New(prometheus.NewRegistry())
		projector := projection.New(lockhistory.NewInMemoryStore(), projection.WithMetrics(metrics))
		evaluationID := id.NewEvaluationID()
		at := qatestutil.MustDate("2024-06-01")

		qatestutil.When(t, "a suspend, unlock and withdraw batch is published", func(t *testing.T) {
			require.NoError(t, projector.Publish(ctx, models.NewOutboxEntries([]models.Event{
				models.EvaluationSuspended{Evaluation: evaluationID, SuspendedAt: at},
				models.EvaluationUnlocked{Evaluation: evaluationID, UnlockedAt: at.Add(time.Hour)},
				models.EvaluationWithdrawn{Evaluation: evaluationID, WithdrawnAt: at.Add(2 * time.Hour)},
			})))
			history, err := projector.History(ctx, evaluationID)
			require.NoError(t, err)

			qatestutil.Then(t, "every transition is a row, oldest first", func(t *testing.T) {
				require.Len(t, history, 3)
				assert.Equal(t, models.LockActionSuspended, history[0].Action)
				assert.Equal(t, models.LockActionUnlocked, history[1].Action)
				assert.Equal(t, models.LockActionWithdrawn, history[2].Action)
				assert.Equal(t, at, history[0].OccurredAt)
				for _, entry := range history {
					assert.Equal(t, evaluationID, entry.EvaluationID)
					assert.False(t, entry.EventID.IsNil())
				}
			})

			qatestutil.And(t, "each projected action is counted", func(t *testing.T) {
				assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ProjectedEvents.WithLabelValues("unlocked")))
			})
		})

		qatestutil.When(t, "the same entries are delivered again", func(t *testing.T) {
			entries := models.NewOutboxEntries([]models.Event{
				models.EvaluationSuspended{Evaluation: evaluationID, SuspendedAt: at.Add(3 * time.Hour)},
			})
			require.NoError(t, projector.Publish(ctx, entries))
			require.NoError(t, projector.Publish(ctx, entries))
			history, err := projector.History(ctx, evaluationID)
			require.NoError(t, err)

			qatestutil.Then(t, "the redelivered entry adds a single row", func(t *testing.T) {
				require.Len(t, history, 4)
				assert.Equal(t, entries[0].EventID, history[3].EventID)
			})
		})
	})
}

func (s *ProjectorSuite) TestHandleIsIdempotentPerEventID() {
	eventID := id.NewEventID()
	event := models.EvaluationSuspended{Evaluation: id.NewEvaluationID(), SuspendedAt: qatestutil.MustDate("2024-06-01")}

	s.Require().NoError(s.projector.Handle(s.ctx, eventID, event))
	s.Require().NoError(s.projector.Handle(s.ctx, eventID, event))

	history, err := s.projector.History(s.ctx, event.Evaluation)
	s.Require().NoError(err)
	s.Len(history, 1)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ProjectedEvents.WithLabelValues("suspended")))
}

func (s *ProjectorSuite) TestHandleRejectsInvalidEvent() {
	err := s.projector.Handle(s.ctx, id.EventID{}, models.EvaluationUnlocked{Evaluation: id.NewEvaluationID()})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ProjectorSuite) TestStoreFailureIsInternal() {
	projector := projection.New(failingStore{err: errors.New("disk full")})
	err := projector.Handle(s.ctx, id.NewEventID(), models.EvaluationUnlocked{Evaluation: id.NewEvaluationID()})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	_, err = projector.History(s.ctx, id.NewEvaluationID())
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

type failingStore struct {
	err error
}

func (f failingStore) Append(context.Context, models.LockHistoryEntry) (bool, error) {
	return false, f.err
}

func (f failingStore) FindByEvaluationID(context.Context, id.EvaluationID) ([]models.LockHistoryEntry, error) {
	return nil, f.err
}
