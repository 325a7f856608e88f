package service

import (
	"context"

	"qualityaudit/internal/audit/models"
	id "qualityaudit/pkg/domain"
)

const (
	commandChangeManager   = "change_manager"
	commandAddWatcher      = "add_watcher"
	commandRemoveWatcher   = "remove_watcher"
	commandSuspendCurrent  = "suspend_current"
	commandUnlockCurrent   = "unlock_current"
	commandWithdrawCurrent = "withdraw_current"
)

// AuditManager runs commands against the current evaluation of an existing
// audit. Every command fails with models.ErrAuditNotFound when the pair has
// no audit.
type AuditManager struct {
	contracts ContractRepository
	audits    QualityAuditRepository
	cfg       *serviceConfig
}

func NewAuditManager(contracts ContractRepository, audits QualityAuditRepository, opts ...Option) *AuditManager {
	return &AuditManager{
		contracts: contracts,
		audits:    audits,
		cfg:       newConfig(opts),
	}
}

// ChangeManager hands the current evaluation to newManagerID, who needs an
// active contract with the client.
func (m *AuditManager) ChangeManager(ctx context.Context, clientID id.ClientID, standardID id.StandardID, newManagerID id.SupervisorID) (err error) {
	ctx, span := m.cfg.startSpan(ctx, "AuditManager.ChangeManager", clientID, standardID)
	defer func() { m.cfg.finish(ctx, span, commandChangeManager, err) }()

	if err := m.cfg.hasActiveContract(ctx, m.contracts, clientID, newManagerID); err != nil {
		return err
	}

	return m.mutateCurrent(ctx, clientID, standardID, func(current *models.Evaluation) error {
		current.ChangeManager(newManagerID)
		m.cfg.logger.InfoContext(ctx, "manager changed",
			"evaluation_id", current.ID().String(),
			"manager_id", newManagerID.String(),
		)
		return nil
	})
}

func (m *AuditManager) AddWatcher(ctx context.Context, clientID id.ClientID, standardID id.StandardID, watcher models.WatcherID) (err error) {
	ctx, span := m.cfg.startSpan(ctx, "AuditManager.AddWatcher", clientID, standardID)
	defer func() { m.cfg.finish(ctx, span, commandAddWatcher, err) }()

	return m.mutateCurrent(ctx, clientID, standardID, func(current *models.Evaluation) error {
		return current.AddWatcher(watcher)
	})
}

// RemoveWatcher succeeds when the watcher was not registered.
func (m *AuditManager) RemoveWatcher(ctx context.Context, clientID id.ClientID, standardID id.StandardID, watcher models.WatcherID) (err error) {
	ctx, span := m.cfg.startSpan(ctx, "AuditManager.RemoveWatcher", clientID, standardID)
	defer func() { m.cfg.finish(ctx, span, commandRemoveWatcher, err) }()

	return m.mutateCurrent(ctx, clientID, standardID, func(current *models.Evaluation) error {
		current.RemoveWatcher(watcher)
		return nil
	})
}

func (m *AuditManager) SuspendCurrent(ctx context.Context, clientID id.ClientID, standardID id.StandardID) (err error) {
	ctx, span := m.cfg.startSpan(ctx, "AuditManager.SuspendCurrent", clientID, standardID)
	defer func() { m.cfg.finish(ctx, span, commandSuspendCurrent, err) }()

	return m.transition(ctx, clientID, standardID, func(audit *models.QualityAudit) error {
		return audit.SuspendCurrent(m.cfg.clock)
	})
}

func (m *AuditManager) UnlockCurrent(ctx context.Context, clientID id.ClientID, standardID id.StandardID) (err error) {
	ctx, span := m.cfg.startSpan(ctx, "AuditManager.UnlockCurrent", clientID, standardID)
	defer func() { m.cfg.finish(ctx, span, commandUnlockCurrent, err) }()

	return m.transition(ctx, clientID, standardID, func(audit *models.QualityAudit) error {
		return audit.UnlockCurrent(m.cfg.clock)
	})
}

func (m *AuditManager) WithdrawCurrent(ctx context.Context, clientID id.ClientID, standardID id.StandardID) (err error) {
	ctx, span := m.cfg.startSpan(ctx, "AuditManager.WithdrawCurrent", clientID, standardID)
	defer func() { m.cfg.finish(ctx, span, commandWithdrawCurrent, err) }()

	return m.transition(ctx, clientID, standardID, func(audit *models.QualityAudit) error {
		return audit.WithdrawCurrent(m.cfg.clock)
	})
}

func (m *AuditManager) mutateCurrent(ctx context.Context, clientID id.ClientID, standardID id.StandardID, fn func(current *models.Evaluation) error) error {
	return m.cfg.locker.WithLock(ctx, auditKey(clientID, standardID), func(ctx context.Context) error {
		audit, err := m.cfg.loadAudit(ctx, m.audits, clientID, standardID)
		if err != nil {
			return err
		}
		current, err := audit.Current()
		if err != nil {
			return err
		}
		if err := fn(current); err != nil {
			return err
		}
		return saveAudit(ctx, m.audits, audit)
	})
}

// transition applies a lock command and saves the audit together with its
// pending events, then flushes the outbox once the key is released.
func (m *AuditManager) transition(ctx context.Context, clientID id.ClientID, standardID id.StandardID, fn func(audit *models.QualityAudit) error) error {
	err := m.cfg.locker.WithLock(ctx, auditKey(clientID, standardID), func(ctx context.Context) error {
		audit, err := m.cfg.loadAudit(ctx, m.audits, clientID, standardID)
		if err != nil {
			return err
		}
		if err := fn(audit); err != nil {
			return err
		}
		if err := saveAudit(ctx, m.audits, audit); err != nil {
			return err
		}
		for _, e := range audit.PopEvents() {
			m.cfg.incrementLockTransition(string(e.Action()))
			m.cfg.logger.InfoContext(ctx, "evaluation lock changed",
				"evaluation_id", e.EvaluationID().String(),
				"action", string(e.Action()),
			)
		}
		return nil
	})
	if err != nil {
		return err
	}
	m.cfg.flush(ctx)
	return nil
}
