package models

import (
	"slices"

	id "qualityaudit/pkg/domain"
	dErrors "qualityaudit/pkg/domain-errors"
)

// Client is the audited party.
type Client struct {
	ID   id.ClientID
	Name string
}

// Standard is a quality standard clients are audited against.
type Standard struct {
	ID   id.StandardID
	Name string
}

// Supervisor performs evaluations for the standards it holds authority for.
type Supervisor struct {
	ID                  id.SupervisorID
	Name                string
	AuthorizedStandards []id.StandardID
}

func (s Supervisor) HasAuthorityFor(standardID id.StandardID) bool {
	return slices.Contains(s.AuthorizedStandards, standardID)
}

// Contract binds a client to a supervisor. Only active contracts allow
// recording evaluations or handing evaluations to that supervisor.
type Contract struct {
	ID           id.ContractID
	ClientID     id.ClientID
	SupervisorID id.SupervisorID
	Active       bool
}

func NewContract(contractID id.ContractID, clientID id.ClientID, supervisorID id.SupervisorID, active bool) (*Contract, error) {
	if clientID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "contract client cannot be nil")
	}
	if supervisorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "contract supervisor cannot be nil")
	}
	return &Contract{
		ID:           contractID,
		ClientID:     clientID,
		SupervisorID: supervisorID,
		Active:       active,
	}, nil
}

// Binds reports whether the contract is active between the two parties.
func (c Contract) Binds(clientID id.ClientID, supervisorID id.SupervisorID) bool {
	return c.Active && c.ClientID == clientID && c.SupervisorID == supervisorID
}
