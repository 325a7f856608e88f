// Package domain holds the identifiers shared across the audit bounded context.
//
// Every identifier is a distinct named UUID type so the compiler rejects
// passing a ClientID where a SupervisorID is expected. Parsing is the trust
// boundary: Parse* rejects empty, malformed and nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "qualityaudit/pkg/domain-errors"
)

type (
	ClientID     uuid.UUID
	SupervisorID uuid.UUID
	StandardID   uuid.UUID
	EvaluationID uuid.UUID
	ContractID   uuid.UUID
	EventID      uuid.UUID
)

func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be nil")
	}
	return parsed, nil
}

func NewClientID() ClientID { return ClientID(uuid.New()) }

func ParseClientID(s string) (ClientID, error) {
	u, err := parseUUID("client_id", s)
	return ClientID(u), err
}

func (i ClientID) String() string { return uuid.UUID(i).String() }
func (i ClientID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }

func NewSupervisorID() SupervisorID { return SupervisorID(uuid.New()) }

func ParseSupervisorID(s string) (SupervisorID, error) {
	u, err := parseUUID("supervisor_id", s)
	return SupervisorID(u), err
}

func (i SupervisorID) String() string { return uuid.UUID(i).String() }
func (i SupervisorID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }

func NewStandardID() StandardID { return StandardID(uuid.New()) }

func ParseStandardID(s string) (StandardID, error) {
	u, err := parseUUID("standard_id", s)
	return StandardID(u), err
}

func (i StandardID) String() string { return uuid.UUID(i).String() }
func (i StandardID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }

func NewEvaluationID() EvaluationID { return EvaluationID(uuid.New()) }

func ParseEvaluationID(s string) (EvaluationID, error) {
	u, err := parseUUID("evaluation_id", s)
	return EvaluationID(u), err
}

func (i EvaluationID) String() string { return uuid.UUID(i).String() }
func (i EvaluationID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }

func NewContractID() ContractID { return ContractID(uuid.New()) }

func ParseContractID(s string) (ContractID, error) {
	u, err := parseUUID("contract_id", s)
	return ContractID(u), err
}

func (i ContractID) String() string { return uuid.UUID(i).String() }
func (i ContractID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }

func NewEventID() EventID { return EventID(uuid.New()) }

func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID("event_id", s)
	return EventID(u), err
}

func (i EventID) String() string { return uuid.UUID(i).String() }
func (i EventID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }
