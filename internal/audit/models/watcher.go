package models

import (
	"github.com/google/uuid"

	id "qualityaudit/pkg/domain"
	dErrors "qualityaudit/pkg/domain-errors"
)

// WatcherKind tags which party type a WatcherID refers to.
type WatcherKind string

const (
	WatcherClient     WatcherKind = "client"
	WatcherSupervisor WatcherKind = "supervisor"
)

// WatcherID is either a client or a supervisor. Two watcher ids are equal when
// both kind and UUID match, so plain == comparison is correct.
type WatcherID struct {
	kind WatcherKind
	id   uuid.UUID
}

func ClientWatcher(clientID id.ClientID) WatcherID {
	return WatcherID{kind: WatcherClient, id: uuid.UUID(clientID)}
}

func SupervisorWatcher(supervisorID id.SupervisorID) WatcherID {
	return WatcherID{kind: WatcherSupervisor, id: uuid.UUID(supervisorID)}
}

// ParseWatcherID rebuilds a watcher from its stored kind and id.
func ParseWatcherID(kind, rawID string) (WatcherID, error) {
	switch WatcherKind(kind) {
	case WatcherClient:
		clientID, err := id.ParseClientID(rawID)
		if err != nil {
			return WatcherID{}, err
		}
		return ClientWatcher(clientID), nil
	case WatcherSupervisor:
		supervisorID, err := id.ParseSupervisorID(rawID)
		if err != nil {
			return WatcherID{}, err
		}
		return SupervisorWatcher(supervisorID), nil
	default:
		return WatcherID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid watcher kind: "+kind)
	}
}

func (w WatcherID) Kind() WatcherKind { return w.kind }

// ClientID returns the client and true when the watcher is a client.
func (w WatcherID) ClientID() (id.ClientID, bool) {
	if w.kind != WatcherClient {
		return id.ClientID{}, false
	}
	return id.ClientID(w.id), true
}

// SupervisorID returns the supervisor and true when the watcher is a supervisor.
func (w WatcherID) SupervisorID() (id.SupervisorID, bool) {
	if w.kind != WatcherSupervisor {
		return id.SupervisorID{}, false
	}
	return id.SupervisorID(w.id), true
}

func (w WatcherID) String() string { return w.id.String() }
