package orchestrator

import "errors"

var (
	// ErrRegistryRequired is returned when a tenant registry is not provided.
	ErrRegistryRequired = errors.New("tenant registry required")

	// ErrSessionStoreRequired is returned when a session store is not provided.
	ErrSessionStoreRequired = errors.New("session store required")

	// ErrRetrievalRequired is returned when a retrieval pipeline is not provided.
	ErrRetrievalRequired = errors.New("retrieval pipeline required")

	// ErrCompleterRequired is returned when a completer is not provided.
	ErrCompleterRequired = errors.New("completer required")

	// ErrEscalationRequired is returned when an escalation manager is not provided.
	ErrEscalationRequired = errors.New("escalation manager required")

	// ErrCacheRequired is returned when a response cache is not provided.
	ErrCacheRequired = errors.New("response cache required")

	// ErrInvalidRequest is returned when a request misses brand, session
	// id, or message.
	ErrInvalidRequest = errors.New("invalid request")
)
