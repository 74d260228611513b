package actions

import (
	"context"
	"encoding/json"
)

// Request is one remote call, in either of the backend's two forms: a
// model/method ORM call or a plain route with params. Shadow asks the host
// not to show a global loading indicator; the core never reads it back.
type Request struct {
	Model  string
	Method string
	Args   []any
	Kwargs map[string]any

	Route  string
	Params map[string]any

	Shadow bool
}

// Caller is the remote request/response collaborator. Implementations own
// transport, authentication and retries; the orchestrator only sees decoded
// payloads or transport errors.
type Caller interface {
	Call(ctx context.Context, req Request) (json.RawMessage, error)
}

// Enricher transforms a raw draft body before posting (linkification,
// emoji substitution, mention extraction). Treated as a black box.
type Enricher interface {
	Enrich(body string) string
}
