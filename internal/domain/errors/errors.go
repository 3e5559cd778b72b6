package errors

import "errors"

// Sentinel errors for handlers to map to HTTP status.
var (
	ErrProjectNotFound  = errors.New("project not found")
	ErrTaskNotFound     = errors.New("task not found")
	ErrIdentityNotFound = errors.New("identity not found")
	ErrSessionNotFound  = errors.New("session not found or expired")
	ErrInvalidID        = errors.New("malformed identifier")
)

// Reason codes appended to the frontend error redirect when an OAuth
// flow fails. Stable contract with the frontend; do not rename.
const (
	ReasonNoSession      = "no_session"
	ReasonStateMismatch  = "state_mismatch"
	ReasonTokenExchange  = "token_exchange_failed"
	ReasonProfileFetch   = "profile_fetch_failed"
	ReasonSessionPersist = "session_persist_failed"
	ReasonLoginFailed    = "login_failed"
)

// FlowError is any OAuth exchange failure. Code is the machine-readable
// reason the browser is redirected with; for provider-reported errors it
// carries the provider's own error code verbatim.
type FlowError struct {
	Code string
	Err  error
}

func (e *FlowError) Error() string {
	if e.Err != nil {
		return "oauth flow failed (" + e.Code + "): " + e.Err.Error()
	}
	return "oauth flow failed (" + e.Code + ")"
}

func (e *FlowError) Unwrap() error { return e.Err }

// NewFlowError wraps err with an OAuth flow reason code.
func NewFlowError(code string, err error) *FlowError {
	return &FlowError{Code: code, Err: err}
}

// AsFlowError returns the FlowError in err's chain, or nil.
func AsFlowError(err error) *FlowError {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe
	}
	return nil
}
