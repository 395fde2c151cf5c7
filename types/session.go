package types

// SessionState is the lifecycle state of a stream session.
type SessionState string

// Session state constants.
const (
	SessionStateIdle      SessionState = "idle"
	SessionStateActive    SessionState = "active"
	SessionStateCompleted SessionState = "completed"
	SessionStateErrored   SessionState = "errored"
	SessionStateCancelled SessionState = "cancelled"
)

// IsTerminal returns true if no further transitions are possible.
func (s SessionState) IsTerminal() bool {
	return s == SessionStateCompleted || s == SessionStateErrored || s == SessionStateCancelled
}

// AgentRequest is the request body of the agent streaming endpoint.
type AgentRequest struct {
	Prompt string `json:"prompt"`
	TopK   int    `json:"top_k"`
}
