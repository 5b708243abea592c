package models

import (
	"time"

	"linkgate/internal/deeplink"
)

// State is one position in the callback state machine. Each URL delivery is a
// single pass through the machine; there is no retry within one invocation.
type State string

const (
	StateIdle                State = "idle"
	StateValidatingURL       State = "validating_url"
	StateValidatingState     State = "validating_state"
	StateEmailConfirmation   State = "email_confirmation"
	StatePasswordRecovery    State = "password_recovery"
	StateSessionEstablishing State = "session_establishing"
	StateComplete            State = "complete"
	StateFailed              State = "failed"
)

// Flow discriminates which branch a validated callback took.
type Flow string

const (
	FlowEmailConfirmation Flow = "email_confirmation"
	FlowPasswordRecovery  Flow = "password_recovery"
)

// SessionHandle is what the identity provider returns once a token pair is
// accepted. The provider is opaque; this is the whole surface this gateway
// sees of an established session.
type SessionHandle struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Outcome is the result of one pass through the callback state machine.
//
// UserMessage is the only text that may reach an end user. It is drawn from a
// small fixed set and never contains the reason code, the offending value, or
// any structural detail.
type Outcome struct {
	State       State
	Flow        Flow
	Reason      deeplink.ReasonCode // set when the failure came from classification
	UserMessage string
	Session     *SessionHandle

	// AwaitingNewPassword marks recovery completion: the session handoff
	// succeeded and the application must now collect a new password through
	// an in-app form, never through the URL.
	AwaitingNewPassword bool

	// Transitions records the states traversed, in order. The terminal state
	// is always the last element.
	Transitions []State
}

// Failed reports whether the pass ended in the terminal failure state.
func (o *Outcome) Failed() bool {
	return o.State == StateFailed
}
