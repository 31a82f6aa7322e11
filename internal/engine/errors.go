package engine

import "fmt"

// Code is a machine-readable validation error code.
type Code string

const (
	CodeInvalidAction      Code = "invalid_action"
	CodeUnknownParticipant Code = "unknown_participant"
	CodeActorDead          Code = "actor_dead"
	CodeWrongRole          Code = "wrong_role"
	CodeWrongPhase         Code = "wrong_phase"
	CodeAbilityUsed        Code = "ability_used"
	CodeInvalidTarget      Code = "invalid_target"
	CodeMatchFinished      Code = "match_finished"
	CodeSheriffExists      Code = "sheriff_exists"
	CodeNotStaged          Code = "not_staged"
	CodeInvalidMessage     Code = "invalid_message"
	CodeInvalidSetup       Code = "invalid_setup"
)

// Error is a rejected action. State is never modified when one is returned.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches errors by code so callers can compare against the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrInvalidAction      = &Error{Code: CodeInvalidAction, Message: "invalid action"}
	ErrUnknownParticipant = &Error{Code: CodeUnknownParticipant, Message: "participant not found"}
	ErrActorDead          = &Error{Code: CodeActorDead, Message: "dead participants cannot act"}
	ErrWrongRole          = &Error{Code: CodeWrongRole, Message: "your role cannot do that"}
	ErrWrongPhase         = &Error{Code: CodeWrongPhase, Message: "wrong phase for this action"}
	ErrAbilityUsed        = &Error{Code: CodeAbilityUsed, Message: "cannot use ability"}
	ErrInvalidTarget      = &Error{Code: CodeInvalidTarget, Message: "invalid target"}
	ErrMatchFinished      = &Error{Code: CodeMatchFinished, Message: "match is finished"}
	ErrSheriffExists      = &Error{Code: CodeSheriffExists, Message: "a sheriff is already in office"}
	ErrNotStaged          = &Error{Code: CodeNotStaged, Message: "ability requires a staged death"}
	ErrInvalidMessage     = &Error{Code: CodeInvalidMessage, Message: "invalid chat message"}
	ErrInvalidSetup       = &Error{Code: CodeInvalidSetup, Message: "invalid match setup"}
)

// Errorf returns an error carrying base's code with a more specific message.
func Errorf(base *Error, format string, args ...any) *Error {
	return &Error{Code: base.Code, Message: fmt.Sprintf(format, args...)}
}
