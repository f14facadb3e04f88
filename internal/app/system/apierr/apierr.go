// Package apierr defines the error taxonomy shared by the service layer and
// the HTTP handlers.
//
// Every error produced by collab.Service and the policies is either an *Error
// or wraps one. Handlers call Write, which maps the Kind onto an HTTP status
// and renders a JSON body:
//
//	{"error": {"kind": "conflict", "code": "project_full", "message": "project is full"}}
//
// Callers branch with errors.Is against either a kind sentinel
// (apierr.Conflict) or a named error (apierr.ErrProjectFull).
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers and for HTTP status mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindInvalid
	KindAlreadyFinalized
	KindUnauthorized
)

var kindNames = map[Kind]string{
	KindInternal:         "internal",
	KindNotFound:         "not_found",
	KindForbidden:        "forbidden",
	KindConflict:         "conflict",
	KindInvalid:          "invalid",
	KindAlreadyFinalized: "already_finalized",
	KindUnauthorized:     "unauthorized",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "internal"
}

// Status returns the HTTP status code for k.
func (k Kind) Status() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict, KindAlreadyFinalized:
		return http.StatusConflict
	case KindInvalid:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error. Code is a stable machine-readable identifier,
// Message is safe to show to the caller.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  map[string]string // per-field validation messages
	Err     error             // underlying cause; never rendered
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches kind sentinels (NotFound, Conflict, ...) by Kind and named
// errors by Kind and Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// New returns an *Error of the given kind.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap returns a copy of e carrying cause.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

// WithMessage returns a copy of e with a more specific message.
func (e *Error) WithMessage(format string, args ...any) *Error {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// Kind sentinels. Use with errors.Is to test the class of an error.
var (
	NotFound         = &Error{Kind: KindNotFound, Message: "not found"}
	Forbidden        = &Error{Kind: KindForbidden, Message: "forbidden"}
	Conflict         = &Error{Kind: KindConflict, Message: "conflict"}
	Invalid          = &Error{Kind: KindInvalid, Message: "invalid input"}
	AlreadyFinalized = &Error{Kind: KindAlreadyFinalized, Code: "already_finalized", Message: "request has already been decided"}
	Unauthorized     = &Error{Kind: KindUnauthorized, Message: "authentication required"}
)

// Named errors used by the request workflow and the removal operations.
var (
	ErrProjectNotFound   = New(KindNotFound, "project_not_found", "project not found")
	ErrUserNotFound      = New(KindNotFound, "user_not_found", "user not found")
	ErrRequestNotFound   = New(KindNotFound, "request_not_found", "request not found")
	ErrMemberNotFound    = New(KindNotFound, "member_not_found", "user is not a member of this project")
	ErrNoSupervisor      = New(KindNotFound, "no_supervisor", "project has no supervisor")
	ErrNoRecruiter       = New(KindNotFound, "no_recruiter", "project has no recruiter collaboration")
	ErrMessageNotFound   = New(KindNotFound, "message_not_found", "message not found")
	ErrComplaintNotFound = New(KindNotFound, "complaint_not_found", "complaint not found")
	ErrListingNotFound   = New(KindNotFound, "listing_not_found", "listing not found")

	ErrInvalidID          = New(KindInvalid, "invalid_id", "malformed identifier")
	ErrInvalidRequestType = New(KindInvalid, "invalid_request_type", "unknown request type")
	ErrInvalidStatus      = New(KindInvalid, "invalid_status", "unknown status")
	ErrTargetMismatch     = New(KindInvalid, "target_mismatch", "join requests must be addressed to the project owner")
	ErrWrongTargetRole    = New(KindInvalid, "wrong_target_role", "target user does not have the required role")
	ErrCannotRemoveOwner  = New(KindInvalid, "cannot_remove_owner", "the project owner cannot be removed")
	ErrSelfMessage        = New(KindInvalid, "self_message", "cannot send a message to yourself")

	ErrAlreadyMember             = New(KindConflict, "already_member", "user is already a member of this project")
	ErrProjectFull               = New(KindConflict, "project_full", "project is full")
	ErrSupervisorAlreadyAssigned = New(KindConflict, "supervisor_already_assigned", "project already has a supervisor")
	ErrRecruiterAlreadyApproved  = New(KindConflict, "recruiter_already_approved", "project already has an approved recruiter")
	ErrDuplicatePendingRequest   = New(KindConflict, "duplicate_pending_request", "an identical request is already pending")
	ErrDuplicateEmail            = New(KindConflict, "duplicate_email", "a user with this email already exists")
	ErrLastAdmin                 = New(KindConflict, "last_admin", "cannot delete the last remaining admin")
	ErrMaxBelowMembers           = New(KindConflict, "max_below_members", "max members cannot be lower than the current team size")

	ErrNotOwner       = New(KindForbidden, "not_owner", "only the project owner may do this")
	ErrNotRecipient   = New(KindForbidden, "not_recipient", "only the addressed user may decide this request")
	ErrRoleNotAllowed = New(KindForbidden, "role_not_allowed", "your role cannot perform this action")
	ErrNoChatAccess   = New(KindForbidden, "no_chat_access", "you do not have access to this project's chat")
	ErrSelfDelete     = New(KindForbidden, "self_delete", "admins cannot delete their own account")
	ErrNotReceiver    = New(KindForbidden, "not_receiver", "only the receiver of a message may report it")

	ErrInvalidCredentials = New(KindUnauthorized, "invalid_credentials", "invalid email or password")
)

// KindOf returns the Kind of err, or KindInternal if err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
