package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a domain error
type Kind string

const (
	KindValidation        Kind = "VALIDATION"
	KindNotFound          Kind = "NOT_FOUND"
	KindForbidden         Kind = "FORBIDDEN"
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindPolicyNotApproved Kind = "POLICY_NOT_APPROVED"
	KindAlreadyFinalized  Kind = "ALREADY_FINALIZED"
)

// Error is the typed result of a rejected operation. It carries enough
// context for the caller to render a precise message.
type Error struct {
	Kind     Kind
	Message  string
	Record   string // "policy", "claim", "user"
	RecordID uint
	Status   string // current status when the action was rejected
	Action   string
	Fields   map[string]string // field -> violation, validation only
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return strings.ToLower(strings.ReplaceAll(string(e.Kind), "_", " "))
}

// Is matches by kind. PolicyNotApproved and AlreadyFinalized also match
// InvalidTransition.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind == t.Kind {
		return true
	}
	return t.Kind == KindInvalidTransition &&
		(e.Kind == KindPolicyNotApproved || e.Kind == KindAlreadyFinalized)
}

// Sentinels for errors.Is matching
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrPolicyNotApproved = &Error{Kind: KindPolicyNotApproved}
	ErrAlreadyFinalized  = &Error{Kind: KindAlreadyFinalized}
)

// Record kinds used in error context
const (
	RecordPolicy = "policy"
	RecordClaim  = "claim"
)

// NotFound builds a NotFoundError for a record
func NotFound(record string, id uint) *Error {
	return &Error{
		Kind:     KindNotFound,
		Message:  fmt.Sprintf("%s %d not found", record, id),
		Record:   record,
		RecordID: id,
	}
}

// Forbidden builds a ForbiddenError for an action on a record
func Forbidden(record string, id uint, action string) *Error {
	return &Error{
		Kind:     KindForbidden,
		Message:  fmt.Sprintf("not permitted to %s %s %d", action, record, id),
		Record:   record,
		RecordID: id,
		Action:   action,
	}
}

// InvalidTransition builds an InvalidTransitionError
func InvalidTransition(record string, id uint, status fmt.Stringer, action string) *Error {
	return &Error{
		Kind:     KindInvalidTransition,
		Message:  fmt.Sprintf("cannot %s %s %d in status '%s'", action, record, id, status),
		Record:   record,
		RecordID: id,
		Status:   status.String(),
		Action:   action,
	}
}

// PolicyNotApproved builds the error returned when filing against a policy
// that is not Approved
func PolicyNotApproved(policyID uint, status PolicyStatus) *Error {
	return &Error{
		Kind:     KindPolicyNotApproved,
		Message:  fmt.Sprintf("claims can only be filed on Approved policies; policy %d is '%s'", policyID, status),
		Record:   RecordPolicy,
		RecordID: policyID,
		Status:   status.String(),
		Action:   "file claim",
	}
}

// AlreadyFinalized builds the error returned when reviewing a terminal claim
func AlreadyFinalized(claimID uint, status ClaimStatus) *Error {
	return &Error{
		Kind:     KindAlreadyFinalized,
		Message:  fmt.Sprintf("claim %d has already been finalized with status '%s'", claimID, status),
		Record:   RecordClaim,
		RecordID: claimID,
		Status:   status.String(),
		Action:   "review",
	}
}

// Violations accumulates field-level validation failures
type Violations map[string]string

// Add records a violation for a field; the first violation per field wins
func (v Violations) Add(field, message string) {
	if _, exists := v[field]; !exists {
		v[field] = message
	}
}

// Err returns a single ValidationError holding every violation, or nil
func (v Violations) Err() error {
	if len(v) == 0 {
		return nil
	}
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}

	return &Error{
		Kind:    KindValidation,
		Message: "validation failed: " + strings.Join(parts, "; "),
		Fields:  map[string]string(v),
	}
}

// AsError extracts a *Error from an error chain
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
