package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/edibridge/backend/internal/domain/shared"
	"github.com/edibridge/backend/internal/infrastructure/lock"
)

// MalformedDocumentError means the payload could not be parsed or lacked
// the fields needed to identify the entity. Retrying the same payload can
// never succeed, so callers must dead-letter it instead of requeueing.
type MalformedDocumentError struct {
	SourceRef string
	Reason    string
	Err       error
}

func (e *MalformedDocumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed document %s: %s: %v", e.SourceRef, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed document %s: %s", e.SourceRef, e.Reason)
}

func (e *MalformedDocumentError) Unwrap() error {
	return e.Err
}

// IsMalformed reports whether err marks a payload as unprocessable
func IsMalformed(err error) bool {
	var me *MalformedDocumentError
	return errors.As(err, &me)
}

// RetryableError marks a failure outside the document itself: the backing
// store or another backend was unavailable. The payload may well be valid,
// so callers requeue it unchanged instead of dead-lettering.
type RetryableError struct {
	SourceRef string
	Err       error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("transient failure for document %s: %v", e.SourceRef, e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err should be requeued rather than
// dead-lettered. Lock timeouts qualify alongside wrapped backend failures.
func IsRetryable(err error) bool {
	if lock.IsTimeout(err) {
		return true
	}
	var re *RetryableError
	return errors.As(err, &re)
}

// Violation is one business-rule failure found while applying a document
type Violation struct {
	Field   string
	Code    string
	Message string
}

func (v Violation) Error() string {
	if v.Field == "" {
		return fmt.Sprintf("[%s] %s", v.Code, v.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", v.Code, v.Field, v.Message)
}

// ViolationList accumulates business-rule failures across the whole
// document, so one bad line does not hide the others. The pipeline rolls
// back the entire document when the list is non-empty.
type ViolationList struct {
	SourceRef  string
	Violations []Violation
}

// Add appends a violation
func (l *ViolationList) Add(field, code, message string) {
	l.Violations = append(l.Violations, Violation{Field: field, Code: code, Message: message})
}

// AddError folds an arbitrary error in as a violation against field,
// keeping the domain error code when the error carries one
func (l *ViolationList) AddError(field string, err error) {
	code := "RULE_VIOLATION"
	var de *shared.DomainError
	if errors.As(err, &de) {
		code = de.Code
	}
	l.Violations = append(l.Violations, Violation{Field: field, Code: code, Message: err.Error()})
}

// Empty reports whether no violations were recorded
func (l *ViolationList) Empty() bool {
	return len(l.Violations) == 0
}

func (l *ViolationList) Error() string {
	msgs := make([]string, len(l.Violations))
	for i, v := range l.Violations {
		msgs[i] = v.Error()
	}
	return fmt.Sprintf("document %s rejected: %s", l.SourceRef, strings.Join(msgs, "; "))
}

// AsViolations extracts a violation list from err, if it carries one
func AsViolations(err error) (*ViolationList, bool) {
	var vl *ViolationList
	if errors.As(err, &vl) {
		return vl, true
	}
	return nil, false
}
