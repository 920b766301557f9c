package tracker

import (
	"errors"
	"fmt"
)

// ErrorCode identifies one entry of the sync error taxonomy. Codes are
// stable strings so they can appear verbatim in results and logs.
type ErrorCode string

const (
	// CodeAuthRequired: the credentials probe failed. Never retried.
	CodeAuthRequired ErrorCode = "AUTH_REQUIRED"

	// CodeUUIDMismatch: the remote issue's embedded UUID differs from the
	// local spec_id. Never overridden without force.
	CodeUUIDMismatch ErrorCode = "UUID_MISMATCH"

	// CodeSyncConflict: both sides changed since the last sync and the
	// strategy is manual.
	CodeSyncConflict ErrorCode = "SYNC_CONFLICT"

	// CodeRemoteUnavailable: the tracker could not be reached; transient
	// failures are retried once before this surfaces.
	CodeRemoteUnavailable ErrorCode = "REMOTE_UNAVAILABLE"

	// CodeValidationFailed: front-matter shape error on read. The offending
	// spec is skipped; others continue.
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// CodeWritebackFailed: front-matter could not be persisted after a
	// successful remote mutation. Downgraded to a warning; the next run
	// reconciles via the embedded UUID marker.
	CodeWritebackFailed ErrorCode = "WRITEBACK_FAILED"

	// CodeInteractiveUnavailable: the interactive strategy reached the core,
	// which cannot prompt. The caller is expected to.
	CodeInteractiveUnavailable ErrorCode = "INTERACTIVE_UNAVAILABLE"
)

// SyncError is the sum-of-kinds error type used across the engine and
// adapters: a taxonomy code, a human message, and the original cause for
// debugging.
type SyncError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error formats the error as "CODE: message" with the cause appended.
func (e *SyncError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the original cause, preserving the chain for errors.Is/As.
func (e *SyncError) Unwrap() error {
	return e.Err
}

// --- Constructors, one per taxonomy entry ------------------------------------

// ErrAuthRequired reports a failed credentials probe for the named platform.
func ErrAuthRequired(platform string) *SyncError {
	return &SyncError{
		Code:    CodeAuthRequired,
		Message: fmt.Sprintf("not authenticated with %s; check your tracker credentials", platform),
	}
}

// ErrUUIDMismatch reports that issue number refers to a remote with embedded
// UUID remoteID while the local spec carries localID. Both ids appear in the
// message so the operator can decide which identity to keep.
func ErrUUIDMismatch(number int, localID, remoteID string) *SyncError {
	return &SyncError{
		Code: CodeUUIDMismatch,
		Message: fmt.Sprintf(
			"issue #%d carries spec_id %s but local front-matter has %s; use --force to create a new issue",
			number, remoteID, localID),
	}
}

// ErrSyncConflict reports an unresolved conflict for a named spec.
func ErrSyncConflict(name string, conflicts []string) *SyncError {
	msg := fmt.Sprintf("spec %q has unresolved conflicts", name)
	if len(conflicts) > 0 {
		msg = fmt.Sprintf("spec %q has unresolved conflicts: %s", name, conflicts[0])
	}
	return &SyncError{Code: CodeSyncConflict, Message: msg}
}

// ErrRemoteUnavailable wraps a transport or subprocess failure after retry.
func ErrRemoteUnavailable(op string, err error) *SyncError {
	return &SyncError{
		Code:    CodeRemoteUnavailable,
		Message: fmt.Sprintf("tracker unreachable during %s", op),
		Err:     err,
	}
}

// ErrValidationFailed wraps a front-matter schema violation for one spec.
func ErrValidationFailed(name string, err error) *SyncError {
	return &SyncError{
		Code:    CodeValidationFailed,
		Message: fmt.Sprintf("spec %q has invalid front-matter", name),
		Err:     err,
	}
}

// ErrWritebackFailed wraps a failed front-matter persist after a successful
// remote mutation.
func ErrWritebackFailed(path string, err error) *SyncError {
	return &SyncError{
		Code:    CodeWritebackFailed,
		Message: fmt.Sprintf("remote updated but front-matter write to %q failed; next sync will reconcile via the embedded spec_id marker", path),
		Err:     err,
	}
}

// ErrInteractiveUnavailable reports that interactive resolution must happen
// in the caller.
func ErrInteractiveUnavailable() *SyncError {
	return &SyncError{
		Code:    CodeInteractiveUnavailable,
		Message: "interactive conflict resolution is not available here; choose a strategy or run from a terminal",
	}
}

// --- Inspection helpers -------------------------------------------------------

// CodeOf extracts the taxonomy code from err's chain. The second return is
// false when no SyncError is present.
func CodeOf(err error) (ErrorCode, bool) {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return "", false
}

// IsCode reports whether err's chain contains a SyncError with the given code.
func IsCode(err error, code ErrorCode) bool {
	got, ok := CodeOf(err)
	return ok && got == code
}
