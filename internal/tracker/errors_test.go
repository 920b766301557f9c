package tracker

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncError_Error(t *testing.T) {
	t.Parallel()

	e := &SyncError{Code: CodeSyncConflict, Message: "both sides changed"}
	assert.Equal(t, "SYNC_CONFLICT: both sides changed", e.Error())

	cause := errors.New("connection refused")
	e = &SyncError{Code: CodeRemoteUnavailable, Message: "tracker unreachable", Err: cause}
	assert.Equal(t, "REMOTE_UNAVAILABLE: tracker unreachable: connection refused", e.Error())
}

func TestSyncError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	e := ErrRemoteUnavailable("issue create", cause)
	assert.ErrorIs(t, e, cause)
}

func TestErrUUIDMismatch_CarriesBothIDs(t *testing.T) {
	t.Parallel()

	localID := "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"
	remoteID := "bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb"
	e := ErrUUIDMismatch(789, localID, remoteID)

	assert.Equal(t, CodeUUIDMismatch, e.Code)
	assert.Contains(t, e.Message, localID)
	assert.Contains(t, e.Message, remoteID)
	assert.Contains(t, e.Message, "#789")
}

func TestErrSyncConflict_IncludesFirstConflict(t *testing.T) {
	t.Parallel()

	e := ErrSyncConflict("001-add-auth", []string{"remote updated after last sync", "local edits pending"})
	assert.Contains(t, e.Message, "001-add-auth")
	assert.Contains(t, e.Message, "remote updated after last sync")

	// No conflict details still yields a usable message.
	e = ErrSyncConflict("001-add-auth", nil)
	assert.Contains(t, e.Message, "001-add-auth")
}

func TestCodeOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
		wantOK   bool
	}{
		{name: "direct", err: ErrAuthRequired("github"), wantCode: CodeAuthRequired, wantOK: true},
		{name: "wrapped", err: fmt.Errorf("syncing: %w", ErrWritebackFailed("specs/a/spec.md", errors.New("disk full"))), wantCode: CodeWritebackFailed, wantOK: true},
		{name: "plain error", err: errors.New("nope"), wantCode: "", wantOK: false},
		{name: "nil", err: nil, wantCode: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, ok := CodeOf(tt.err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestIsCode(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("outer: %w", ErrInteractiveUnavailable())
	assert.True(t, IsCode(err, CodeInteractiveUnavailable))
	assert.False(t, IsCode(err, CodeSyncConflict))
	assert.False(t, IsCode(errors.New("plain"), CodeSyncConflict))
}

func TestErrValidationFailed_PreservesCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("sync_hash \"xyz\" must match [a-f0-9]{12}")
	e := ErrValidationFailed("002-rate-limits", cause)

	require.ErrorIs(t, e, cause)
	assert.True(t, IsCode(e, CodeValidationFailed))
}
