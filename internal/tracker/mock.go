package tracker

import (
	"context"
	"fmt"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/spec"
)

// Compile-time check that MockAdapter implements Adapter.
var _ Adapter = (*MockAdapter)(nil)

// MockAdapter is a configurable mock implementation of Adapter for testing.
// It records all calls and supports customizable behavior via function
// fields. The zero value authenticates successfully and pushes every
// document to sequential issue numbers.
type MockAdapter struct {
	// PlatformName is the value returned by Name(). Defaults to "mock".
	PlatformName string

	// Caps is returned by Capabilities().
	Caps Capabilities

	// AuthErr is returned by Authenticate; CheckAuth reports AuthErr == nil.
	AuthErr error

	// PushFunc overrides Push. When nil, Push assigns the next number in
	// sequence starting at 101 and returns a ref covering every file.
	PushFunc func(ctx context.Context, doc *spec.Document, opts PushOptions) (*RemoteRef, error)

	// StatusFunc overrides GetStatus. When nil, GetStatus reports
	// SyncStateLocal with HasChanges true.
	StatusFunc func(ctx context.Context, doc *spec.Document) (*SyncStatus, error)

	// PullFunc overrides Pull. When nil, Pull returns ErrNotFound.
	PullFunc func(ctx context.Context, ref RemoteRef, opts PullOptions) (*spec.Document, error)

	// ResolveFunc overrides ResolveConflict. When nil, strategy semantics
	// are: ours -> local, theirs -> remote, manual/interactive -> SyncError.
	ResolveFunc func(ctx context.Context, local, remote *spec.Document, strategy ConflictStrategy) (*spec.Document, error)

	// PushCalls records the document names passed to Push, in order.
	PushCalls []string
	// BatchCalls records the size of each PushBatch invocation.
	BatchCalls []int
	// StatusCalls records the document names passed to GetStatus, in order.
	StatusCalls []string

	nextNumber int
}

// NewMockAdapter creates a MockAdapter with batch and subtask capabilities
// disabled, suitable for exercising the engine's sequential paths.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{PlatformName: "mock"}
}

// Name returns the adapter's platform identifier.
func (m *MockAdapter) Name() string {
	if m.PlatformName == "" {
		return "mock"
	}
	return m.PlatformName
}

// Capabilities returns the configured capability set.
func (m *MockAdapter) Capabilities() Capabilities { return m.Caps }

// Authenticate returns AuthErr.
func (m *MockAdapter) Authenticate(context.Context) error { return m.AuthErr }

// CheckAuth reports whether Authenticate would succeed.
func (m *MockAdapter) CheckAuth(ctx context.Context) bool { return m.AuthErr == nil }

// Push records the call and delegates to PushFunc when set.
func (m *MockAdapter) Push(ctx context.Context, doc *spec.Document, opts PushOptions) (*RemoteRef, error) {
	m.PushCalls = append(m.PushCalls, doc.Name)
	if m.PushFunc != nil {
		return m.PushFunc(ctx, doc, opts)
	}

	if m.nextNumber == 0 {
		m.nextNumber = 101
	}
	parent := m.nextNumber
	m.nextNumber++

	ref := &RemoteRef{
		Number: parent,
		Type:   RefParent,
		SpecID: DocumentSpecID(doc),
		Files:  map[string]FileRef{},
	}
	if ref.SpecID == "" {
		ref.SpecID = spec.MintSpecID()
	}
	if doc.SpecFile() != nil {
		ref.Files[spec.FileSpec] = FileRef{Number: parent, SpecID: ref.SpecID}
	}
	for _, f := range doc.SubtaskFiles() {
		ref.Files[f.Filename] = FileRef{Number: m.nextNumber, SpecID: spec.MintSpecID()}
		m.nextNumber++
	}
	return ref, nil
}

// PushBatch records the call and pushes sequentially.
func (m *MockAdapter) PushBatch(ctx context.Context, docs []*spec.Document, opts PushOptions) ([]PushOutcome, error) {
	m.BatchCalls = append(m.BatchCalls, len(docs))
	return PushSequential(ctx, m, docs, opts)
}

// Pull delegates to PullFunc or reports the ref as unknown.
func (m *MockAdapter) Pull(ctx context.Context, ref RemoteRef, opts PullOptions) (*spec.Document, error) {
	if m.PullFunc != nil {
		return m.PullFunc(ctx, ref, opts)
	}
	return nil, fmt.Errorf("mock adapter: no issue #%d", ref.Number)
}

// GetStatus records the call and delegates to StatusFunc when set.
func (m *MockAdapter) GetStatus(ctx context.Context, doc *spec.Document) (*SyncStatus, error) {
	m.StatusCalls = append(m.StatusCalls, doc.Name)
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, doc)
	}
	return &SyncStatus{State: SyncStateLocal, HasChanges: true}, nil
}

// ResolveConflict delegates to ResolveFunc or applies the default strategy
// semantics.
func (m *MockAdapter) ResolveConflict(ctx context.Context, local, remote *spec.Document, strategy ConflictStrategy) (*spec.Document, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, local, remote, strategy)
	}
	switch strategy {
	case StrategyOurs:
		return local, nil
	case StrategyTheirs:
		return remote, nil
	case StrategyInteractive:
		return nil, ErrInteractiveUnavailable()
	default:
		return nil, ErrSyncConflict(local.Name, nil)
	}
}
