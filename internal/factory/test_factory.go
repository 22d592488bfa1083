package factory

import (
	"time"

	"github.com/mcoot/dilemmagame/internal/dependencies/mocks"
	"github.com/mcoot/dilemmagame/internal/services/session"
	"github.com/mcoot/dilemmagame/internal/storage/memory"
	"github.com/mcoot/dilemmagame/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	Memory     *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	return NewTestAppWithConfig(session.DefaultConfig())
}

// NewTestAppWithConfig creates a test App with the given session policy
func NewTestAppWithConfig(cfg session.Config) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, mockClock, mockRandom, cfg, nil, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Memory:     store,
	}
}
