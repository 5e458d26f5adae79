package factory

import (
	"time"

	"github.com/mcoot/gomoku-arena/internal/dependencies/mocks"
	"github.com/mcoot/gomoku-arena/internal/storage/memory"
	"github.com/mcoot/gomoku-arena/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	MockIDs    *mocks.MockIDGenerator
	MockOracle *mocks.MockOracle
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockIDs := mocks.NewMockIDGenerator()
	mockOracle := mocks.NewMockOracle()

	deps := dependencies{
		storage: memory.New(),
		clock:   mockClock,
		random:  mockRandom,
		ids:     mockIDs,
		oracle:  mockOracle,
	}
	app := newWithDependencies(deps, Config{}, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		MockIDs:    mockIDs,
		MockOracle: mockOracle,
	}
}
