package app

import (
	"os"
	"sync"
	"sync/atomic"
)

// testModeEnv gates runtime side effects such as opening real pools.
const testModeEnv = "TASKHIVE_TEST_MODE"

var testMode struct {
	sync.Once
	on atomic.Bool
}

// InTestMode reports whether TASKHIVE_TEST_MODE=1 was set. The first
// lookup is cached; use RefreshTestMode after flipping the variable.
func InTestMode() bool {
	testMode.Do(RefreshTestMode)
	return testMode.on.Load()
}

// RefreshTestMode re-reads the environment.
func RefreshTestMode() {
	testMode.on.Store(os.Getenv(testModeEnv) == "1")
}
