// Package testing switches TASKHIVE_TEST_MODE on for any test binary
// that blank-imports it, so handlers under test never reach for real
// infrastructure.
package testing

import (
	"os"
	stdtesting "testing"
)

func init() {
	if os.Getenv("TASKHIVE_TEST_MODE") == "" {
		_ = os.Setenv("TASKHIVE_TEST_MODE", "1")
	}
}

func TestMain(m *stdtesting.M) {
	os.Exit(m.Run())
}
