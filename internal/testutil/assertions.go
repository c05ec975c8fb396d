package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertLogged checks that a log record containing every fragment was written.
func AssertLogged(t *testing.T, logs *SafeBuffer, fragments ...string) {
	t.Helper()

	for _, line := range strings.Split(logs.String(), "\n") {
		matched := true
		for _, f := range fragments {
			if !strings.Contains(line, f) {
				matched = false
				break
			}
		}
		if matched && line != "" {
			return
		}
	}
	require.Failf(t, "log record not found", "expected a record containing %q in:\n%s", fragments, logs.String())
}
