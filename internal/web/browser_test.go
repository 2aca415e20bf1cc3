package web

import (
	"strings"
	"testing"
)

// The hint commands are printed verbatim for operators; the lsof invocations
// must not drift.
func TestPortInUseHints(t *testing.T) {
	hints := PortInUseHints(8001)

	if len(hints) != 2 {
		t.Fatalf("hints = %d, want 2", len(hints))
	}
	if want := "ps -p $(lsof -t -i:8001) -o pid,ppid,command"; !strings.Contains(hints[0], want) {
		t.Errorf("hints[0] = %q, want it to contain %q", hints[0], want)
	}
	if want := "kill -9 $(lsof -t -i:8001)"; !strings.Contains(hints[1], want) {
		t.Errorf("hints[1] = %q, want it to contain %q", hints[1], want)
	}
}

func TestPortInUseHints_UsesGivenPort(t *testing.T) {
	hints := PortInUseHints(9123)

	for i, hint := range hints {
		if !strings.Contains(hint, "lsof -t -i:9123") {
			t.Errorf("hints[%d] = %q, want port 9123", i, hint)
		}
	}
}
