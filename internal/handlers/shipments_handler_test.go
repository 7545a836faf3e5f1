package handlers

import (
	"testing"

	"github.com/openfulfil/go-courier-sync/internal/status"
)

func TestCapabilities_SignalsStaleStatus(t *testing.T) {
	cls := status.Classify("", "", status.Hints{})
	if !cls.Uncertain {
		t.Fatal("empty carrier data must classify as uncertain")
	}

	caps := capabilities(&cls)
	stale, ok := caps["status_stale"].(bool)
	if !ok || !stale {
		t.Fatalf("capabilities = %v, want status_stale true", caps)
	}
}

func TestCapabilities_TerminalState(t *testing.T) {
	cls := status.Classify("DL", "Delivered", status.Hints{})

	caps := capabilities(&cls)
	if caps["is_terminal"] != true || caps["can_cancel"] != false {
		t.Fatalf("capabilities = %v", caps)
	}
	if caps["status_stale"] != false {
		t.Fatalf("delivered must not read as stale: %v", caps)
	}
}
