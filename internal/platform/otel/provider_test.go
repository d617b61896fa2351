package otel_test

import (
	"context"
	"testing"

	"github.com/louisbranch/gridsnake/internal/platform/otel"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		enabled  string
	}{
		// Unset endpoint keeps tracing off.
		{name: "noop when endpoint empty", endpoint: "", enabled: ""},
		{name: "noop when explicitly disabled", endpoint: "http://localhost:4318", enabled: "false"},
		// Non-routable address so nothing is exported.
		{name: "provider when endpoint set", endpoint: "http://192.0.2.1:4318", enabled: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GRIDSNAKE_OTEL_ENDPOINT", tt.endpoint)
			t.Setenv("GRIDSNAKE_OTEL_ENABLED", tt.enabled)

			shutdown, err := otel.Setup(context.Background(), "arena")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := shutdown(context.Background()); err != nil {
				t.Fatalf("shutdown error: %v", err)
			}
		})
	}
}

func TestSetupNoopShutdownIgnoresCancelledContext(t *testing.T) {
	t.Setenv("GRIDSNAKE_OTEL_ENDPOINT", "")
	t.Setenv("GRIDSNAKE_OTEL_ENABLED", "")

	shutdown, err := otel.Setup(context.Background(), "arena")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("noop shutdown should not error: %v", err)
	}
}
