package grpc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	gogrpc "google.golang.org/grpc"
)

func TestDialWithHealthSuccess(t *testing.T) {
	srv := startHealthServer(t, true)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := DialWithHealth(ctx, nil, srv.Addr(), "gridsnake.arena", time.Second, zerolog.Nop(), DefaultClientDialOptions()...)
	if err != nil {
		t.Fatalf("dial with health: %v", err)
	}
	if conn == nil {
		t.Fatal("expected connection")
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("close conn: %v", err)
	}
}

func TestDialWithHealthUsesDialTimeoutForHealth(t *testing.T) {
	srv := startHealthServer(t, false)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	conn, err := DialWithHealth(ctx, nil, srv.Addr(), "", 150*time.Millisecond, zerolog.Nop(), DefaultClientDialOptions()...)
	if err == nil {
		t.Fatal("expected error")
	}
	if conn != nil {
		_ = conn.Close()
		t.Fatal("expected nil connection on error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("expected dial timeout to bound health check, took %v", elapsed)
	}
}

func TestDialWithHealthErrorStages(t *testing.T) {
	t.Run("connect", func(t *testing.T) {
		dialer := DialerFunc(func(_ string, _ ...gogrpc.DialOption) (*gogrpc.ClientConn, error) {
			return nil, fmt.Errorf("dial failure")
		})

		_, err := DialWithHealth(context.Background(), dialer, "unused", "", time.Second, zerolog.Nop())
		var dialErr *DialError
		if !errors.As(err, &dialErr) {
			t.Fatalf("expected DialError, got %T", err)
		}
		if dialErr.Stage != DialStageConnect {
			t.Fatalf("stage = %q, want %q", dialErr.Stage, DialStageConnect)
		}
	})

	t.Run("health", func(t *testing.T) {
		srv := startHealthServer(t, false)

		_, err := DialWithHealth(context.Background(), nil, srv.Addr(), "", 300*time.Millisecond, zerolog.Nop(), DefaultClientDialOptions()...)
		var dialErr *DialError
		if !errors.As(err, &dialErr) {
			t.Fatalf("expected DialError, got %T", err)
		}
		if dialErr.Stage != DialStageHealth {
			t.Fatalf("stage = %q, want %q", dialErr.Stage, DialStageHealth)
		}
	})
}

func TestDialErrorFormatting(t *testing.T) {
	wrapped := &DialError{Stage: DialStageConnect, Err: fmt.Errorf("boom")}
	if !strings.Contains(wrapped.Error(), "gRPC connect") {
		t.Fatalf("unexpected error: %s", wrapped.Error())
	}
	if wrapped.Unwrap() == nil {
		t.Fatal("expected wrapped error")
	}

	var nilErr *DialError
	if nilErr.Error() == "" {
		t.Fatal("expected fallback error message")
	}
	if nilErr.Unwrap() != nil {
		t.Fatal("expected nil unwrap for nil error")
	}
}

func TestNewHealthServerRequiresAddr(t *testing.T) {
	if _, err := NewHealthServer(" ", zerolog.Nop()); err == nil {
		t.Fatal("expected error for empty address")
	}
}

func TestHealthServerServeStopsOnCancel(t *testing.T) {
	srv, err := NewHealthServer("127.0.0.1:0", zerolog.Nop())
	if err != nil {
		t.Fatalf("new health server: %v", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ctx)
	}()

	time.Sleep(25 * time.Millisecond)
	cancel()

	select {
	case err := <-serveErr:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop on cancel")
	}
}
