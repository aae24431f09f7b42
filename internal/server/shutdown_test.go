package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"sales-explorer/internal/config"
)

func startGraceful(t *testing.T, hooks map[string]func(context.Context) error, order []string) (cancel context.CancelFunc, addr string, done <-chan error) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	httpServer := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})}
	gs := NewGracefulServer(httpServer, slog.New(slog.NewTextHandler(io.Discard, nil)),
		config.ServerConfig{ShutdownTimeout: 5 * time.Second})
	for _, name := range order {
		gs.RegisterShutdownHook(name, hooks[name])
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- gs.Serve(ctx, ln) }()

	return cancel, "http://" + ln.Addr().String(), errCh
}

func TestGracefulServer_RunsHooksInOrder(t *testing.T) {
	var ran []string
	hook := func(name string) func(context.Context) error {
		return func(context.Context) error {
			ran = append(ran, name)
			return nil
		}
	}
	hooks := map[string]func(context.Context) error{"explorer": hook("explorer"), "logger": hook("logger")}

	cancel, addr, done := startGraceful(t, hooks, []string{"explorer", "logger"})

	resp, err := http.Get(addr + "/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	if len(ran) != 2 || ran[0] != "explorer" || ran[1] != "logger" {
		t.Errorf("hooks ran %v, want [explorer logger]", ran)
	}
}

func TestGracefulServer_HookError(t *testing.T) {
	boom := errors.New("boom")
	hooks := map[string]func(context.Context) error{
		"failing": func(context.Context) error { return boom },
	}

	cancel, _, done := startGraceful(t, hooks, []string{"failing"})
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, boom) {
			t.Errorf("Serve() = %v, want wrapped boom", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
