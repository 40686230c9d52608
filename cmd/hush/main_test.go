package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hushd/hush/internal/config"
	"github.com/hushd/hush/internal/ingest"
	"github.com/hushd/hush/internal/store/memory"
)

// TestEnsureDataDir verifies directory creation for a fresh path.
func TestEnsureDataDir(t *testing.T) {
	tmp := t.TempDir()
	data := filepath.Join(tmp, "data-root")
	got := ensureDataDir(data)
	if got != data {
		t.Fatalf("data dir mismatch got %s want %s", got, data)
	}
	st, err := os.Stat(got)
	if err != nil {
		t.Fatalf("data dir stat: %v", err)
	}
	if !st.IsDir() {
		t.Fatalf("expected directory")
	}
}

// TestBuildService validates service field propagation.
func TestBuildService(t *testing.T) {
	cfg := &config.Config{DefaultTTL: time.Minute, MaxTTL: 2 * time.Minute}
	clock := realClock{}
	s := buildService(memory.New(clock), cfg, clock)
	if s.DefaultTTL != time.Minute || s.MaxTTL != 2*time.Minute {
		t.Fatalf("TTL mismatch")
	}
	if s.Store == nil || s.Clock == nil {
		t.Fatalf("expected store and clock wired")
	}
}

func TestOpenStoreMemory(t *testing.T) {
	cfg := &config.Config{Store: "memory"}
	st := openStore(cfg, realClock{})
	t.Cleanup(func() { st.Close() })
	if _, ok := st.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", st)
	}
}

func TestOpenQueue(t *testing.T) {
	if q := openQueue(&config.Config{Store: "memory"}); q != nil {
		t.Fatalf("expected no queue when ingest disabled")
	}
	q := openQueue(&config.Config{Store: "memory", IngestEnabled: true})
	if _, ok := q.(*ingest.MemQueue); !ok {
		t.Fatalf("expected in-process queue for memory store, got %T", q)
	}
}

// TestNewServer ensures timeouts and addr applied.
func TestNewServer(t *testing.T) {
	cfg := &config.Config{Addr: ":9999"}
	srv := newServer(cfg, http.NewServeMux())
	if srv.Addr != ":9999" {
		t.Fatalf("addr mismatch got %s", srv.Addr)
	}
	if srv.ReadTimeout == 0 || srv.WriteTimeout == 0 {
		t.Fatalf("expected non-zero timeouts")
	}
}

// TestBuildHandler exercises basic route wiring over the memory store.
func TestBuildHandler_Routes(t *testing.T) {
	cfg := &config.Config{Store: "memory", DefaultTTL: time.Hour, MaxTTL: 2 * time.Hour}
	clock := realClock{}
	st := memory.New(clock)
	t.Cleanup(func() { st.Close() })
	svc := buildService(st, cfg, clock)
	h := buildHandler(svc, st, nil)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/secrets/0123456789abcdef0123456789abcdef", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown secret status = %d, want 404", rec.Code)
	}
}
