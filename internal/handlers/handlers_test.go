package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/pandeptwidyaop/sndctl/internal/config"
	"github.com/pandeptwidyaop/sndctl/internal/database"
	"github.com/pandeptwidyaop/sndctl/internal/models"
	"github.com/pandeptwidyaop/sndctl/internal/router"
	"github.com/pandeptwidyaop/sndctl/internal/services"
	"github.com/pandeptwidyaop/sndctl/internal/sococli"
	"github.com/pandeptwidyaop/sndctl/internal/storage"
)

const testDocument = `[morning]
@description Wake up the kitchen
@category daily
@favorite
Kitchen volume 20
Kitchen play_fav "Jazz FM"

[set_volume]
@param room
@param level
%1 volume %2

[broken_step]
Kitchen volume 10
Kitchen fail
Kitchen play

[slow]
Kitchen slow
Kitchen play
`

// fakeSoco mimics the soco-cli HTTP API. The "slow" action blocks until gate
// is closed; "fail" exits 1.
type fakeSoco struct {
	gate  chan struct{}
	paths []string
	mu    sync.Mutex
}

func (f *fakeSoco) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.paths = append(f.paths, r.URL.Path)
	gate := f.gate
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/speakers":
		_ = json.NewEncoder(w).Encode([]string{"Kitchen", "Office"})
		return
	case "/rediscover":
		_ = json.NewEncoder(w).Encode(map[string][]string{"speakers_discovered": {"Kitchen", "Office", "Den"}})
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if len(parts) < 2 {
		http.NotFound(w, r)
		return
	}

	resp := models.CommandResponse{Speaker: parts[0], Action: parts[1], Args: parts[2:]}
	switch parts[1] {
	case "slow":
		if gate != nil {
			<-gate
		}
	case "fail":
		resp.ExitCode = 1
		resp.ErrorMsg = "Error: failed"
	case "list_favs":
		resp.Result = "1: Jazz FM\n2: Morning Mix"
	case "list_queue":
		resp.Result = "*>1: Artist: A1 | Album: B1 | Title: T1\n2: Just A Title"
	case "queue_length":
		resp.Result = "2"
	case "queue_position":
		resp.Result = "1"
	case "shuffle":
		resp.Result = "on"
	case "down":
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	default:
		resp.Result = parts[1] + " ok"
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *fakeSoco) Paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

type testEnv struct {
	router   *gin.Engine
	macros   *services.MacroService
	executor *services.ExecutorService
	audit    *services.AuditService
	store    *storage.MemoryStore
	soco     *fakeSoco
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	soco := &fakeSoco{gate: make(chan struct{})}
	server := httptest.NewServer(soco)
	t.Cleanup(server.Close)
	t.Cleanup(func() {
		soco.mu.Lock()
		defer soco.mu.Unlock()
		select {
		case <-soco.gate:
		default:
			close(soco.gate)
		}
	})

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	cfg.SocoCLI.URL = server.URL
	cfg.SocoCLI.Timeout = "5s"

	db, err := database.New(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	store := storage.NewMemoryStore(testDocument)
	macros, err := services.NewMacroService(store)
	if err != nil {
		t.Fatalf("failed to load macros: %v", err)
	}

	client := sococli.New(cfg.SocoCLI.URL, cfg.SocoCLI.GetTimeout())
	executor := services.NewExecutorService(macros, client, cfg)
	sonos := services.NewSonosService(client, cfg)
	audit := services.NewAuditService(db)

	return &testEnv{
		router:   router.New(cfg, macros, executor, sonos, audit),
		macros:   macros,
		executor: executor,
		audit:    audit,
		store:    store,
		soco:     soco,
	}
}

// release unblocks every pending "slow" command.
func (e *testEnv) release() {
	e.soco.mu.Lock()
	defer e.soco.mu.Unlock()
	select {
	case <-e.soco.gate:
	default:
		close(e.soco.gate)
	}
}

func (e *testEnv) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", w.Body.String(), err)
	}
}
