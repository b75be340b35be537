package helpers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/apreader/client/pkg/client/modules/catalog"
	"github.com/apreader/client/pkg/client/modules/notify"
	"github.com/apreader/client/pkg/client/modules/protocol"
	"github.com/apreader/client/pkg/client/modules/roster"
	"github.com/apreader/client/pkg/compositor"
	"github.com/apreader/client/pkg/config"
)

func testConfig(uri string) config.Config {
	cfg := config.Default()
	cfg.ServerURI = uri
	cfg.PlayerName = "Alice"
	cfg.Game = "A Link to the Past"
	cfg.Interactive = false
	return cfg
}

func TestNewClient(t *testing.T) {
	cfg := testConfig("ws://localhost:38281")
	cfg.Password = "secret"
	cfg.TargetPlayers = []string{"Alice"}
	cfg.CatalogGames = []string{"A Link to the Past"}
	cfg.MaxMessageSize = 1024

	c := NewClient(cfg)
	if c.Address != cfg.ServerURI || c.Username != "Alice" || c.Game != cfg.Game || c.Password != "secret" {
		t.Errorf("connection fields not copied: %+v", c)
	}
	if c.MaxMessageSize != 1024 {
		t.Errorf("MaxMessageSize = %d", c.MaxMessageSize)
	}
	if len(c.TargetPlayers) != 1 || len(c.CatalogGames) != 1 {
		t.Errorf("filters not copied: %v %v", c.TargetPlayers, c.CatalogGames)
	}
	for _, name := range []string{protocol.ModuleName, roster.ModuleName, catalog.ModuleName, notify.ModuleName} {
		if c.Module(name) == nil {
			t.Errorf("module %q not registered", name)
		}
	}
}

type lines struct {
	mu   sync.Mutex
	text []string
}

func (l *lines) Notify(b compositor.Bucket, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.text = append(l.text, string(b)+": "+text)
}

func (l *lines) SetConnectionState(string, bool) {}

// foundServer sends one show-all "found" event and closes.
func foundServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`[{"cmd":"Connected","players":[{"slot":1,"name":"Alice","alias":"Alice"}],"slot_info":{}}]`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`[{"cmd":"PrintJSON","data":[{"type":"player_id","text":"1"},{"text":" found "},{"type":"item_id","text":"5"}]}]`))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunHeadless(t *testing.T) {
	srv := foundServer(t)

	c := NewClient(testConfig("ws" + strings.TrimPrefix(srv.URL, "http")))
	var logs bytes.Buffer
	c.Logger.SetOutput(&logs)
	extra := &lines{}

	if err := Run(context.Background(), c, false, 10, extra); err != nil {
		t.Fatalf("Run: %v", err)
	}

	out := logs.String()
	if n := strings.Count(out, "📢 Alice found Item 5"); n != 1 {
		t.Errorf("notification logged %d times, want once:\n%s", n, out)
	}
	if strings.Contains(out, "[incoming]") {
		t.Errorf("per-bucket lines need verbose:\n%s", out)
	}
	if !strings.Contains(out, "status: Connected") {
		t.Errorf("log display missing status:\n%s", out)
	}
	extra.mu.Lock()
	defer extra.mu.Unlock()
	if len(extra.text) != 2 {
		t.Errorf("extra display got %q", extra.text)
	}
}

func TestRunHeadlessVerbose(t *testing.T) {
	srv := foundServer(t)

	cfg := testConfig("ws" + strings.TrimPrefix(srv.URL, "http"))
	cfg.Verbose = true
	c := NewClient(cfg)
	var logs bytes.Buffer
	c.Logger.SetOutput(&logs)

	if err := Run(context.Background(), c, false, 10); err != nil {
		t.Fatalf("Run: %v", err)
	}

	out := logs.String()
	for _, want := range []string{"[incoming] 📢 Alice found Item 5", "[outgoing] 📢 Alice found Item 5"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q:\n%s", want, out)
		}
	}
}
