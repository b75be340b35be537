package status

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/apreader/client/pkg/compositor"
)

func TestBoardCapsEachBucket(t *testing.T) {
	b := NewBoard(2)
	for i := 0; i < 4; i++ {
		b.Notify(compositor.Incoming, fmt.Sprintf("in %d", i))
	}
	b.Notify(compositor.Outgoing, "out 0")

	in := b.Entries(compositor.Incoming)
	if len(in) != 2 || in[0].Text != "in 2" || in[1].Text != "in 3" {
		t.Errorf("incoming = %+v", in)
	}
	if out := b.Entries(compositor.Outgoing); len(out) != 1 {
		t.Errorf("outgoing = %+v", out)
	}

	st := b.State()
	if st.Counts[compositor.Incoming] != 2 || st.Counts[compositor.Outgoing] != 1 {
		t.Errorf("counts = %v", st.Counts)
	}
}

func TestBoardEntriesIsACopy(t *testing.T) {
	b := NewBoard(0)
	b.Notify(compositor.Incoming, "a")
	got := b.Entries(compositor.Incoming)
	got[0].Text = "changed"
	if b.Entries(compositor.Incoming)[0].Text != "a" {
		t.Error("Entries exposed internal storage")
	}
}

func TestBoardConnectionState(t *testing.T) {
	b := NewBoard(10)
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	b.now = func() time.Time { return fixed }

	if st := b.State(); st.Connected || st.Label != "Not connected" {
		t.Errorf("initial state = %+v", st)
	}
	b.SetConnectionState("Connected", true)
	st := b.State()
	if !st.Connected || st.Label != "Connected" || !st.Since.Equal(fixed) {
		t.Errorf("state = %+v", st)
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *Board) {
	t.Helper()
	board := NewBoard(10)
	srv := httptest.NewServer(NewServer("", board, "1.2.3", nil).Handler())
	t.Cleanup(srv.Close)
	return srv, board
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, body
}

func TestRoutes(t *testing.T) {
	srv, board := newTestServer(t)
	board.SetConnectionState("Connected", true)
	board.Notify(compositor.Outgoing, "📢 Alice sent Lamp to Bob")

	tests := []struct {
		path        string
		status      int
		contentType string
		contains    string
	}{
		{"/healthz", http.StatusOK, "text/plain; charset=utf-8", "Ok"},
		{"/version", http.StatusOK, "text/plain; charset=utf-8", "apreader v1.2.3"},
		{"/state", http.StatusOK, "application/json", `"label":"Connected"`},
		{"/notifications/outgoing", http.StatusOK, "application/json", "Alice sent Lamp"},
		{"/notifications/incoming", http.StatusOK, "application/json", "[]"},
		{"/notifications/sideways", http.StatusNotFound, "", "unknown bucket"},
		{"/missing", http.StatusNotFound, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := get(t, srv.URL+tt.path)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if tt.contentType != "" && resp.Header.Get("Content-Type") != tt.contentType {
				t.Errorf("content type = %q", resp.Header.Get("Content-Type"))
			}
			if !strings.Contains(string(body), tt.contains) {
				t.Errorf("body %q does not contain %q", body, tt.contains)
			}
		})
	}
}

func TestNotificationsJSON(t *testing.T) {
	srv, board := newTestServer(t)
	board.Notify(compositor.Incoming, "first")
	board.Notify(compositor.Incoming, "second")

	_, body := get(t, srv.URL+"/notifications/incoming")
	var entries []Entry
	if err := json.Unmarshal(body, &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 || entries[0].Text != "first" || entries[1].Bucket != compositor.Incoming {
		t.Errorf("entries = %+v", entries)
	}
}

func TestQRCode(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, body := get(t, srv.URL+"/qr")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("Content-Type") != "image/png" {
		t.Errorf("content type = %q", resp.Header.Get("Content-Type"))
	}
	if !bytes.HasPrefix(body, []byte("\x89PNG")) {
		t.Error("body is not a png")
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	s := NewServer(ln.Addr().String(), NewBoard(1), "test", nil)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Serve(ctx, ln) }()

	// wait until the server answers
	url := "http://" + ln.Addr().String() + "/healthz"
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never came up: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
