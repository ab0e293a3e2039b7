package server

import (
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/philipparndt/stlslice/internal/config"
	"github.com/philipparndt/stlslice/internal/session"
	"github.com/philipparndt/stlslice/pkg/geometry"
	"github.com/philipparndt/stlslice/pkg/slicestack"
	"github.com/philipparndt/stlslice/pkg/stl"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, depths ...float64) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.View.PreviewWidth = 32
	cfg.View.PreviewHeight = 24

	sess := session.New(cfg, quietLogger())
	m := stl.NewModel("wall")
	m.AddTriangle(geometry.TriangleFromVertices(
		geometry.NewVector3(20, 50, -1),
		geometry.NewVector3(80, 50, -1),
		geometry.NewVector3(50, 50, 3),
	))
	sess.SetMesh(m)
	for i, d := range depths {
		raster := image.NewGray(image.Rect(0, 0, 100, 100))
		sess.AddSlice(slicestack.NewSlice(string(rune('a'+i)), d, raster, slicestack.AxisAligned(100, 100, d)), i == 0)
	}

	srv := New(sess, cfg, quietLogger())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readState(t *testing.T, conn *websocket.Conn) session.State {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var st session.State
	if err := conn.ReadJSON(&st); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return st
}

func TestIndex(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "slider") {
		t.Errorf("unexpected index response %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown path, got %d", resp.StatusCode)
	}
}

func TestState(t *testing.T) {
	_, ts := newTestServer(t, 0, 1, 2)

	resp, err := http.Get(ts.URL + "/api/state")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var st session.State
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if st.SliceCount != 3 || st.Triangles != 1 || st.Name != "a" {
		t.Errorf("unexpected state %+v", st)
	}
}

func TestImagesWithoutSlices(t *testing.T) {
	_, ts := newTestServer(t)

	for _, path := range []string{"/api/overlay.png", "/api/scene.png"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, resp.StatusCode)
		}
	}
}

func TestImages(t *testing.T) {
	_, ts := newTestServer(t, 0)

	tests := []struct {
		path string
		size image.Point
	}{
		{"/api/overlay.png", image.Pt(100, 100)},
		{"/api/scene.png?yaw=1&pitch=0.2", image.Pt(32, 24)},
	}

	for _, tt := range tests {
		resp, err := http.Get(ts.URL + tt.path)
		if err != nil {
			t.Fatal(err)
		}
		img, err := png.Decode(resp.Body)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("%s: not a PNG: %v", tt.path, err)
		}
		if img.Bounds().Size() != tt.size {
			t.Errorf("%s: expected size %v, got %v", tt.path, tt.size, img.Bounds().Size())
		}
	}

	resp, err := http.Get(ts.URL + "/api/scene.png?yaw=left")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad yaw, got %d", resp.StatusCode)
	}
}

func TestWebSocketSelect(t *testing.T) {
	_, ts := newTestServer(t, 0, 1, 2)

	conn := dial(t, ts)
	first := readState(t, conn)
	if first.CurrentIndex != 0 {
		t.Errorf("expected initial index 0, got %d", first.CurrentIndex)
	}

	if err := conn.WriteJSON(map[string]any{"percent": 0, "crop": true}); err != nil {
		t.Fatal(err)
	}
	st := readState(t, conn)
	if st.CurrentIndex != 2 || !st.Crop || *st.Depth != 2 {
		t.Errorf("unexpected state after select %+v", st)
	}

	// a message without percent keeps the slider where it is
	if err := conn.WriteJSON(map[string]any{"crop": false}); err != nil {
		t.Fatal(err)
	}
	st = readState(t, conn)
	if st.CurrentIndex != 2 || st.Crop {
		t.Errorf("unexpected state after crop toggle %+v", st)
	}
}

func TestWebSocketCropKeepsSlice(t *testing.T) {
	_, ts := newTestServer(t, 0, 1, 2)

	conn := dial(t, ts)
	readState(t, conn)

	// the shown slice is not at the default slider position
	if err := conn.WriteJSON(map[string]any{"crop": true}); err != nil {
		t.Fatal(err)
	}
	if st := readState(t, conn); st.CurrentIndex != 0 || !st.Crop {
		t.Errorf("expected index 0 with crop, got %+v", st)
	}
}

func TestWebSocketBroadcast(t *testing.T) {
	srv, ts := newTestServer(t, 0, 1)

	a := dial(t, ts)
	b := dial(t, ts)
	readState(t, a)
	readState(t, b)

	if err := a.WriteJSON(map[string]any{"percent": 0}); err != nil {
		t.Fatal(err)
	}
	if st := readState(t, b); st.CurrentIndex != 1 {
		t.Errorf("expected broadcast index 1, got %d", st.CurrentIndex)
	}
	readState(t, a)

	srv.Broadcast()
	if st := readState(t, b); st.CurrentIndex != 1 {
		t.Errorf("expected broadcast index 1, got %d", st.CurrentIndex)
	}
}

func TestWebSocketInvalidMessage(t *testing.T) {
	_, ts := newTestServer(t, 0, 1)

	conn := dial(t, ts)
	readState(t, conn)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{")); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(map[string]any{"percent": 0}); err != nil {
		t.Fatal(err)
	}
	if st := readState(t, conn); st.CurrentIndex != 1 {
		t.Errorf("connection did not survive a bad message, index %d", st.CurrentIndex)
	}
}

func TestRunShutdown(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()

	cfg := config.DefaultConfig()
	cfg.Server.Addr = addr
	srv := New(session.New(cfg, quietLogger()), cfg, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://" + addr + "/api/state")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server did not come up: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
