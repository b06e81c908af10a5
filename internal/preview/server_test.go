package preview

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mheir/blogsmith/internal/config"
)

func testServer() *Server {
	return NewServer(&config.Config{
		Preview: config.PreviewConfig{Port: 1313},
	}, "")
}

func TestEventsStreamReceivesBroadcast(t *testing.T) {
	s := testServer()
	srv := httptest.NewServer(http.HandlerFunc(s.handleEvents))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// Wait for the client to register before broadcasting.
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.clients) == 1
	}, 2*time.Second, 10*time.Millisecond)

	s.broadcast("reload")

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "data: reload\n", line)
}

func TestBroadcastDropsSlowClients(t *testing.T) {
	s := testServer()
	ch := make(chan string) // unbuffered, never read
	s.addClient(ch)
	defer s.removeClient(ch)

	done := make(chan struct{})
	go func() {
		s.broadcast("reload")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}
}

func TestNoCacheHeader(t *testing.T) {
	h := noCache(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}
