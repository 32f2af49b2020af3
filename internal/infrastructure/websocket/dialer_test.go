package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"auction-client/pkg/logger"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStreamServer(t *testing.T, release <-chan struct{}) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	r := mux.NewRouter()
	r.HandleFunc("/ws/{auction_id}", func(w http.ResponseWriter, req *http.Request) {
		if mux.Vars(req)["auction_id"] != "42" || req.URL.Query().Get("token") != "abc" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"price": 150, "dealer_id": 7}`))
		<-release
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"))
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestDialer_StreamURL(t *testing.T) {
	tests := []struct {
		base    string
		want    string
		wantErr bool
	}{
		{base: "ws://localhost:8000", want: "ws://localhost:8000/ws/5?token=t%2Bk"},
		{base: "http://localhost:8000/", want: "ws://localhost:8000/ws/5?token=t%2Bk"},
		{base: "https://api.example.com/v1", want: "wss://api.example.com/v1/ws/5?token=t%2Bk"},
		{base: "ftp://example.com", wantErr: true},
	}
	for _, tt := range tests {
		d := NewDialer(tt.base, time.Second, logger.NewNop())
		got, err := d.StreamURL(5, "t+k")
		if tt.wantErr {
			assert.Error(t, err, tt.base)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestDialer_ReadsFramesUntilServerCloses(t *testing.T) {
	release := make(chan struct{})
	srv := newStreamServer(t, release)
	d := NewDialer(srv.URL, time.Second, logger.NewNop())

	tr, err := d.Dial(context.Background(), 42, "abc")
	require.NoError(t, err)
	defer tr.Close()

	frame, err := tr.ReadFrame()
	require.NoError(t, err)
	assert.JSONEq(t, `{"price": 150, "dealer_id": 7}`, string(frame))

	close(release)
	_, err = tr.ReadFrame()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway))
}

func TestDialer_RejectedHandshake(t *testing.T) {
	srv := newStreamServer(t, make(chan struct{}))
	d := NewDialer(srv.URL, time.Second, logger.NewNop())

	_, err := d.Dial(context.Background(), 42, "wrong")

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "403"), err.Error())
}

func TestTransport_CloseUnblocksRead(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	srv := newStreamServer(t, release)
	d := NewDialer(srv.URL, time.Second, logger.NewNop())

	tr, err := d.Dial(context.Background(), 42, "abc")
	require.NoError(t, err)
	_, err = tr.ReadFrame()
	require.NoError(t, err)

	readErr := make(chan error, 1)
	go func() {
		_, err := tr.ReadFrame()
		readErr <- err
	}()

	require.NoError(t, tr.Close())
	assert.NoError(t, tr.Close())

	select {
	case err := <-readErr:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ReadFrame did not return after Close")
	}
}
