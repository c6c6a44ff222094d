package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnConcurrentWrites(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := Wrap(raw)
		defer conn.Close()

		var env RequestEnvelope
		if err := conn.ReadJSON(&env); err != nil || env.Action != ActionPing {
			return
		}

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = conn.WriteTyped(PongResponse{Event: EventPong})
			}()
		}
		wg.Wait()
		_ = conn.WriteError("done")
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.WriteJSON(RequestEnvelope{Action: ActionPing}))

	for i := 0; i < 10; i++ {
		var pong PongResponse
		require.NoError(t, client.ReadJSON(&pong))
		assert.Equal(t, EventPong, pong.Event)
	}
	var last ErrorResponse
	require.NoError(t, client.ReadJSON(&last))
	assert.Equal(t, EventError, last.Event)
	assert.Equal(t, "done", last.Error)
}
