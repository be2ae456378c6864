package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/tests"
)

type payload struct {
	StudentID string `json:"student_id"`
	Progress  int    `json:"progress"`
}

func TestHub_Publish(t *testing.T) {
	hub := NewHub(&testutil.Logger{}, 4, nil)
	queue, unsubscribe := hub.Subscribe("course-1")
	other, unsubscribeOther := hub.Subscribe("course-2")
	defer unsubscribeOther()

	hub.Publish("course-1", payload{StudentID: "s-1", Progress: 25})

	select {
	case frame := <-queue:
		var msg Message
		require.NoError(t, json.Unmarshal(frame, &msg))
		assert.Equal(t, EventProgressUpdate, msg.Event)
		assert.Equal(t, "course-1", msg.Topic)
		assert.JSONEq(t, `{"student_id":"s-1","progress":25}`, string(msg.Data))
	default:
		t.Fatal("event not delivered")
	}
	assert.Len(t, other, 0)

	unsubscribe()
	unsubscribe()
	_, ok := <-queue
	assert.False(t, ok, "queue should be closed")
	assert.Equal(t, 0, hub.Subscribers("course-1"))
	assert.Equal(t, 1, hub.Subscribers("course-2"))
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	hub := NewHub(&testutil.Logger{}, 2, nil)
	queue, unsubscribe := hub.Subscribe("course-1")
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i <= 10; i++ {
			hub.Publish("course-1", payload{Progress: i * 10})
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full queue")
	}

	// the first events are kept, in order
	var msg Message
	require.NoError(t, json.Unmarshal(<-queue, &msg))
	assert.JSONEq(t, `{"student_id":"","progress":10}`, string(msg.Data))
	require.NoError(t, json.Unmarshal(<-queue, &msg))
	assert.JSONEq(t, `{"student_id":"","progress":20}`, string(msg.Data))
	assert.Len(t, queue, 0)
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(&testutil.Logger{}, 1, nil)
	queue, unsubscribe := hub.Subscribe("course-1")
	hub.Close()
	unsubscribe() // no double close

	_, ok := <-queue
	assert.False(t, ok)

	queue, _ = hub.Subscribe("course-1")
	_, ok = <-queue
	assert.False(t, ok, "subscribing to a closed hub")
	hub.Publish("course-1", payload{})
}

func TestHub_ServeWS(t *testing.T) {
	hub := NewHub(&testutil.Logger{}, 4, nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r, "course-1")
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Subscribers("course-1") == 1 }, time.Second, 10*time.Millisecond)
	hub.Publish("course-1", payload{StudentID: "s-1", Progress: 50})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "course-1", msg.Topic)
	assert.JSONEq(t, `{"student_id":"s-1","progress":50}`, string(msg.Data))

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Subscribers("course-1") == 0 }, time.Second, 10*time.Millisecond)
}

func TestAllowOrigins(t *testing.T) {
	check := AllowOrigins([]string{"http://localhost:3000/"})
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, check(req), "no origin")

	req.Header.Set("Origin", "http://localhost:3000")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://evil.test")
	assert.False(t, check(req))
	assert.True(t, AllowOrigins([]string{"*"})(req))
}
