package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamiegrech/RSBot-API/internal/storage"
	"github.com/jamiegrech/RSBot-API/pkg/core"
	"github.com/jamiegrech/RSBot-API/pkg/streaming"
)

// Compile-time interface check.
var _ storage.Backend = (*Backend)(nil)

// testServer creates an httptest server that upgrades to WebSocket,
// records received messages, and acks start_session/end_session when ack
// is set.
func testServer(t *testing.T, ack bool) (*httptest.Server, *messageLog) {
	t.Helper()
	ml := &messageLog{}

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ml.setSecret(r.URL.Query().Get("secret"))
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer c.Close()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}

			var env streaming.Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				continue
			}
			ml.add(env)

			if ack && (env.Type == streaming.TypeStartSession || env.Type == streaming.TypeEndSession) {
				data, _ := json.Marshal(streaming.AckMessage{Type: streaming.TypeAck, For: env.Type})
				if err := c.WriteMessage(ws.TextMessage, data); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(srv.Close)

	return srv, ml
}

type messageLog struct {
	mu       sync.Mutex
	messages []streaming.Envelope
	secret   string
}

func (m *messageLog) add(env streaming.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, env)
}

func (m *messageLog) setSecret(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secret = s
}

func (m *messageLog) all() []streaming.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]streaming.Envelope, len(m.messages))
	copy(cp, m.messages)
	return cp
}

func (m *messageLog) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func newBackend(t *testing.T, srv *httptest.Server, secret string) *Backend {
	t.Helper()
	b := New(Config{URL: wsURL(srv), Secret: secret}, slog.Default())
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestStartAndEndSession(t *testing.T) {
	srv, ml := testServer(t, true)
	b := newBackend(t, srv, "test")

	s := &core.Session{Name: "Lumbridge", Tag: "Demo"}
	require.NoError(t, b.StartSession(s))
	assert.Equal(t, uint(1), s.ID)

	require.NoError(t, b.EndSession())

	msgs := ml.all()
	require.GreaterOrEqual(t, len(msgs), 2)
	assert.Equal(t, streaming.TypeStartSession, msgs[0].Type)
	assert.Equal(t, streaming.TypeEndSession, msgs[len(msgs)-1].Type)

	var payload streaming.StartSessionPayload
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &payload))
	assert.Equal(t, "Lumbridge", payload.Session.Name)

	ml.mu.Lock()
	assert.Equal(t, "test", ml.secret)
	ml.mu.Unlock()
}

func TestFireAndForgetMessages(t *testing.T) {
	srv, ml := testServer(t, true)
	b := newBackend(t, srv, "s")

	require.NoError(t, b.StartSession(&core.Session{Name: "M"}))
	require.NoError(t, b.RecordCharacterState(&core.CharacterState{Kind: "npc", Index: 1, Name: "Goblin"}))
	require.NoError(t, b.RecordCharacterState(&core.CharacterState{Kind: "player", Index: 0, Name: "Zezima"}))
	require.NoError(t, b.RecordInteraction(&core.Interaction{Kind: "npc", Index: 1, Action: core.ActionHover}))
	require.NoError(t, b.EndSession())

	// end_session is acked only after everything queued before it arrived
	types := make(map[string]int)
	for _, m := range ml.all() {
		types[m.Type]++
	}

	assert.Equal(t, 1, types[streaming.TypeStartSession])
	assert.Equal(t, 2, types[streaming.TypeCharacterState])
	assert.Equal(t, 1, types[streaming.TypeInteraction])
	assert.Equal(t, 1, types[streaming.TypeEndSession])
}

func TestStartSession_AckTimeout(t *testing.T) {
	srv, ml := testServer(t, false)
	b := newBackend(t, srv, "")

	data, err := marshalEnvelope(streaming.TypeStartSession, streaming.StartSessionPayload{Session: &core.Session{}})
	require.NoError(t, err)

	err = b.conn.sendAndWait(data, streaming.TypeStartSession, 50*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")

	assert.Eventually(t, func() bool { return ml.count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestInit_DialFailure(t *testing.T) {
	b := New(Config{URL: "ws://127.0.0.1:1/api"}, nil)
	assert.Error(t, b.Init())
	assert.NoError(t, b.Close())
}

func TestClose_Idempotent(t *testing.T) {
	srv, _ := testServer(t, true)
	b := newBackend(t, srv, "")

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
}

func TestNextBackoff(t *testing.T) {
	assert.Equal(t, 2*time.Second, nextBackoff(time.Second))
	assert.Equal(t, maxBackoff, nextBackoff(20*time.Second))
}

func TestMarshalEnvelope(t *testing.T) {
	data, err := marshalEnvelope(streaming.TypeInteraction, core.Interaction{Action: core.ActionClick, Left: true})
	require.NoError(t, err)

	var env streaming.Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, streaming.TypeInteraction, env.Type)

	var e core.Interaction
	require.NoError(t, json.Unmarshal(env.Payload, &e))
	assert.True(t, e.Left)
}
