package streaming

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_PayloadStaysRaw(t *testing.T) {
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(`{"type":"character_state","payload":{"kind":"npc","index":4}}`), &env))

	assert.Equal(t, TypeCharacterState, env.Type)
	assert.JSONEq(t, `{"kind":"npc","index":4}`, string(env.Payload))
}

func TestAckMessage(t *testing.T) {
	var ack AckMessage
	require.NoError(t, json.Unmarshal([]byte(`{"type":"ack","for":"start_session"}`), &ack))
	assert.Equal(t, TypeAck, ack.Type)
	assert.Equal(t, TypeStartSession, ack.For)
}
