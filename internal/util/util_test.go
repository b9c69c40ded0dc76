package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamiegrech/RSBot-API/pkg/client"
)

func TestTrimQuotes(t *testing.T) {
	assert.Equal(t, "Goblin", TrimQuotes(`"Goblin"`))
	assert.Equal(t, "Goblin", TrimQuotes("Goblin"))
	assert.Equal(t, "", TrimQuotes(`""`))
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		kind, index string
		want        client.Ref
	}{
		{"npc", "4", client.NPCRef(4)},
		{"NPC", `"12"`, client.NPCRef(12)},
		{"player", "0", client.PlayerRef(0)},
		{"p", "3", client.PlayerRef(3)},
		{"interacting", "7", client.NPCRef(7)},
		{"interacting", "0x8002", client.PlayerRef(2)},
		{"i", "32769", client.PlayerRef(1)},
	}

	for _, tt := range tests {
		t.Run(tt.kind+"/"+tt.index, func(t *testing.T) {
			got, err := ParseRef(tt.kind, tt.index)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRef_Invalid(t *testing.T) {
	for _, tt := range [][2]string{
		{"npc", "-1"},
		{"npc", "abc"},
		{"object", "1"},
		{"interacting", "-1"},
	} {
		_, err := ParseRef(tt[0], tt[1])
		assert.ErrorIs(t, err, ErrInvalidRef, "%v", tt)
	}
}

func TestRefArgs(t *testing.T) {
	ref, rest, err := RefArgs([]string{"npc", "4", "Attack", "Goblin"})
	require.NoError(t, err)
	assert.Equal(t, client.NPCRef(4), ref)
	assert.Equal(t, []string{"Attack", "Goblin"}, rest)

	_, _, err = RefArgs([]string{"npc"})
	assert.ErrorIs(t, err, ErrMissingArgs)
}

func TestParseButton(t *testing.T) {
	for in, want := range map[string]bool{"": true, "left": true, "RIGHT": false, "r": false, "true": true, "false": false} {
		got, err := ParseButton(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseButton("middle")
	assert.Error(t, err)
}
