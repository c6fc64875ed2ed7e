package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIdentity(t *testing.T) {
	tests := []struct {
		in       string
		gameName string
		tagLine  string
	}{
		{"Faker#KR1", "Faker", "KR1"},
		{"  Faker#KR1  ", "Faker", "KR1"},
		{"NoTag", "NoTag", ""},
		{"Weird#Name#EUW", "Weird#Name", "EUW"},
	}
	for _, tt := range tests {
		id := ParseIdentity(tt.in)
		assert.Equal(t, tt.gameName, id.GameName, tt.in)
		assert.Equal(t, tt.tagLine, id.TagLine, tt.in)
	}
}

func TestSameIdentity(t *testing.T) {
	assert.True(t, SameIdentity("Faker#KR1", "faker#kr1"))
	assert.True(t, SameIdentity("FAKER#kr1", "Faker#KR1"))
	assert.False(t, SameIdentity("Faker#KR1", "Faker#KR2"))
	assert.False(t, SameIdentity("Faker#KR1", "Chovy#KR1"))
}

func TestIsBot(t *testing.T) {
	assert.True(t, IsBot("bot1"))
	assert.True(t, IsBot("BOT42"))
	assert.True(t, IsBot("Bot3#NA1"))
	assert.True(t, IsBot("-5"))
	assert.False(t, IsBot("bot"))
	assert.False(t, IsBot("robot1"))
	assert.False(t, IsBot("Faker#KR1"))
	assert.False(t, IsBot("5"))
}

func TestLaneIndexMatchesSlotOrder(t *testing.T) {
	assert.Equal(t, 0, LaneIndex(LaneTop))
	assert.Equal(t, 1, LaneIndex(LaneJungle))
	assert.Equal(t, 2, LaneIndex(LaneMid))
	assert.Equal(t, 3, LaneIndex(LaneBot))
	assert.Equal(t, 4, LaneIndex(LaneSupport))
	assert.Equal(t, -1, LaneIndex(Lane("feed")))
	assert.False(t, Lane("feed").Valid())
}
