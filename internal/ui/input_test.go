package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want Input
	}{
		{"", Input{Kind: InputNone}},
		{"   ", Input{Kind: InputNone}},
		{"hello there", Input{Kind: InputSay, Text: "hello there"}},
		{"/play", Input{Kind: InputCommand, Name: "play", Options: map[string]string{}}},
		{"/leaderboard period=daily", Input{Kind: InputCommand, Name: "leaderboard", Options: map[string]string{"period": "daily"}}},
		{"/stats user=", Input{Kind: InputCommand, Name: "stats", Options: map[string]string{"user": ""}}},
		{":click join", Input{Kind: InputClick, Name: "join", Args: []string{}}},
		{":c vote 2", Input{Kind: InputClick, Name: "vote", Args: []string{"2"}}},
		{":go general", Input{Kind: InputGoto, Args: []string{"general"}}},
		{":g 3", Input{Kind: InputGoto, Args: []string{"3"}}},
		{":help", Input{Kind: InputHelp}},
		{":q", Input{Kind: InputQuit}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseInput(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInput_Errors(t *testing.T) {
	t.Parallel()

	for _, line := range []string{"/", "/stats bob", "/stats =x", ":", ":click", ":go", ":go a b", ":dance"} {
		_, err := ParseInput(line)
		assert.Error(t, err, line)
	}

	_, err := ParseInput(":dance")
	assert.ErrorIs(t, err, ErrUnknownInput)
}
