package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContent_Components(t *testing.T) {
	t.Parallel()

	c := Content{
		Title:   "Vote",
		Buttons: []Button{{ID: "abstain"}},
		Selects: []Select{{ID: "vote"}},
	}
	assert.True(t, c.HasComponents())
	assert.Equal(t, []string{"abstain", "vote"}, c.ActionIDs())

	stripped := c.WithoutComponents()
	assert.False(t, stripped.HasComponents())
	assert.Equal(t, "Vote", stripped.Title)
	// original untouched
	assert.True(t, c.HasComponents())
}

func TestReplaceMentions(t *testing.T) {
	t.Parallel()

	names := map[string]string{"1": "Alice", "2": "Bob"}
	lookup := func(id string) string { return names[id] }

	assert.Equal(t, "@Alice voted for @Bob", ReplaceMentions("<@1> voted for <@!2>", lookup))
	assert.Equal(t, "no mentions", ReplaceMentions("no mentions", lookup))
	assert.Equal(t, "<@1>", Mention("1"))
}

func TestAction_Value(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", Action{}.Value())
	assert.Equal(t, "a", Action{Values: []string{"a", "b"}}.Value())
}
