package role

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll(t *testing.T) {
	t.Parallel()

	roles := All()
	assert.Equal(t, []Role{Villager, Werewolf, Seer}, roles)

	// mutating the returned slice must not affect the catalogue
	roles[0] = Seer
	assert.Equal(t, Villager, All()[0])
}

func TestByKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key  string
		want Role
		ok   bool
	}{
		{"villager", Villager, true},
		{"werewolf", Werewolf, true},
		{"seer", Seer, true},
		{"witch", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()
			got, ok := ByKey(tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFaction(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FactionVillage, Villager.Faction())
	assert.Equal(t, FactionWerewolves, Werewolf.Faction())
	assert.Equal(t, FactionVillage, Seer.Faction())

	assert.True(t, Werewolf.IsWerewolf())
	assert.False(t, Seer.IsWerewolf())
}

func TestNightAction(t *testing.T) {
	t.Parallel()

	assert.Equal(t, NightNone, Villager.Night())
	assert.Equal(t, NightHunt, Werewolf.Night())
	assert.Equal(t, NightInspect, Seer.Night())
}

func TestCatalogueComplete(t *testing.T) {
	t.Parallel()

	for _, r := range All() {
		require.True(t, r.Valid())
		assert.NotEmpty(t, r.Key())
		assert.NotEmpty(t, r.Name())
		assert.NotEmpty(t, r.Emoji())
		assert.NotEmpty(t, r.Description())
		assert.NotEmpty(t, r.Image())
		assert.NotZero(t, r.Color())

		back, ok := ByKey(r.Key())
		assert.True(t, ok)
		assert.Equal(t, r, back)
	}

	assert.False(t, Role(0).Valid())
	assert.Equal(t, "unknown", Role(42).String())
}
