// Package role 狼人杀角色目录
package role

// Faction 阵营
type Faction int

const (
	FactionVillage Faction = iota + 1
	FactionWerewolves
)

func (f Faction) String() string {
	switch f {
	case FactionVillage:
		return "village"
	case FactionWerewolves:
		return "werewolves"
	default:
		return "unknown"
	}
}

// NightAction 夜间行动能力
type NightAction int

const (
	NightNone NightAction = iota
	NightHunt
	NightInspect
)

// Role 角色
type Role int

const (
	Villager Role = iota + 1
	Werewolf
	Seer
)

type definition struct {
	key         string
	name        string
	emoji       string
	color       int
	description string
	image       string
	faction     Faction
	night       NightAction
}

var catalogue = map[Role]definition{
	Villager: {
		key:         "villager",
		name:        "Villager",
		emoji:       "🧑‍🌾",
		color:       0x3BA55C,
		description: "A simple villager. Find the werewolves during the day and vote them out.",
		image:       "villager.png",
		faction:     FactionVillage,
		night:       NightNone,
	},
	Werewolf: {
		key:         "werewolf",
		name:        "Werewolf",
		emoji:       "🐺",
		color:       0xED4245,
		description: "Each night the pack chooses a villager to devour. Win when no villager is left.",
		image:       "werewolf.png",
		faction:     FactionWerewolves,
		night:       NightHunt,
	},
	Seer: {
		key:         "seer",
		name:        "Seer",
		emoji:       "🔮",
		color:       0x9B59B6,
		description: "Each night you may look into the soul of one player and learn their role.",
		image:       "seer.png",
		faction:     FactionVillage,
		night:       NightInspect,
	},
}

// order 展示顺序
var order = []Role{Villager, Werewolf, Seer}

// All 返回全部角色
func All() []Role {
	out := make([]Role, len(order))
	copy(out, order)
	return out
}

// ByKey 按 key 查找角色
func ByKey(key string) (Role, bool) {
	for _, r := range order {
		if catalogue[r].key == key {
			return r, true
		}
	}
	return 0, false
}

// Valid 是否为目录中的角色
func (r Role) Valid() bool {
	_, ok := catalogue[r]
	return ok
}

func (r Role) Key() string         { return catalogue[r].key }
func (r Role) Name() string        { return catalogue[r].name }
func (r Role) Emoji() string       { return catalogue[r].emoji }
func (r Role) Color() int          { return catalogue[r].color }
func (r Role) Description() string { return catalogue[r].description }
func (r Role) Image() string       { return catalogue[r].image }
func (r Role) Faction() Faction    { return catalogue[r].faction }
func (r Role) Night() NightAction  { return catalogue[r].night }

// IsWerewolf 是否属于狼人阵营
func (r Role) IsWerewolf() bool {
	return r.Faction() == FactionWerewolves
}

// Label 展示用的 "emoji 名称"
func (r Role) Label() string {
	return r.Emoji() + " " + r.Name()
}

func (r Role) String() string {
	if !r.Valid() {
		return "unknown"
	}
	return r.Key()
}
