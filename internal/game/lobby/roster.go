// Package lobby 开局前的大厅：玩家加入/离开、角色池配置与开局校验
package lobby

import (
	"slices"

	"github.com/palemoky/werewolf/internal/apperrors"
	"github.com/palemoky/werewolf/internal/game/role"
)

// DefaultMinPlayers 默认最少开局人数
const DefaultMinPlayers = 2

// Roster 大厅状态
type Roster struct {
	creatorID  string
	playerIDs  []string    // 已加入的玩家（无重复）
	roles      []role.Role // 角色池，按加入顺序
	minPlayers int
	frozen     bool
}

// Snapshot 开局时冻结的大厅快照
type Snapshot struct {
	CreatorID string
	PlayerIDs []string
	Roles     []role.Role
}

// NewRoster 创建大厅，candidates 中重复的 ID 会被忽略
func NewRoster(creatorID string, candidates []string) *Roster {
	r := &Roster{
		creatorID:  creatorID,
		minPlayers: DefaultMinPlayers,
	}
	for _, id := range candidates {
		if id != "" && !slices.Contains(r.playerIDs, id) {
			r.playerIDs = append(r.playerIDs, id)
		}
	}
	return r
}

// SetMinPlayers 设置最少开局人数，不低于 DefaultMinPlayers
func (r *Roster) SetMinPlayers(n int) {
	r.minPlayers = max(n, DefaultMinPlayers)
}

// CreatorID 创建者
func (r *Roster) CreatorID() string {
	return r.creatorID
}

// Players 当前玩家列表副本
func (r *Roster) Players() []string {
	return slices.Clone(r.playerIDs)
}

// Roles 当前角色池副本
func (r *Roster) Roles() []role.Role {
	return slices.Clone(r.roles)
}

// Frozen 是否已开局
func (r *Roster) Frozen() bool {
	return r.frozen
}

// Has 玩家是否已加入
func (r *Roster) Has(userID string) bool {
	return slices.Contains(r.playerIDs, userID)
}

// Join 加入
func (r *Roster) Join(userID string) error {
	if r.frozen {
		return apperrors.ErrGameInProgress
	}
	if r.Has(userID) {
		return apperrors.ErrAlreadyJoined
	}
	r.playerIDs = append(r.playerIDs, userID)
	return nil
}

// Leave 离开
func (r *Roster) Leave(userID string) error {
	if r.frozen {
		return apperrors.ErrGameInProgress
	}
	idx := slices.Index(r.playerIDs, userID)
	if idx < 0 {
		return apperrors.ErrNotInGame
	}
	r.playerIDs = slices.Delete(r.playerIDs, idx, idx+1)
	return nil
}

// AddRole 向角色池添加角色（仅创建者）。
// 角色数超过玩家数时淘汰最早加入的角色。
func (r *Roster) AddRole(requesterID, key string) error {
	if r.frozen {
		return apperrors.ErrGameInProgress
	}
	if requesterID != r.creatorID {
		return apperrors.ErrNotCreator
	}
	rl, ok := role.ByKey(key)
	if !ok {
		return apperrors.ErrUnknownRole
	}

	r.roles = append(r.roles, rl)
	if len(r.roles) > len(r.playerIDs) {
		r.roles = slices.Delete(r.roles, 0, 1)
	}
	return nil
}

// RemoveRole 从角色池移除最近加入的一个同类角色（仅创建者）
func (r *Roster) RemoveRole(requesterID, key string) error {
	if r.frozen {
		return apperrors.ErrGameInProgress
	}
	if requesterID != r.creatorID {
		return apperrors.ErrNotCreator
	}
	rl, ok := role.ByKey(key)
	if !ok {
		return apperrors.ErrUnknownRole
	}

	for i := len(r.roles) - 1; i >= 0; i-- {
		if r.roles[i] == rl {
			r.roles = slices.Delete(r.roles, i, i+1)
			return nil
		}
	}
	return apperrors.ErrUnknownRole
}

// RequestStart 校验并冻结大厅
func (r *Roster) RequestStart(requesterID string) error {
	if r.frozen {
		return apperrors.ErrGameInProgress
	}
	if requesterID != r.creatorID {
		return apperrors.ErrNotCreator
	}
	if len(r.playerIDs) < r.minPlayers {
		return apperrors.ErrInsufficientPlayers
	}
	if len(r.roles) != len(r.playerIDs) {
		return apperrors.ErrRoleCountMismatch
	}
	r.frozen = true
	return nil
}

// Snapshot 返回当前大厅快照
func (r *Roster) Snapshot() Snapshot {
	return Snapshot{
		CreatorID: r.creatorID,
		PlayerIDs: r.Players(),
		Roles:     r.Roles(),
	}
}

// RoleCounts 角色池中每种角色的数量，按目录顺序
func (r *Roster) RoleCounts() []RoleCount {
	var out []RoleCount
	for _, rl := range role.All() {
		n := 0
		for _, x := range r.roles {
			if x == rl {
				n++
			}
		}
		if n > 0 {
			out = append(out, RoleCount{Role: rl, Count: n})
		}
	}
	return out
}

// RoleCount 角色及数量
type RoleCount struct {
	Role  role.Role
	Count int
}
