// Package vote 投票计数与胜出者选择
package vote

import (
	"math/rand/v2"
	"slices"
)

// Abstain 弃票/撤销投票的哨兵值
const Abstain = ""

// Ballot 一个投票阶段内的选票，每个投票者只保留最后一次选择
type Ballot struct {
	choices map[string]string
}

// NewBallot 创建空选票
func NewBallot() *Ballot {
	return &Ballot{choices: make(map[string]string)}
}

// Cast 记录投票，覆盖之前的选择
func (b *Ballot) Cast(voterID, targetID string) {
	b.choices[voterID] = targetID
}

// Abstain 撤销投票（记为弃票）
func (b *Ballot) Abstain(voterID string) {
	b.choices[voterID] = Abstain
}

// Choice 返回某投票者的选择
func (b *Ballot) Choice(voterID string) (targetID string, ok bool) {
	targetID, ok = b.choices[voterID]
	return targetID, ok
}

// Len 已表态的投票者数量（含弃票）
func (b *Ballot) Len() int {
	return len(b.choices)
}

// Voters 按 ID 排序的已表态投票者
func (b *Ballot) Voters() []string {
	voters := make([]string, 0, len(b.choices))
	for id := range b.choices {
		voters = append(voters, id)
	}
	slices.Sort(voters)
	return voters
}

// Tally 统计当前选票
func (b *Ballot) Tally() map[string]int {
	return Tally(b.choices)
}

// Tally 将 voter -> target 映射统计为 target -> 票数，忽略弃票
func Tally(ballots map[string]string) map[string]int {
	counts := make(map[string]int)
	for _, target := range ballots {
		if target == Abstain {
			continue
		}
		counts[target]++
	}
	return counts
}

// PickWinner 返回票数严格最高的目标，平票时在并列者中均匀随机选择。
// 只统计 eligible 中的目标；无人投票时在 eligible 中均匀随机选择。
// eligible 为空时返回 false。
func PickWinner(counts map[string]int, eligible []string, rng *rand.Rand) (string, bool) {
	if len(eligible) == 0 {
		return "", false
	}

	best := 0
	var leaders []string
	for _, id := range eligible {
		n := counts[id]
		switch {
		case n == 0:
			continue
		case n > best:
			best = n
			leaders = []string{id}
		case n == best:
			leaders = append(leaders, id)
		}
	}

	if len(leaders) == 0 {
		leaders = slices.Clone(eligible)
	}
	if len(leaders) == 1 {
		return leaders[0], true
	}

	// 排序保证相同随机源下结果可复现
	slices.Sort(leaders)
	leaders = slices.Compact(leaders)
	return leaders[rng.IntN(len(leaders))], true
}
