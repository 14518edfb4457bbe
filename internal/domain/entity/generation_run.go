// Package entity 定义领域实体
package entity

import (
	"fmt"
	"time"
)

// RunState 生成运行状态
type RunState string

const (
	RunStateIdle            RunState = "idle"
	RunStateContextBuilding RunState = "context_building"
	RunStateStreaming       RunState = "streaming"
	RunStateCommitting      RunState = "committing"
	RunStateCompleted       RunState = "completed"
	RunStateFailed          RunState = "failed"
	RunStateCancelled       RunState = "cancelled"
)

// IsTerminal 是否为终态
func (s RunState) IsTerminal() bool {
	switch s {
	case RunStateCompleted, RunStateFailed, RunStateCancelled:
		return true
	}
	return false
}

// RunKind 生成运行类型
type RunKind string

const (
	RunKindChapter       RunKind = "chapter"
	RunKindOutline       RunKind = "outline"
	RunKindWorldbuilding RunKind = "worldbuilding"
	RunKindCharacters    RunKind = "characters"
	RunKindPolish        RunKind = "polish"
)

// GenerationRun 一次生成运行
// 状态只允许沿 idle -> context_building -> streaming -> committing -> completed
// 前进，任一非终态可转入 failed / cancelled；Progress 单调不减。
type GenerationRun struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	Kind       RunKind   `json:"kind"`
	TargetID   string    `json:"target_id"`
	State      RunState  `json:"state"`
	Progress   int       `json:"progress"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// NewGenerationRun 创建生成运行
func NewGenerationRun(id, projectID string, kind RunKind, targetID string) *GenerationRun {
	return &GenerationRun{
		ID:        id,
		ProjectID: projectID,
		Kind:      kind,
		TargetID:  targetID,
		State:     RunStateIdle,
		Progress:  0,
		StartedAt: time.Now(),
	}
}

// transitionOrder 前进路径上各状态的序号
func transitionOrder(s RunState) int {
	switch s {
	case RunStateIdle:
		return 0
	case RunStateContextBuilding:
		return 1
	case RunStateStreaming:
		return 2
	case RunStateCommitting:
		return 3
	case RunStateCompleted:
		return 4
	default:
		return -1
	}
}

// Transition 状态迁移，非法迁移返回错误
func (r *GenerationRun) Transition(next RunState) error {
	if r.State.IsTerminal() {
		return fmt.Errorf("run %s already terminal in state %s", r.ID, r.State)
	}
	switch next {
	case RunStateFailed, RunStateCancelled:
		r.State = next
		r.FinishedAt = time.Now()
		return nil
	}
	cur, nxt := transitionOrder(r.State), transitionOrder(next)
	if nxt < 0 || nxt != cur+1 {
		return fmt.Errorf("illegal run transition %s -> %s", r.State, next)
	}
	r.State = next
	if next == RunStateCompleted {
		r.Progress = 100
		r.FinishedAt = time.Now()
	}
	return nil
}

// UpdateProgress 更新进度，夹取 0-99 且单调不减；100 仅由完成迁移设置
func (r *GenerationRun) UpdateProgress(p int) {
	if p < 0 {
		p = 0
	}
	if p > 99 {
		p = 99
	}
	if p > r.Progress {
		r.Progress = p
	}
}

// Duration 运行耗时
func (r *GenerationRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
