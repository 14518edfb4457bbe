// Package generation 实现流式生成的编排核心
package generation

import "novel-studio-api/internal/domain/entity"

// EventType 流式事件类型
type EventType string

const (
	EventProgress  EventType = "progress"
	EventContent   EventType = "content"
	EventDone      EventType = "done"
	EventError     EventType = "error"
	EventHeartbeat EventType = "heartbeat"
)

// Event 编排器向传输层投递的事件
// done 与 error 互斥，且每次运行恰好出现一次，之后通道关闭。
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// ProgressData 进度事件负载
type ProgressData struct {
	RunID    string          `json:"run_id"`
	State    entity.RunState `json:"state"`
	Progress int             `json:"progress"`
}

// ContentData 内容增量事件负载
type ContentData struct {
	Delta string `json:"delta"`
}

// DoneData 正常终止事件负载（completed 或 cancelled）
type DoneData struct {
	RunID       string          `json:"run_id"`
	State       entity.RunState `json:"state"`
	OutputRunes int             `json:"output_runes"`
	DurationMs  int64           `json:"duration_ms"`
}

// ErrorData 失败终止事件负载
type ErrorData struct {
	RunID   string `json:"run_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
