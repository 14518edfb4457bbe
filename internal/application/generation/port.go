package generation

import (
	"context"
	"time"

	"novel-studio-api/internal/domain/entity"
	"novel-studio-api/internal/infrastructure/llm"
)

// TargetLocker 同一目标的生成互斥锁
// Acquire 返回 false 表示该目标已有生成在进行。
type TargetLocker interface {
	Acquire(ctx context.Context, targetID, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, targetID, token string) error
	Extend(ctx context.Context, targetID, token string, ttl time.Duration) error
}

// Task 一次可编排的生成任务
// BuildRequest 对应上下文构建阶段，Commit 对应提交阶段；
// 流式阶段失败时 Commit 不会被调用，已产出的内容保留在事件流中。
type Task interface {
	Kind() entity.RunKind
	ProjectID() string
	TargetID() string

	// BuildRequest 加载快照、校验前置条件并拼装上游请求
	BuildRequest(ctx context.Context) (*llm.StreamRequest, error)

	// EstimateTotalRunes 预估总产出 rune 数，用于进度估算，BuildRequest 之后有效
	EstimateTotalRunes() int

	// Commit 持久化完整产出
	Commit(ctx context.Context, output string) error
}

// StreamOpener 上游流式会话端口
type StreamOpener interface {
	Open(ctx context.Context, req *llm.StreamRequest) (MessageStream, error)
}

// MessageStream 上游消息流的最小读取接口
type MessageStream interface {
	Recv() (delta string, err error)
	Close()
}
