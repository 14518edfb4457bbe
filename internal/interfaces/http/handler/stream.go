// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"io"
	"time"

	"novel-studio-api/internal/application/generation"
	"novel-studio-api/internal/config"
	"novel-studio-api/internal/interfaces/http/dto"

	"github.com/gin-gonic/gin"
)

// StreamHandler 通过 SSE 输出生成事件流
// 事件类型 progress / content / done / error，外加周期性 heartbeat；
// 客户端断开即取消本次运行。
type StreamHandler struct {
	orchestrator *generation.Orchestrator
	heartbeat    time.Duration
}

// NewStreamHandler 创建流式响应处理器
func NewStreamHandler(orchestrator *generation.Orchestrator, cfg *config.Config) *StreamHandler {
	return &StreamHandler{
		orchestrator: orchestrator,
		heartbeat:    cfg.Generation.HeartbeatInterval,
	}
}

// Run 启动任务并把事件流写出为 SSE
// 启动失败（冲突、依赖未满足、配置错误）按错误码表走普通 JSON 响应。
func (h *StreamHandler) Run(c *gin.Context, task generation.Task) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	run, events, err := h.orchestrator.Run(ctx, task)
	if err != nil {
		dto.FromError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Type), ev.Data)
			// done / error 是最后一个事件
			return ev.Type != generation.EventDone && ev.Type != generation.EventError

		case <-ticker.C:
			c.SSEvent(string(generation.EventHeartbeat), gin.H{"run_id": run.ID})
			return true

		case <-c.Request.Context().Done():
			// 客户端断开，取消运行
			cancel()
			return false
		}
	})
}
