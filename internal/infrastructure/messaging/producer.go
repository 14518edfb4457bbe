// Package messaging 提供消息队列实现
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"novel-studio-api/pkg/metrics"
)

var tracer = otel.Tracer("messaging")

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 100000
	}
	return &Producer{
		client: client,
		maxLen: maxLen,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if err != nil {
		span.RecordError(err)
		metrics.RedisStreamProcessed.WithLabelValues(string(stream), "error").Inc()
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	metrics.RedisStreamProcessed.WithLabelValues(string(stream), "ok").Inc()
	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// PublishGenerationAudit 发布生成审计事件
func (p *Producer) PublishGenerationAudit(ctx context.Context, audit *GenerationAuditMessage) error {
	msg, err := NewMessage(audit.RunID, "generation_audit", audit.ProjectID, audit)
	if err != nil {
		return err
	}

	msg.SetMetadata("kind", audit.Kind)
	msg.SetMetadata("status", audit.Status)
	_, err = p.Publish(ctx, StreamGenerationAudit, msg)
	return err
}

// PublishConsistencyFix 发布一致性修复事件
func (p *Producer) PublishConsistencyFix(ctx context.Context, fix *ConsistencyFixMessage) error {
	msg, err := NewMessage(fix.ProjectID, "consistency_fix", fix.ProjectID, fix)
	if err != nil {
		return err
	}
	_, err = p.Publish(ctx, StreamConsistencyFix, msg)
	return err
}

// GenerationAuditMessage 生成审计事件
type GenerationAuditMessage struct {
	RunID            string `json:"run_id"`
	ProjectID        string `json:"project_id"`
	Kind             string `json:"kind"`
	TargetID         string `json:"target_id,omitempty"`
	Provider         string `json:"provider,omitempty"`
	Model            string `json:"model,omitempty"`
	Status           string `json:"status"`
	ErrorCode        string `json:"error_code,omitempty"`
	OutputRunes      int    `json:"output_runes"`
	PromptTokens     int    `json:"prompt_tokens,omitempty"`
	CompletionTokens int    `json:"completion_tokens,omitempty"`
	DurationMs       int64  `json:"duration_ms"`
}

// ConsistencyFixMessage 一致性修复事件
type ConsistencyFixMessage struct {
	ProjectID string   `json:"project_id"`
	Kind      string   `json:"kind"`
	Affected  []string `json:"affected"`
}
