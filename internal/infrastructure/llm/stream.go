package llm

import (
	"context"
	"time"

	"novel-studio-api/internal/config"
	apperrors "novel-studio-api/pkg/errors"
	"novel-studio-api/pkg/logger"
	"novel-studio-api/pkg/metrics"

	"github.com/cenkalti/backoff/v5"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// StreamRequest 一次流式生成请求
type StreamRequest struct {
	Provider    string
	Model       string
	Messages    []*schema.Message
	Temperature *float32
	MaxTokens   *int
}

// Opener 负责向上游打开流式会话
// 对限流与网络类瞬时错误做有界指数退避重试，其余错误立即终止。
type Opener struct {
	factory *EinoFactory
	cfg     *config.GenerationConfig
}

// NewOpener 创建流式会话打开器
func NewOpener(factory *EinoFactory, cfg *config.Config) *Opener {
	return &Opener{
		factory: factory,
		cfg:     &cfg.Generation,
	}
}

// Open 打开上游流，返回消息流读取端
// 重试只覆盖"打开流"这一步；流一旦建立，读取阶段的错误不再重试。
func (o *Opener) Open(ctx context.Context, req *StreamRequest) (*schema.StreamReader[*schema.Message], error) {
	chatModel, err := o.factory.Get(ctx, req.Provider)
	if err != nil {
		return nil, err
	}

	opts := buildModelOptions(req)

	operation := func() (*schema.StreamReader[*schema.Message], error) {
		start := time.Now()
		reader, err := chatModel.Stream(ctx, req.Messages, opts...)
		metrics.LLMCallDuration.WithLabelValues(req.Provider, req.Model).Observe(time.Since(start).Seconds())
		if err != nil {
			appErr := Classify(err)
			metrics.LLMCallTotal.WithLabelValues(req.Provider, req.Model, "error").Inc()
			if !IsTransient(appErr) {
				return nil, backoff.Permanent(appErr)
			}
			metrics.LLMRetriesTotal.WithLabelValues(req.Provider, retryReason(appErr)).Inc()
			logger.Warn(ctx, "retrying llm stream open",
				"provider", req.Provider,
				"model", req.Model,
				"error", appErr.Error(),
			)
			return nil, appErr
		}
		metrics.LLMCallTotal.WithLabelValues(req.Provider, req.Model, "success").Inc()
		return reader, nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = o.cfg.RetryInitialBackoff
	expo.MaxInterval = o.cfg.RetryMaxBackoff

	reader, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(uint(o.cfg.StreamOpenRetries)),
	)
	if err != nil {
		return nil, Classify(err)
	}
	return reader, nil
}

func buildModelOptions(req *StreamRequest) []model.Option {
	var opts []model.Option
	if req.Model != "" {
		opts = append(opts, model.WithModel(req.Model))
	}
	if req.Temperature != nil {
		opts = append(opts, model.WithTemperature(*req.Temperature))
	}
	if req.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*req.MaxTokens))
	}
	return opts
}

func retryReason(appErr *apperrors.AppError) string {
	if appErr.Code == apperrors.CodeProviderRateLimit {
		return "rate_limit"
	}
	return "network"
}
