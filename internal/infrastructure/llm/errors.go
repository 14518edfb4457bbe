package llm

import (
	"context"
	"errors"
	"strings"

	apperrors "novel-studio-api/pkg/errors"
)

// Classify 将上游 LLM 错误归入错误分类
// 顺序：取消 > 认证 > 限流 > 网络 > 协议，默认归为生成失败。
func Classify(err error) *apperrors.AppError {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, context.Canceled) {
		return apperrors.Wrap(err, apperrors.CodeGenerationCanceled, "generation canceled")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(err, apperrors.CodeProviderNetwork, "upstream request timed out")
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "api key", "apikey", "unauthorized", "authentication", "permission denied", "401", "403"):
		return apperrors.ErrProviderAuth.Clone().WithError(err)
	case containsAny(msg, "rate limit", "too many requests", "quota", "429"):
		return apperrors.ErrProviderRateLimit.Clone().WithError(err)
	case containsAny(msg, "timeout", "timed out", "connection refused", "connection reset", "no such host", "dial tcp", "broken pipe", "network", "eof", "502", "503", "504"):
		return apperrors.ErrProviderNetwork.Clone().WithError(err)
	case containsAny(msg, "unmarshal", "failed to parse", "malformed", "unexpected end", "invalid character", "decode"):
		return apperrors.ErrUpstreamProtocol.Clone().WithError(err)
	default:
		return apperrors.Wrap(err, apperrors.CodeGenerationFailed, "llm call failed")
	}
}

// IsTransient 判断错误是否值得重试（仅限流与网络类）
func IsTransient(err error) bool {
	appErr := Classify(err)
	if appErr == nil {
		return false
	}
	switch appErr.Code {
	case apperrors.CodeProviderRateLimit, apperrors.CodeProviderNetwork:
		return true
	default:
		return false
	}
}

func containsAny(msg string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(msg, sub) {
			return true
		}
	}
	return false
}
