package llm

import (
	"context"
	"strings"
	"sync"

	"novel-studio-api/internal/config"
	apperrors "novel-studio-api/pkg/errors"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// 支持的 Provider 适配器类型
const (
	ProviderTypeOpenAI    = "openai"
	ProviderTypeAnthropic = "anthropic"
	ProviderTypeAzure     = "azure"
)

// EinoFactory 管理多个 Eino ChatModel 客户端实例
// 未知 provider 或非法配置在构造时即报 ConfigurationError，不发起任何网络请求。
type EinoFactory struct {
	config *config.LLMConfig
	models map[string]model.BaseChatModel
	mu     sync.RWMutex
}

// NewEinoFactory 创建 Eino LLM 工厂
func NewEinoFactory(cfg *config.Config) *EinoFactory {
	return &EinoFactory{
		config: &cfg.LLM,
		models: make(map[string]model.BaseChatModel),
	}
}

// Get 获取指定名称的 ChatModel，如果未指定则返回默认客户端
func (f *EinoFactory) Get(ctx context.Context, name string) (model.BaseChatModel, error) {
	if name == "" {
		name = f.config.DefaultProvider
	}

	f.mu.RLock()
	m, ok := f.models[name]
	f.mu.RUnlock()
	if ok {
		return m, nil
	}

	// 惰性加载
	f.mu.Lock()
	defer f.mu.Unlock()

	// 再次检查防止竞态
	if m, ok = f.models[name]; ok {
		return m, nil
	}

	providerCfg, ok := f.config.Providers[name]
	if !ok {
		return nil, apperrors.ErrProviderConfig.Clone().
			WithDetail("provider " + name + " not found in LLM config")
	}

	chatModel, err := buildChatModel(ctx, name, &providerCfg)
	if err != nil {
		return nil, err
	}

	f.models[name] = chatModel
	return chatModel, nil
}

// Default 返回默认 ChatModel
func (f *EinoFactory) Default(ctx context.Context) (model.BaseChatModel, error) {
	return f.Get(ctx, "")
}

// buildChatModel 按 Type 选择上游适配器
func buildChatModel(ctx context.Context, name string, providerCfg *config.ProviderConfig) (model.BaseChatModel, error) {
	if strings.TrimSpace(providerCfg.APIKey) == "" {
		return nil, apperrors.ErrProviderConfig.Clone().
			WithDetail("provider " + name + " has no api_key configured")
	}

	typ := strings.ToLower(strings.TrimSpace(providerCfg.Type))
	if typ == "" {
		typ = ProviderTypeOpenAI
	}

	switch typ {
	case ProviderTypeOpenAI, ProviderTypeAzure:
		chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      providerCfg.APIKey,
			BaseURL:     providerCfg.BaseURL,
			ByAzure:     typ == ProviderTypeAzure,
			APIVersion:  providerCfg.APIVersion,
			Model:       providerCfg.Model,
			MaxTokens:   &providerCfg.MaxTokens,
			Temperature: ptrFloat32(float32(providerCfg.Temperature)),
			Timeout:     providerCfg.Timeout,
		})
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeProviderConfig,
				"failed to create chat model for provider "+name)
		}
		return chatModel, nil

	case ProviderTypeAnthropic:
		cfg := &claude.Config{
			APIKey:      providerCfg.APIKey,
			Model:       providerCfg.Model,
			MaxTokens:   providerCfg.MaxTokens,
			Temperature: ptrFloat32(float32(providerCfg.Temperature)),
		}
		if providerCfg.BaseURL != "" {
			cfg.BaseURL = &providerCfg.BaseURL
		}
		chatModel, err := claude.NewChatModel(ctx, cfg)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeProviderConfig,
				"failed to create chat model for provider "+name)
		}
		return chatModel, nil

	default:
		return nil, apperrors.ErrProviderConfig.Clone().
			WithDetail("provider " + name + " has unknown type " + providerCfg.Type)
	}
}

func ptrFloat32(f float32) *float32 {
	return &f
}
