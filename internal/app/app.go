// Package app 负责应用的组装与生命周期管理
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"novel-studio-api/internal/application/consistency"
	"novel-studio-api/internal/application/generation"
	"novel-studio-api/internal/application/story"
	"novel-studio-api/internal/application/wizard"
	"novel-studio-api/internal/config"
	"novel-studio-api/internal/infrastructure/llm"
	"novel-studio-api/internal/infrastructure/messaging"
	"novel-studio-api/internal/infrastructure/persistence/postgres"
	"novel-studio-api/internal/infrastructure/persistence/redis"
	"novel-studio-api/internal/interfaces/http/handler"
	"novel-studio-api/internal/interfaces/http/router"
	"novel-studio-api/internal/workflow/prompt"
	"novel-studio-api/pkg/logger"
)

// App 装配完成的应用实例
type App struct {
	cfg    *config.Config
	router *router.Router
	pg     *postgres.Client
	redis  *redis.Client
}

// New 按依赖顺序装配应用
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// 基础设施
	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to init postgres: %w", err)
	}

	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		_ = pgClient.Close()
		return nil, fmt.Errorf("failed to init redis: %w", err)
	}

	txManager := postgres.NewTxManager(pgClient)

	// 仓储
	projectRepo := postgres.NewProjectRepository(pgClient)
	outlineRepo := postgres.NewOutlineRepository(pgClient)
	chapterRepo := postgres.NewChapterRepository(pgClient)
	characterRepo := postgres.NewCharacterRepository(pgClient)
	historyRepo := postgres.NewGenerationHistoryRepository(pgClient)

	cache := redis.NewCache(redisClient)
	generationLock := redis.NewGenerationLock(redisClient)
	producer := messaging.NewProducer(redisClient.Redis(), int64(cfg.Messaging.RedisStream.MaxLen))

	// LLM 接入
	factory := llm.NewEinoFactory(cfg)
	opener := llm.NewOpener(factory, cfg)
	prompts := prompt.NewRegistry()

	// 应用服务
	assembler := story.NewContextAssembler(cfg)
	validator := story.NewDependencyValidator(chapterRepo, cache)
	chapterGen := story.NewChapterGenerator(
		projectRepo, chapterRepo, outlineRepo, characterRepo,
		validator, assembler, prompts, txManager, cache, cfg,
	)
	outlineGen := story.NewOutlineGenerator(
		projectRepo, outlineRepo, chapterRepo, characterRepo,
		prompts, txManager, cache, cfg,
	)
	wizardGen := story.NewWizardGenerator(projectRepo, characterRepo, prompts, txManager, cache)
	polishGen := story.NewPolishGenerator(projectRepo, chapterRepo, prompts)

	guard := consistency.NewGuard(projectRepo, outlineRepo, chapterRepo, txManager, producer, cache)
	sequencer := wizard.NewSequencer(projectRepo)
	orchestrator := generation.NewOrchestrator(
		generation.NewEinoOpener(opener), generationLock, historyRepo, producer, cfg,
	)

	// HTTP 处理器
	streamHandler := handler.NewStreamHandler(orchestrator, cfg)
	handlers := router.Handlers{
		Health:     handler.NewHealthHandler(pgClient, redisClient),
		Project:    handler.NewProjectHandler(projectRepo, guard),
		Wizard:     handler.NewWizardHandler(sequencer, wizardGen, streamHandler),
		Outline:    handler.NewOutlineHandler(outlineRepo, guard, outlineGen, streamHandler),
		Chapter:    handler.NewChapterHandler(chapterRepo, validator, guard, chapterGen, streamHandler),
		Character:  handler.NewCharacterHandler(characterRepo),
		Generation: handler.NewGenerationHandler(polishGen, historyRepo, streamHandler),
	}

	r := router.New(cfg, handlers, redisClient.Redis())

	logger.Info(ctx, "application assembled",
		"default_provider", cfg.LLM.DefaultProvider,
		"providers", len(cfg.LLM.Providers),
	)

	return &App{
		cfg:    cfg,
		router: r,
		pg:     pgClient,
		redis:  redisClient,
	}, nil
}

// Engine 返回 HTTP 引擎
func (a *App) Engine() *gin.Engine {
	return a.router.Engine()
}

// Close 释放应用持有的资源
func (a *App) Close(ctx context.Context) {
	if err := a.redis.Close(); err != nil {
		logger.Error(ctx, "failed to close redis", err)
	}
	if err := a.pg.Close(); err != nil {
		logger.Error(ctx, "failed to close postgres", err)
	}
}
