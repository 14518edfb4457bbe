package generation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"time"
	"unicode/utf8"

	"novel-studio-api/internal/config"
	"novel-studio-api/internal/domain/entity"
	"novel-studio-api/internal/domain/repository"
	"novel-studio-api/internal/infrastructure/llm"
	"novel-studio-api/internal/infrastructure/messaging"
	apperrors "novel-studio-api/pkg/errors"
	"novel-studio-api/pkg/logger"
	"novel-studio-api/pkg/metrics"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("generation")

// Orchestrator 生成运行编排器
// 负责锁、状态机推进、流式转发与终止收尾；同一目标同时至多一次运行。
type Orchestrator struct {
	opener      StreamOpener
	locker      TargetLocker
	historyRepo repository.GenerationHistoryRepository
	producer    *messaging.Producer
	cfg         *config.GenerationConfig
}

// NewOrchestrator 创建编排器
func NewOrchestrator(
	opener StreamOpener,
	locker TargetLocker,
	historyRepo repository.GenerationHistoryRepository,
	producer *messaging.Producer,
	cfg *config.Config,
) *Orchestrator {
	return &Orchestrator{
		opener:      opener,
		locker:      locker,
		historyRepo: historyRepo,
		producer:    producer,
		cfg:         &cfg.Generation,
	}
}

// Run 启动一次生成运行
// 目标已有运行时同步返回冲突错误；否则返回事件通道，
// 通道以恰好一个 done 或 error 事件收尾后关闭。
func (o *Orchestrator) Run(ctx context.Context, task Task) (*entity.GenerationRun, <-chan Event, error) {
	runID := uuid.NewString()
	run := entity.NewGenerationRun(runID, task.ProjectID(), task.Kind(), task.TargetID())

	acquired, err := o.locker.Acquire(ctx, task.TargetID(), runID, o.cfg.LockTTL)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeCacheError, "failed to acquire generation lock")
	}
	if !acquired {
		return nil, nil, apperrors.ErrGenerationConflict.Clone().
			WithDetail("target " + task.TargetID())
	}

	events := make(chan Event, 16)
	go o.execute(ctx, run, task, events)
	return run, events, nil
}

// execute 推进状态机并向事件通道投递
func (o *Orchestrator) execute(ctx context.Context, run *entity.GenerationRun, task Task, events chan<- Event) {
	ctx, span := tracer.Start(ctx, "generation.Orchestrator.execute")
	defer span.End()

	metrics.ActiveStreams.Inc()
	defer metrics.ActiveStreams.Dec()
	defer close(events)

	var (
		output      string
		req         *llm.StreamRequest
		terminalErr error
	)

	defer func() {
		o.finish(context.WithoutCancel(ctx), run, task, req, output, terminalErr, events)
		if err := o.locker.Release(context.WithoutCancel(ctx), task.TargetID(), run.ID); err != nil {
			logger.Warn(ctx, "failed to release generation lock", "run_id", run.ID, "error", err)
		}
	}()

	// 锁续期，运行期间保持持有
	keepAlive, stopKeepAlive := context.WithCancel(ctx)
	defer stopKeepAlive()
	g, keepAlive := errgroup.WithContext(keepAlive)
	g.Go(func() error {
		ticker := time.NewTicker(o.cfg.LockTTL / 3)
		defer ticker.Stop()
		for {
			select {
			case <-keepAlive.Done():
				return nil
			case <-ticker.C:
				if err := o.locker.Extend(keepAlive, task.TargetID(), run.ID, o.cfg.LockTTL); err != nil {
					logger.Warn(keepAlive, "failed to extend generation lock", "run_id", run.ID, "error", err)
				}
			}
		}
	})
	defer func() { stopKeepAlive(); _ = g.Wait() }()

	// 阶段一：上下文构建
	if terminalErr = ctx.Err(); terminalErr != nil {
		return
	}
	_ = run.Transition(entity.RunStateContextBuilding)
	o.emit(ctx, events, progressEvent(run))

	req, terminalErr = task.BuildRequest(ctx)
	if terminalErr != nil {
		return
	}
	run.UpdateProgress(progressContextBuilt)
	o.emit(ctx, events, progressEvent(run))

	// 阶段二：流式生成
	if terminalErr = ctx.Err(); terminalErr != nil {
		return
	}
	_ = run.Transition(entity.RunStateStreaming)

	stream, err := o.opener.Open(ctx, req)
	if err != nil {
		terminalErr = err
		return
	}
	defer stream.Close()

	estimator := newProgressEstimator(task.EstimateTotalRunes(), o.cfg.DefaultTargetWords)
	produced := 0
	for {
		if terminalErr = ctx.Err(); terminalErr != nil {
			return
		}
		delta, recvErr := stream.Recv()
		if recvErr != nil {
			if errors.Is(recvErr, io.EOF) {
				break
			}
			terminalErr = recvErr
			return
		}
		if delta == "" {
			continue
		}
		output += delta
		produced += utf8.RuneCountInString(delta)
		o.emit(ctx, events, Event{Type: EventContent, Data: ContentData{Delta: delta}})

		prev := run.Progress
		run.UpdateProgress(estimator.estimate(produced))
		if run.Progress != prev {
			o.emit(ctx, events, progressEvent(run))
		}
	}

	// 阶段三：提交
	if terminalErr = ctx.Err(); terminalErr != nil {
		return
	}
	_ = run.Transition(entity.RunStateCommitting)
	run.UpdateProgress(progressCommitting)
	o.emit(ctx, events, progressEvent(run))

	if err := task.Commit(ctx, output); err != nil {
		terminalErr = err
		return
	}
	_ = run.Transition(entity.RunStateCompleted)
}

// finish 终止收尾：迁入终态、投递唯一的终止事件、落审计
func (o *Orchestrator) finish(ctx context.Context, run *entity.GenerationRun, task Task, req *llm.StreamRequest, output string, terminalErr error, events chan<- Event) {
	var terminal Event
	switch {
	case run.State == entity.RunStateCompleted:
		terminal = Event{Type: EventDone, Data: DoneData{
			RunID:       run.ID,
			State:       run.State,
			OutputRunes: utf8.RuneCountInString(output),
			DurationMs:  run.Duration().Milliseconds(),
		}}
	case terminalErr != nil && (errors.Is(terminalErr, context.Canceled) ||
		apperrors.IsCode(terminalErr, apperrors.CodeGenerationCanceled)):
		_ = run.Transition(entity.RunStateCancelled)
		terminal = Event{Type: EventDone, Data: DoneData{
			RunID:       run.ID,
			State:       run.State,
			OutputRunes: utf8.RuneCountInString(output),
			DurationMs:  run.Duration().Milliseconds(),
		}}
	default:
		_ = run.Transition(entity.RunStateFailed)
		appErr := llm.Classify(terminalErr)
		if appErr == nil {
			appErr = apperrors.ErrGenerationFailed
		}
		terminal = Event{Type: EventError, Data: ErrorData{
			RunID:   run.ID,
			Code:    string(appErr.Code),
			Message: appErr.Message,
		}}
	}

	// 终止事件限时投递，客户端可能已断开
	timer := time.NewTimer(5 * time.Second)
	defer timer.Stop()
	select {
	case events <- terminal:
	case <-timer.C:
	}

	metrics.GenerationTotal.WithLabelValues(string(run.Kind), string(run.State)).Inc()
	metrics.GenerationDuration.WithLabelValues(string(run.Kind)).Observe(run.Duration().Seconds())
	metrics.GenerationOutputRunes.WithLabelValues(string(run.Kind)).Observe(float64(utf8.RuneCountInString(output)))

	o.record(ctx, run, task, req, output, terminalErr)
}

// record 写生成历史并发布审计消息
func (o *Orchestrator) record(ctx context.Context, run *entity.GenerationRun, task Task, req *llm.StreamRequest, output string, terminalErr error) {
	provider, model, digest := "", "", ""
	if req != nil {
		provider, model = req.Provider, req.Model
		digest = promptDigest(req)
	}
	errCode := ""
	if terminalErr != nil {
		if appErr := llm.Classify(terminalErr); appErr != nil {
			errCode = string(appErr.Code)
		}
	}

	history := &entity.GenerationHistory{
		ID:           uuid.NewString(),
		ProjectID:    run.ProjectID,
		RunID:        run.ID,
		TargetKind:   string(run.Kind),
		TargetID:     run.TargetID,
		Provider:     provider,
		Model:        model,
		PromptDigest: digest,
		OutputRunes:  utf8.RuneCountInString(output),
		DurationMs:   run.Duration().Milliseconds(),
		Status:       string(run.State),
		ErrorCode:    errCode,
		CreatedAt:    time.Now(),
	}
	if o.historyRepo != nil {
		if err := o.historyRepo.Create(ctx, history); err != nil {
			logger.Error(ctx, "failed to record generation history", err, "run_id", run.ID)
		}
	}

	if o.producer != nil {
		audit := &messaging.GenerationAuditMessage{
			RunID:       run.ID,
			ProjectID:   run.ProjectID,
			Kind:        string(run.Kind),
			TargetID:    run.TargetID,
			Provider:    provider,
			Model:       model,
			Status:      string(run.State),
			ErrorCode:   errCode,
			OutputRunes: utf8.RuneCountInString(output),
			DurationMs:  run.Duration().Milliseconds(),
		}
		if err := o.producer.PublishGenerationAudit(ctx, audit); err != nil {
			logger.Warn(ctx, "failed to publish generation audit", "run_id", run.ID, "error", err)
		}
	}
}

// emit 投递事件，客户端断开时随 ctx 取消而放弃
func (o *Orchestrator) emit(ctx context.Context, events chan<- Event, ev Event) {
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}

func progressEvent(run *entity.GenerationRun) Event {
	return Event{Type: EventProgress, Data: ProgressData{
		RunID:    run.ID,
		State:    run.State,
		Progress: run.Progress,
	}}
}

func promptDigest(req *llm.StreamRequest) string {
	h := sha256.New()
	for _, msg := range req.Messages {
		h.Write([]byte(string(msg.Role)))
		h.Write([]byte{0})
		h.Write([]byte(msg.Content))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
