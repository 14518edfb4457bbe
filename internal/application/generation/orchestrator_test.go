package generation

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novel-studio-api/internal/config"
	"novel-studio-api/internal/domain/entity"
	"novel-studio-api/internal/infrastructure/llm"
	apperrors "novel-studio-api/pkg/errors"
)

type fakeLocker struct {
	mu       sync.Mutex
	held     map[string]string
	denyAll  bool
	released int
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]string)}
}

func (l *fakeLocker) Acquire(_ context.Context, targetID, token string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.denyAll {
		return false, nil
	}
	if _, ok := l.held[targetID]; ok {
		return false, nil
	}
	l.held[targetID] = token
	return true, nil
}

func (l *fakeLocker) Release(_ context.Context, targetID, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[targetID] == token {
		delete(l.held, targetID)
		l.released++
	}
	return nil
}

func (l *fakeLocker) Extend(_ context.Context, _, _ string, _ time.Duration) error {
	return nil
}

type fakeStream struct {
	deltas []string
	pos    int
	err    error
}

func (s *fakeStream) Recv() (string, error) {
	if s.pos < len(s.deltas) {
		d := s.deltas[s.pos]
		s.pos++
		return d, nil
	}
	if s.err != nil {
		return "", s.err
	}
	return "", io.EOF
}

func (s *fakeStream) Close() {}

type fakeOpener struct {
	stream  *fakeStream
	openErr error
}

func (o *fakeOpener) Open(_ context.Context, _ *llm.StreamRequest) (MessageStream, error) {
	if o.openErr != nil {
		return nil, o.openErr
	}
	return o.stream, nil
}

type fakeTask struct {
	mu        sync.Mutex
	buildErr  error
	commitErr error
	committed []string
	buildWait chan struct{}
}

func (t *fakeTask) Kind() entity.RunKind { return entity.RunKindChapter }
func (t *fakeTask) ProjectID() string    { return "proj-1" }
func (t *fakeTask) TargetID() string     { return "ch-1" }

func (t *fakeTask) BuildRequest(ctx context.Context) (*llm.StreamRequest, error) {
	if t.buildWait != nil {
		select {
		case <-t.buildWait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if t.buildErr != nil {
		return nil, t.buildErr
	}
	return &llm.StreamRequest{Provider: "openai", Model: "gpt-4o"}, nil
}

func (t *fakeTask) EstimateTotalRunes() int { return 100 }

func (t *fakeTask) Commit(_ context.Context, output string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = append(t.committed, output)
	return nil
}

func (t *fakeTask) committedOutputs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.committed...)
}

func testConfig() *config.Config {
	return &config.Config{Generation: config.GenerationConfig{
		LockTTL:            time.Minute,
		DefaultTargetWords: 2000,
	}}
}

// collect 读空事件通道并拆出终止事件
func collect(t *testing.T, events <-chan Event) (all []Event, terminals []Event) {
	t.Helper()
	for ev := range events {
		all = append(all, ev)
		if ev.Type == EventDone || ev.Type == EventError {
			terminals = append(terminals, ev)
		}
	}
	return all, terminals
}

func TestOrchestratorCompletedRun(t *testing.T) {
	locker := newFakeLocker()
	task := &fakeTask{}
	o := NewOrchestrator(
		&fakeOpener{stream: &fakeStream{deltas: []string{"夜色", "如墨。"}}},
		locker, nil, nil, testConfig(),
	)

	run, events, err := o.Run(context.Background(), task)
	require.NoError(t, err)

	all, terminals := collect(t, events)
	require.Len(t, terminals, 1, "exactly one terminal event")
	assert.Equal(t, EventDone, terminals[0].Type)

	done := terminals[0].Data.(DoneData)
	assert.Equal(t, run.ID, done.RunID)
	assert.Equal(t, entity.RunStateCompleted, done.State)
	assert.Equal(t, 5, done.OutputRunes)

	assert.Equal(t, []string{"夜色如墨。"}, task.committedOutputs())

	var deltas []string
	for _, ev := range all {
		if ev.Type == EventContent {
			deltas = append(deltas, ev.Data.(ContentData).Delta)
		}
	}
	assert.Equal(t, []string{"夜色", "如墨。"}, deltas)

	assert.Empty(t, locker.held, "lock released after run")
}

func TestOrchestratorConflict(t *testing.T) {
	locker := newFakeLocker()
	locker.denyAll = true
	o := NewOrchestrator(&fakeOpener{stream: &fakeStream{}}, locker, nil, nil, testConfig())

	run, events, err := o.Run(context.Background(), &fakeTask{})
	require.Error(t, err)
	assert.Nil(t, run)
	assert.Nil(t, events)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeGenerationConflict))
}

func TestOrchestratorStreamFailureKeepsOutputUncommitted(t *testing.T) {
	task := &fakeTask{}
	o := NewOrchestrator(
		&fakeOpener{stream: &fakeStream{
			deltas: []string{"部分内容"},
			err:    errors.New("connection reset by peer"),
		}},
		newFakeLocker(), nil, nil, testConfig(),
	)

	_, events, err := o.Run(context.Background(), task)
	require.NoError(t, err)

	all, terminals := collect(t, events)
	require.Len(t, terminals, 1)
	require.Equal(t, EventError, terminals[0].Type)

	errData := terminals[0].Data.(ErrorData)
	assert.Equal(t, string(apperrors.CodeProviderNetwork), errData.Code)

	// 已产出内容经事件流保留，但不落库
	var sawContent bool
	for _, ev := range all {
		if ev.Type == EventContent {
			sawContent = true
		}
	}
	assert.True(t, sawContent)
	assert.Empty(t, task.committedOutputs())
}

func TestOrchestratorCancellation(t *testing.T) {
	task := &fakeTask{buildWait: make(chan struct{})}
	o := NewOrchestrator(&fakeOpener{stream: &fakeStream{}}, newFakeLocker(), nil, nil, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	_, events, err := o.Run(ctx, task)
	require.NoError(t, err)

	cancel()

	_, terminals := collect(t, events)
	require.Len(t, terminals, 1)
	require.Equal(t, EventDone, terminals[0].Type)
	assert.Equal(t, entity.RunStateCancelled, terminals[0].Data.(DoneData).State)
	assert.Empty(t, task.committedOutputs())
}

func TestOrchestratorCommitFailure(t *testing.T) {
	task := &fakeTask{commitErr: apperrors.ErrPersistFailed.Clone()}
	o := NewOrchestrator(
		&fakeOpener{stream: &fakeStream{deltas: []string{"正文"}}},
		newFakeLocker(), nil, nil, testConfig(),
	)

	_, events, err := o.Run(context.Background(), task)
	require.NoError(t, err)

	_, terminals := collect(t, events)
	require.Len(t, terminals, 1)
	require.Equal(t, EventError, terminals[0].Type)
	assert.Equal(t, string(apperrors.CodePersistFailed), terminals[0].Data.(ErrorData).Code)
}
