package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applogger "FinForecast/pkg/logger"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(ev string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type fakeComponent struct {
	name     string
	rec      *recorder
	startErr error
}

func (f *fakeComponent) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	f.rec.add("start " + f.name)
	return nil
}

func (f *fakeComponent) Stop(context.Context) error {
	f.rec.add("stop " + f.name)
	return nil
}

func TestAppRunLifecycleOrder(t *testing.T) {
	rec := &recorder{}
	app := New(applogger.NewNop(), &fakeComponent{name: "http", rec: rec},
		WithComponent("queue", &fakeComponent{name: "queue", rec: rec}),
		WithComponent("scheduler", &fakeComponent{name: "scheduler", rec: rec}),
		WithCloser("redis", func() error { rec.add("close redis"); return nil }),
		WithShutdownTimeout(time.Second),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool { return len(rec.list()) == 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("app did not stop")
	}

	assert.Equal(t, []string{
		"start queue",
		"start scheduler",
		"start http",
		"stop http",
		"stop scheduler",
		"stop queue",
		"close redis",
	}, rec.list())
}

func TestAppRunStartFailureRollsBack(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("redis down")
	app := New(applogger.NewNop(), &fakeComponent{name: "http", rec: rec},
		WithComponent("scheduler", &fakeComponent{name: "scheduler", rec: rec}),
		WithComponent("queue", &fakeComponent{name: "queue", rec: rec, startErr: boom}),
		WithCloser("kafka", func() error { rec.add("close kafka"); return nil }),
	)

	err := app.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "start queue")
	assert.Equal(t, []string{"start scheduler", "stop scheduler", "close kafka"}, rec.list())
}

func TestOptionsIgnoreNil(t *testing.T) {
	app := New(applogger.NewNop(), &fakeComponent{name: "http", rec: &recorder{}},
		WithComponent("nil", nil),
		WithCloser("nil", nil),
		WithShutdownTimeout(0),
	)
	assert.Empty(t, app.components)
	assert.Empty(t, app.closers)
	assert.Equal(t, 15*time.Second, app.shutdownTimeout)
}
