package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDispatcher_RunsAndDrainsOnClose(t *testing.T) {
	d := NewDispatcher(2, 16, time.Second, zap.NewNop())

	var ran int32
	for i := 0; i < 10; i++ {
		assert.True(t, d.Submit("count", func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		}))
	}
	d.Close()
	assert.Equal(t, int32(10), atomic.LoadInt32(&ran))
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	d := NewDispatcher(1, 1, time.Second, zap.NewNop())
	release := make(chan struct{})
	started := make(chan struct{})

	assert.True(t, d.Submit("block", func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}))
	<-started
	assert.True(t, d.Submit("queued", func(ctx context.Context) error { return nil }))
	assert.False(t, d.Submit("dropped", func(ctx context.Context) error { return nil }))

	close(release)
	d.Close()
}

func TestDispatcher_SurvivesFailuresAndPanics(t *testing.T) {
	d := NewDispatcher(1, 4, time.Second, zap.NewNop())
	var ran int32

	d.Submit("fails", func(ctx context.Context) error { return errors.New("smtp down") })
	d.Submit("panics", func(ctx context.Context) error { panic("boom") })
	d.Submit("after", func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	})
	d.Close()
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestDispatcher_TaskContextHasDeadline(t *testing.T) {
	d := NewDispatcher(1, 1, 50*time.Millisecond, zap.NewNop())
	var hadDeadline atomic.Bool
	d.Submit("deadline", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		hadDeadline.Store(ok)
		return nil
	})
	d.Close()
	assert.True(t, hadDeadline.Load())
}

func TestDispatcher_SubmitAfterClose(t *testing.T) {
	d := NewDispatcher(1, 1, time.Second, zap.NewNop())
	d.Close()
	d.Close()
	assert.False(t, d.Submit("late", func(ctx context.Context) error { return nil }))
}
