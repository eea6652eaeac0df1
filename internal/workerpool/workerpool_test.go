package workerpool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSubmitRunsOnWorker(t *testing.T) {
	p := New(2)
	defer p.Close()

	var ran int32
	err := p.Submit(context.Background(), func() {
		atomic.AddInt32(&ran, 1)
	})
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestSubmitBoundsConcurrency(t *testing.T) {
	p := New(1)
	defer p.Close()

	var inflight int32
	var maxInflight int32
	done := make(chan struct{})
	for i := 0; i < 3; i++ {
		go func() {
			_ = p.Submit(context.Background(), func() {
				n := atomic.AddInt32(&inflight, 1)
				for {
					cur := atomic.LoadInt32(&maxInflight)
					if n <= cur || atomic.CompareAndSwapInt32(&maxInflight, cur, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&inflight, -1)
			})
			done <- struct{}{}
		}()
	}
	for i := 0; i < 3; i++ {
		<-done
	}
	require.Equal(t, int32(1), atomic.LoadInt32(&maxInflight))
}

func TestSubmitRespectsContextCancellation(t *testing.T) {
	p := New(1)
	defer p.Close()

	block := make(chan struct{})
	go func() {
		_ = p.Submit(context.Background(), func() {
			<-block
		})
	}()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Submit(ctx, func() {})
	require.ErrorIs(t, err, context.Canceled)
	close(block)
}

func TestCloseIsIdempotent(t *testing.T) {
	p := New(1)
	require.NotPanics(t, func() {
		p.Close()
		p.Close()
	})
}

func TestSubmitAfterCloseReturnsCanceled(t *testing.T) {
	p := New(1)
	p.Close()
	err := p.Submit(context.Background(), func() {})
	require.Error(t, err)
}
