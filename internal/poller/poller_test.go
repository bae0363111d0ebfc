package poller

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/codedlook/storefront/internal/domain"
)

type mockCatalog struct {
	loads int32
	busy  atomic.Bool
}

func (m *mockCatalog) LoadCatalog(context.Context) ([]domain.Product, error) {
	atomic.AddInt32(&m.loads, 1)
	return nil, nil
}

func (m *mockCatalog) Busy() bool { return m.busy.Load() }

func TestRun_RefreshesOnTick(t *testing.T) {
	catalog := &mockCatalog{}
	p := New(catalog, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&catalog.loads) >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestRun_SkipsWhileBusy(t *testing.T) {
	catalog := &mockCatalog{}
	catalog.busy.Store(true)
	p := New(catalog, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	p.Run(ctx)

	assert.Zero(t, atomic.LoadInt32(&catalog.loads))
}

func TestNew_DefaultInterval(t *testing.T) {
	p := New(&mockCatalog{}, 0)
	assert.Equal(t, 5*time.Second, p.interval)
}
