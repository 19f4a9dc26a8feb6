package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetscan/sheetscan/internal/domain"
	"github.com/sheetscan/sheetscan/internal/observability"
	"github.com/sheetscan/sheetscan/internal/records"
)

// fakeGateway counts concurrent calls and fails sources listed in failOn.
type fakeGateway struct {
	failOn   map[string]bool
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (g *fakeGateway) Recognize(_ context.Context, image []byte, hint domain.SheetVariant) (domain.RecognitionOutcome, error) {
	cur := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	for {
		p := g.peak.Load()
		if cur <= p || g.peak.CompareAndSwap(p, cur) {
			break
		}
	}
	if g.delay > 0 {
		time.Sleep(g.delay)
	}
	if g.failOn[string(image)] {
		return domain.RecognitionOutcome{}, domain.RecognitionError("oracle call failed", errors.New("boom"))
	}
	variant := hint
	if variant == "" {
		variant = domain.VariantInfo
	}
	fields, _ := domain.NewFieldSet(variant)
	return domain.RecognitionOutcome{Variant: variant, Fields: fields, Confidence: 0.9}, nil
}

func makeItems(n int) []domain.WorkItem {
	items := make([]domain.WorkItem, n)
	for i := range items {
		items[i] = domain.WorkItem{
			Image:      []byte(fmt.Sprintf("img-%d", i)),
			SourceName: fmt.Sprintf("img-%d.jpg", i),
			Kind:       domain.SourceKindImage,
		}
	}
	return items
}

func newTestDispatcher(g Gateway, store *records.Store, opts Options) *Dispatcher {
	return NewDispatcher(g, records.NewAssembler(store), observability.Nop(), opts)
}

func TestRunProcessesEveryItem(t *testing.T) {
	store := records.NewStore()
	d := newTestDispatcher(&fakeGateway{}, store, Options{Workers: 4})

	report, err := d.Run(context.Background(), makeItems(10))
	require.NoError(t, err)
	assert.Equal(t, 10, report.Total)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, domain.BatchClean, report.Disposition)
	assert.Equal(t, 10, store.Len())
}

func TestRunRespectsConcurrencyCeiling(t *testing.T) {
	gateway := &fakeGateway{delay: 10 * time.Millisecond}
	store := records.NewStore()
	d := newTestDispatcher(gateway, store, Options{Workers: 3})

	_, err := d.Run(context.Background(), makeItems(20))
	require.NoError(t, err)
	assert.LessOrEqual(t, gateway.peak.Load(), int32(3),
		"in-flight calls never exceed the ceiling")
}

func TestRunProgressIsMonotonic(t *testing.T) {
	var mu sync.Mutex
	var seen []int
	total := -1

	store := records.NewStore()
	d := newTestDispatcher(&fakeGateway{}, store, Options{
		Workers: 5,
		// The callback does a little work before recording, like a real
		// consumer rendering a progress bar. Deliveries must still arrive
		// in counting order even when completions race.
		OnProgress: func(completed, tot int) {
			time.Sleep(time.Microsecond)
			mu.Lock()
			seen = append(seen, completed)
			total = tot
			mu.Unlock()
		},
	})

	_, err := d.Run(context.Background(), makeItems(40))
	require.NoError(t, err)

	assert.Equal(t, 40, total)
	require.NotEmpty(t, seen)
	assert.Equal(t, 0, seen[0], "progress starts at zero")
	assert.Equal(t, 40, seen[len(seen)-1], "progress ends at total")
	for i := 1; i < len(seen); i++ {
		require.GreaterOrEqual(t, seen[i], seen[i-1],
			"progress regressed: %d delivered after %d", seen[i], seen[i-1])
	}
}

func TestRunDegradesOnPartialFailure(t *testing.T) {
	gateway := &fakeGateway{failOn: map[string]bool{"img-2": true, "img-5": true}}
	store := records.NewStore()
	d := newTestDispatcher(gateway, store, Options{Workers: 3})

	report, err := d.Run(context.Background(), makeItems(6))
	require.NoError(t, err, "partial failure is not a batch error")
	assert.Equal(t, domain.BatchDegraded, report.Disposition)
	assert.Equal(t, 2, report.Failed)
	assert.False(t, report.Flags[2])
	assert.False(t, report.Flags[5])
	assert.True(t, report.Flags[0])
	assert.Equal(t, 4, store.Len(), "failed items never reach the store")
}

func TestRunFailsWhenEveryItemFails(t *testing.T) {
	gateway := &fakeGateway{failOn: map[string]bool{"img-0": true, "img-1": true, "img-2": true}}
	store := records.NewStore()
	d := newTestDispatcher(gateway, store, Options{Workers: 3})

	report, err := d.Run(context.Background(), makeItems(3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check the recognition API quota")
	assert.Equal(t, domain.BatchFailed, report.Disposition)
	assert.Equal(t, 0, store.Len())
}

func TestRunEmptyQueue(t *testing.T) {
	store := records.NewStore()
	d := newTestDispatcher(&fakeGateway{}, store, Options{Workers: 3})

	report, err := d.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.BatchClean, report.Disposition)
	assert.Equal(t, 0, report.Total)
}

func TestNewDispatcherClampsWorkers(t *testing.T) {
	store := records.NewStore()
	tests := []struct {
		in, want int
	}{
		{0, 4},
		{1, 3},
		{3, 3},
		{5, 5},
		{12, 5},
	}
	for _, tt := range tests {
		d := newTestDispatcher(&fakeGateway{}, store, Options{Workers: tt.in})
		assert.Equal(t, tt.want, d.workers, "workers=%d", tt.in)
	}
}
