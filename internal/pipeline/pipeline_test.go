package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"orderline/internal/journal"
	"orderline/internal/ledger"
	"orderline/internal/metrics"
	"orderline/internal/order"
)

func TestMain(m *testing.M) {
	// The sheets client's opencensus dependency starts a stats worker at
	// package init; it is not a goroutine this package can stop.
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// fakeClient returns a canned completion or error.
type fakeClient struct {
	reply string
	err   error
}

func (c *fakeClient) Complete(_ context.Context, _ string) (string, error) {
	return c.reply, c.err
}

func newProcessor(t *testing.T, opts Options) (*Processor, *ledger.MemoryGrid) {
	t.Helper()
	g := ledger.NewMemoryGrid()
	opts.Grid = g
	opts.ScanRows = 100
	return New(opts), g
}

func TestHandleDraftsOrder(t *testing.T) {
	p, _ := newProcessor(t, Options{})
	d, err := p.Handle(context.Background(), "maria", "2 cheese pouches and 1 BBQ tub for Maria, gcash, QC")
	require.NoError(t, err)

	assert.Equal(t, order.StateDrafted, d.State)
	assert.Equal(t, 590, d.Order.GrandTotal())
	assert.Equal(t, "Ferdie", d.Order.AssignedSeller)

	got, ok := p.Pending("maria")
	require.True(t, ok)
	assert.Equal(t, d.ID, got.ID)
}

func TestHandleZeroItemsIsParseFailed(t *testing.T) {
	p, _ := newProcessor(t, Options{})
	d, err := p.Handle(context.Background(), "juan", "kumusta po, open pa ba kayo?")
	require.NoError(t, err)

	assert.Equal(t, order.StateParseFailed, d.State)
	assert.Empty(t, d.Order.Items)
	_, ok := p.Pending("juan")
	assert.False(t, ok, "parse failures must not become pending drafts")
}

func TestHandleReplacesEarlierDraft(t *testing.T) {
	p, _ := newProcessor(t, Options{})
	first, err := p.Handle(context.Background(), "maria", "1 P-CHZ")
	require.NoError(t, err)
	second, err := p.Handle(context.Background(), "maria", "3 P-BBQ")
	require.NoError(t, err)

	got, ok := p.Pending("maria")
	require.True(t, ok)
	assert.Equal(t, second.ID, got.ID)
	assert.NotEqual(t, first.ID, got.ID)
}

func TestConfirmPersistsToLedger(t *testing.T) {
	p, g := newProcessor(t, Options{})
	_, err := p.Handle(context.Background(), "maria", "2 cheese pouches for Maria, gcash, qc")
	require.NoError(t, err)

	d, err := p.Confirm(context.Background(), "maria")
	require.NoError(t, err)
	assert.Equal(t, order.StatePersisted, d.State)
	assert.Equal(t, 2, d.Row)
	assert.Equal(t, "Maria", g.Get(2, ledger.ColCustomer))
	assert.Equal(t, "Reserved", g.Get(2, ledger.ColOrderType))

	_, ok := p.Pending("maria")
	assert.False(t, ok)
}

func TestConfirmWithoutDraft(t *testing.T) {
	p, _ := newProcessor(t, Options{})
	_, err := p.Confirm(context.Background(), "nobody")
	assert.Error(t, err)
}

func TestConfirmFailureRetainsDraft(t *testing.T) {
	p, g := newProcessor(t, Options{})
	_, err := p.Handle(context.Background(), "maria", "1 P-CHZ")
	require.NoError(t, err)

	cause := errors.New("quota exceeded")
	g.FailWrites = cause
	_, err = p.Confirm(context.Background(), "maria")
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)

	// The draft survives, and a retry after the outage succeeds.
	_, ok := p.Pending("maria")
	require.True(t, ok)
	g.FailWrites = nil
	d, err := p.Confirm(context.Background(), "maria")
	require.NoError(t, err)
	assert.Equal(t, order.StatePersisted, d.State)
}

func TestCancelDiscardsDraft(t *testing.T) {
	p, g := newProcessor(t, Options{})
	_, err := p.Handle(context.Background(), "maria", "1 P-CHZ")
	require.NoError(t, err)

	d, err := p.Cancel("maria")
	require.NoError(t, err)
	assert.Equal(t, order.StateCancelled, d.State)
	assert.Empty(t, g.Rows(), "cancelled orders never touch the ledger")

	_, err = p.Cancel("maria")
	assert.Error(t, err)
}

func TestClientFailureFallsBackToDeterministic(t *testing.T) {
	p, _ := newProcessor(t, Options{Client: &fakeClient{err: errors.New("timeout")}})
	d, err := p.Handle(context.Background(), "maria", "2 cheese pouches for Maria, gcash")
	require.NoError(t, err)

	assert.Equal(t, order.StateDrafted, d.State)
	assert.Equal(t, "Maria", d.Order.CustomerName)
	assert.Equal(t, 300, d.Order.TotalAmount)
}

func TestClientReplyGoesThroughReconciler(t *testing.T) {
	reply := `Sure! {"customer_name":"maria santos","payment_method":"gcash",
		"items":[{"product_code":"p-chz","quantity":2}],"confidence":0.9}`
	p, _ := newProcessor(t, Options{Client: &fakeClient{reply: reply}})

	d, err := p.Handle(context.Background(), "maria", "whatever she said")
	require.NoError(t, err)
	assert.Equal(t, "Maria Santos", d.Order.CustomerName)
	assert.Equal(t, order.PayGcash, d.Order.PaymentMethod)
	assert.Equal(t, 300, d.Order.TotalAmount)
}

func TestConcurrentConfirmsGetDistinctRows(t *testing.T) {
	p, g := newProcessor(t, Options{})
	const n = 8
	for i := 0; i < n; i++ {
		_, err := p.Handle(context.Background(), fmt.Sprintf("sender-%d", i), "1 P-CHZ")
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	rows := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := p.Confirm(context.Background(), fmt.Sprintf("sender-%d", i))
			if assert.NoError(t, err) {
				rows[i] = d.Row
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[int]bool)
	for _, row := range rows {
		assert.False(t, seen[row], "row %d allocated twice", row)
		seen[row] = true
	}
	assert.Len(t, g.Rows(), n)
}

func TestRowFallbackIsCounted(t *testing.T) {
	reg := metrics.NewRegistry()
	p, g := newProcessor(t, Options{Metrics: reg})
	_, err := p.Handle(context.Background(), "maria", "1 P-CHZ")
	require.NoError(t, err)

	// Reads fail, writes still work: the confirm lands on the fallback row.
	g.FailReads = errors.New("quota exceeded")
	d, err := p.Confirm(context.Background(), "maria")
	require.NoError(t, err)
	assert.Equal(t, ledger.FallbackRow, d.Row)
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.RowFallbacks))
}

func TestJournalFollowsLifecycle(t *testing.T) {
	j, err := journal.Open(filepath.Join(t.TempDir(), "orders.db"))
	require.NoError(t, err)
	defer j.Close()

	p, _ := newProcessor(t, Options{Journal: j})
	d, err := p.Handle(context.Background(), "maria", "1 P-CHZ")
	require.NoError(t, err)

	e, err := j.Get(d.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StateDrafted, e.State)

	_, err = p.Confirm(context.Background(), "maria")
	require.NoError(t, err)
	e, err = j.Get(d.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatePersisted, e.State)
	assert.Equal(t, 2, e.Row)
}
