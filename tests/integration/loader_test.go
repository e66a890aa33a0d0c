package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sternrassler/animals-etl-client/internal/testutil"
	"github.com/Sternrassler/animals-etl-client/pkg/catalog"
	"github.com/Sternrassler/animals-etl-client/pkg/client"
	"github.com/Sternrassler/animals-etl-client/pkg/loader"
)

// setupLoader wires a client, the catalog API and a loader against the mock.
// Backoff is zeroed so retry-heavy runs finish instantly; mutate can adjust
// the client config further before the client is built.
func setupLoader(t *testing.T, m *testutil.MockCatalog, cfg loader.Config, mutate func(*client.Config)) *loader.Loader {
	t.Helper()

	ccfg := client.DefaultConfig(m.URL())
	ccfg.Backoff = func(int) time.Duration { return 0 }
	if mutate != nil {
		mutate(&ccfg)
	}

	c, err := client.New(ccfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	api, err := catalog.NewAPI(c, catalog.DefaultEndpoints())
	if err != nil {
		t.Fatalf("Failed to create catalog API: %v", err)
	}
	etl, err := loader.New(api, cfg)
	if err != nil {
		t.Fatalf("Failed to create loader: %v", err)
	}
	return etl
}

func assertRecord(t *testing.T, got catalog.NormalizedRecord, wantFriends []string, wantBorn *string) {
	t.Helper()

	if len(got.Friends) != len(wantFriends) {
		t.Errorf("Record %d friends = %v, want %v", got.ID, got.Friends, wantFriends)
		return
	}
	for i := range wantFriends {
		if got.Friends[i] != wantFriends[i] {
			t.Errorf("Record %d friends = %v, want %v", got.ID, got.Friends, wantFriends)
			return
		}
	}
	switch {
	case wantBorn == nil && got.BornAt != nil:
		t.Errorf("Record %d born_at = %q, want null", got.ID, *got.BornAt)
	case wantBorn != nil && got.BornAt == nil:
		t.Errorf("Record %d born_at = null, want %q", got.ID, *wantBorn)
	case wantBorn != nil && *got.BornAt != *wantBorn:
		t.Errorf("Record %d born_at = %q, want %q", got.ID, *got.BornAt, *wantBorn)
	}
}

func iso(s string) *string { return &s }

// TestFullTransferFlow runs the whole pipeline against a faulty service:
// listing, detail fetches and batch posts all take scripted 5xx hits and
// every record still arrives home exactly once, in listing order.
func TestFullTransferFlow(t *testing.T) {
	m := testutil.NewMockCatalog(testutil.DefaultSeed(25))
	defer m.Close()
	m.SetPageSize(10)

	m.FailNext(testutil.RouteList, 503, 2)
	m.FailNext(testutil.RouteDetail, 500, 3)
	m.FailNext(testutil.RouteHome, 502, 1)

	etl := setupLoader(t, m, loader.Config{Concurrency: 8, BatchSize: 10}, nil)

	stats, err := etl.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.RecordsListed != 25 {
		t.Errorf("RecordsListed = %d, want 25", stats.RecordsListed)
	}
	if stats.RecordsFetched != 25 {
		t.Errorf("RecordsFetched = %d, want 25", stats.RecordsFetched)
	}
	if stats.RecordsPosted != 25 {
		t.Errorf("RecordsPosted = %d, want 25", stats.RecordsPosted)
	}
	if stats.Batches != 3 {
		t.Errorf("Batches = %d, want 3", stats.Batches)
	}
	if stats.Duration <= 0 {
		t.Errorf("Duration = %v, want > 0", stats.Duration)
	}

	if left := m.RemainingIDs(); len(left) != 0 {
		t.Errorf("Records left without a home: %v", left)
	}

	// Every faulted request is retried until it succeeds, so the totals per
	// route are exact: successes plus scripted faults.
	if got := m.Requests(testutil.RouteList); got != 5 {
		t.Errorf("Listing requests = %d, want 5", got)
	}
	if got := m.Requests(testutil.RouteDetail); got != 28 {
		t.Errorf("Detail requests = %d, want 28", got)
	}
	if got := m.Requests(testutil.RouteHome); got != 4 {
		t.Errorf("Home requests = %d, want 4", got)
	}

	batches := m.PostedBatches()
	if len(batches) != 3 {
		t.Fatalf("Posted batches = %d, want 3", len(batches))
	}
	for i, want := range []int{10, 10, 5} {
		if len(batches[i]) != want {
			t.Errorf("Batch %d size = %d, want %d", i+1, len(batches[i]), want)
		}
	}

	var flat []catalog.NormalizedRecord
	for _, b := range batches {
		flat = append(flat, b...)
	}
	for i, rec := range flat {
		if int64(rec.ID) != int64(i+1) {
			t.Fatalf("Posted order broken at position %d: got id %d, want %d", i, rec.ID, i+1)
		}
	}

	// Spot-check one record per seeded field shape.
	assertRecord(t, flat[0], []string{"Elephant"}, nil)
	assertRecord(t, flat[1], []string{}, iso("2021-02-01T00:00:00Z"))
	assertRecord(t, flat[2], []string{}, nil)
	assertRecord(t, flat[3], []string{"Cat", "Dog"}, iso("2021-01-01T00:00:00Z"))
}

// TestListingRetryExhausted drives the first listing page into six straight
// 500s, one per allowed attempt, and expects the run to abort before any
// record moves.
func TestListingRetryExhausted(t *testing.T) {
	m := testutil.NewMockCatalog(testutil.DefaultSeed(5))
	defer m.Close()

	m.FailNext(testutil.RouteList, 500, client.DefaultMaxAttempts)

	etl := setupLoader(t, m, loader.Config{BatchSize: 10}, nil)

	stats, err := etl.Run(context.Background())
	if err == nil {
		t.Fatal("Run succeeded, want retry exhaustion")
	}
	if !errors.Is(err, client.ErrRetryExhausted) {
		t.Errorf("Run error = %v, want ErrRetryExhausted", err)
	}

	if got := m.Requests(testutil.RouteList); got != client.DefaultMaxAttempts {
		t.Errorf("Listing requests = %d, want %d", got, client.DefaultMaxAttempts)
	}
	if stats.RecordsListed != 0 {
		t.Errorf("RecordsListed = %d, want 0", stats.RecordsListed)
	}
	if got := m.Requests(testutil.RouteHome); got != 0 {
		t.Errorf("Home requests = %d, want 0", got)
	}
}

// TestTerminalFaultAborts injects a single 404 on the detail route and
// expects an immediate abort with no retry and no posting.
func TestTerminalFaultAborts(t *testing.T) {
	m := testutil.NewMockCatalog(testutil.DefaultSeed(8))
	defer m.Close()

	m.FailNext(testutil.RouteDetail, 404, 1)

	etl := setupLoader(t, m, loader.Config{Concurrency: 1, BatchSize: 10}, nil)

	_, err := etl.Run(context.Background())
	if err == nil {
		t.Fatal("Run succeeded, want terminal fault")
	}
	if errors.Is(err, client.ErrRetryExhausted) {
		t.Errorf("Run error = %v, want a terminal fault, not exhaustion", err)
	}

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Run error = %v, want an APIError in the chain", err)
	}
	if apiErr.StatusCode != 404 {
		t.Errorf("APIError status = %d, want 404", apiErr.StatusCode)
	}

	if got := m.Requests(testutil.RouteDetail); got != 1 {
		t.Errorf("Detail requests = %d, want 1", got)
	}
	if got := m.Requests(testutil.RouteHome); got != 0 {
		t.Errorf("Home requests = %d, want 0", got)
	}
}

// TestStallRecovery stalls one detail response past the request timeout and
// expects the attempt to be retried to success.
func TestStallRecovery(t *testing.T) {
	m := testutil.NewMockCatalog(testutil.DefaultSeed(4))
	defer m.Close()

	m.StallNext(testutil.RouteDetail, 600*time.Millisecond, 1)

	etl := setupLoader(t, m, loader.Config{Concurrency: 2, BatchSize: 10}, func(c *client.Config) {
		c.RequestTimeout = 150 * time.Millisecond
	})

	stats, err := etl.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.RecordsPosted != 4 {
		t.Errorf("RecordsPosted = %d, want 4", stats.RecordsPosted)
	}
	if left := m.RemainingIDs(); len(left) != 0 {
		t.Errorf("Records left without a home: %v", left)
	}
	if got := m.Requests(testutil.RouteDetail); got != 5 {
		t.Errorf("Detail requests = %d, want 5", got)
	}
}

// TestCancellationStopsRun cancels mid-run and expects a prompt abort with
// the cancellation surfaced.
func TestCancellationStopsRun(t *testing.T) {
	m := testutil.NewMockCatalog(testutil.DefaultSeed(40))
	defer m.Close()
	m.SetPageSize(5)

	// Stall every listing page so the run sits in the listing stage long
	// enough for the cancel to land.
	m.StallNext(testutil.RouteList, 2*time.Second, 8)

	etl := setupLoader(t, m, loader.Config{BatchSize: 10}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := etl.Run(ctx)
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("Run succeeded, want cancellation")
	}
	if !errors.Is(err, client.ErrContextCancelled) && !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want cancellation", err)
	}
	if elapsed > 1500*time.Millisecond {
		t.Errorf("Run took %v after cancel, want a prompt abort", elapsed)
	}
	if got := m.Requests(testutil.RouteHome); got != 0 {
		t.Errorf("Home requests = %d, want 0", got)
	}
}

// TestChaosOnEveryRoute lets the next few requests fail regardless of
// route and expects the pipeline to absorb all of it.
func TestChaosOnEveryRoute(t *testing.T) {
	m := testutil.NewMockCatalog(testutil.DefaultSeed(12))
	defer m.Close()
	m.SetPageSize(4)

	m.FailNext(testutil.RouteAny, 503, 4)

	etl := setupLoader(t, m, loader.Config{Concurrency: 4, BatchSize: 5}, nil)

	stats, err := etl.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.RecordsPosted != 12 {
		t.Errorf("RecordsPosted = %d, want 12", stats.RecordsPosted)
	}
	if left := m.RemainingIDs(); len(left) != 0 {
		t.Errorf("Records left without a home: %v", left)
	}
}
