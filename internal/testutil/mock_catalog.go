// Package testutil provides testing utilities for the catalog loader.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/animals-etl-client/pkg/catalog"
)

// Route names used for fault scripting and request counting.
const (
	RouteList   = "list"
	RouteDetail = "detail"
	RouteHome   = "home"
	RouteRoot   = "root"
	// RouteAny matches whichever route is hit next.
	RouteAny = "*"
)

// SeedRecord seeds one animal into the mock. Friends and BornAt are
// marshaled as given, so seeds can reproduce every field shape the real
// service emits: comma-joined strings, arrays, empty strings, numbers,
// digit strings and null.
type SeedRecord struct {
	ID      int64
	Name    string
	Friends any
	BornAt  any
}

// fault is one scripted bad response: an optional stall followed by an
// error status. A zero status stalls and then falls through to the normal
// handler.
type fault struct {
	status int
	delay  time.Duration
}

// MockCatalog is a configurable in-process stand-in for the catalog
// service. It serves the paginated listing, the detail documents and the
// home endpoint from seeded records, validates posted batches the way the
// real destination does, and injects scripted faults on demand.
type MockCatalog struct {
	server *httptest.Server
	mu     sync.Mutex

	pageSize int
	seeds    []SeedRecord
	byID     map[int64]SeedRecord

	handlers map[string]http.HandlerFunc
	faults   map[string][]fault
	counts   map[string]int
	total    int

	batches   [][]catalog.NormalizedRecord
	remaining map[int64]bool
}

// NewMockCatalog starts a mock serving the given seeds, ten listing items
// per page.
func NewMockCatalog(seeds []SeedRecord) *MockCatalog {
	m := &MockCatalog{
		pageSize:  10,
		seeds:     seeds,
		byID:      make(map[int64]SeedRecord, len(seeds)),
		handlers:  make(map[string]http.HandlerFunc),
		faults:    make(map[string][]fault),
		counts:    make(map[string]int),
		remaining: make(map[int64]bool, len(seeds)),
	}
	for _, s := range seeds {
		m.byID[s.ID] = s
		m.remaining[s.ID] = true
	}

	m.server = httptest.NewServer(http.HandlerFunc(m.dispatch))
	return m
}

// URL returns the mock server URL.
func (m *MockCatalog) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCatalog) Close() {
	m.server.Close()
}

// Reset clears counters, scripted faults and delivery state. Seeds stay.
func (m *MockCatalog) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults = make(map[string][]fault)
	m.counts = make(map[string]int)
	m.total = 0
	m.batches = nil
	m.remaining = make(map[int64]bool, len(m.seeds))
	for _, s := range m.seeds {
		m.remaining[s.ID] = true
	}
}

// SetPageSize changes how many listing items one page carries.
func (m *MockCatalog) SetPageSize(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > 0 {
		m.pageSize = n
	}
}

// SetHandler installs a custom handler for an exact request path, bypassing
// routing, faults and tracking side effects other than the total count.
func (m *MockCatalog) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// FailNext scripts the next times requests on route to answer status.
func (m *MockCatalog) FailNext(route string, status int, times int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < times; i++ {
		m.faults[route] = append(m.faults[route], fault{status: status})
	}
}

// StallNext scripts the next times requests on route to hang for delay
// before being answered normally.
func (m *MockCatalog) StallNext(route string, delay time.Duration, times int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < times; i++ {
		m.faults[route] = append(m.faults[route], fault{delay: delay})
	}
}

// Requests returns how many requests the route has received.
func (m *MockCatalog) Requests(route string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[route]
}

// TotalRequests returns the number of requests across all routes.
func (m *MockCatalog) TotalRequests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

// PostedBatches returns a copy of every batch accepted so far, in arrival
// order.
func (m *MockCatalog) PostedBatches() [][]catalog.NormalizedRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]catalog.NormalizedRecord, len(m.batches))
	for i, b := range m.batches {
		out[i] = slices.Clone(b)
	}
	return out
}

// RemainingIDs returns the seeded ids that have not been posted home yet,
// sorted ascending.
func (m *MockCatalog) RemainingIDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.remaining))
	for id := range m.remaining {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (m *MockCatalog) dispatch(w http.ResponseWriter, r *http.Request) {
	route, id := m.route(r)

	m.mu.Lock()
	m.total++
	if route != "" {
		m.counts[route]++
	}
	handler := m.handlers[r.URL.Path]
	f, hasFault := m.popFaultLocked(route)
	m.mu.Unlock()

	if handler != nil {
		handler(w, r)
		return
	}

	if hasFault {
		if f.delay > 0 {
			select {
			case <-time.After(f.delay):
			case <-r.Context().Done():
				return
			}
		}
		if f.status > 0 {
			writeJSON(w, f.status, map[string]string{"detail": "simulated chaos"})
			return
		}
	}

	switch route {
	case RouteList:
		m.handleList(w, r)
	case RouteDetail:
		m.handleDetail(w, id)
	case RouteHome:
		m.handleHome(w, r)
	case RouteRoot:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not Found"})
	}
}

func (m *MockCatalog) route(r *http.Request) (string, int64) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case r.Method == http.MethodGet && path == "/animals/v1/animals":
		return RouteList, 0
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/animals/v1/animals/"):
		id, err := strconv.ParseInt(strings.TrimPrefix(path, "/animals/v1/animals/"), 10, 64)
		if err != nil {
			return "", 0
		}
		return RouteDetail, id
	case r.Method == http.MethodPost && path == "/animals/v1/home":
		return RouteHome, 0
	case r.Method == http.MethodGet && path == "":
		return RouteRoot, 0
	}
	return "", 0
}

// popFaultLocked takes the next scripted fault for route, preferring the
// route's own queue over the RouteAny queue. Caller holds mu.
func (m *MockCatalog) popFaultLocked(route string) (fault, bool) {
	for _, key := range []string{route, RouteAny} {
		if key == "" {
			continue
		}
		if queue := m.faults[key]; len(queue) > 0 {
			f := queue[0]
			m.faults[key] = queue[1:]
			return f, true
		}
	}
	return fault{}, false
}

func (m *MockCatalog) handleList(w http.ResponseWriter, r *http.Request) {
	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}

	m.mu.Lock()
	seeds := m.seeds
	pageSize := m.pageSize
	m.mu.Unlock()

	totalPages := (len(seeds) + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	items := []map[string]any{}
	start := (page - 1) * pageSize
	for i := start; i < start+pageSize && i < len(seeds); i++ {
		items = append(items, map[string]any{
			"id":      seeds[i].ID,
			"name":    seeds[i].Name,
			"born_at": seeds[i].BornAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"page":        page,
		"total_pages": totalPages,
		"items":       items,
	})
}

func (m *MockCatalog) handleDetail(w http.ResponseWriter, id int64) {
	m.mu.Lock()
	seed, ok := m.byID[id]
	m.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Animal not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":      seed.ID,
		"name":    seed.Name,
		"friends": seed.Friends,
		"born_at": seed.BornAt,
	})
}

// postedRecord keeps the variant fields raw so the mock can reject shapes
// the real destination would reject, like friends rendered as null.
type postedRecord struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Friends json.RawMessage `json:"friends"`
	BornAt  json.RawMessage `json:"born_at"`
}

func (m *MockCatalog) handleHome(w http.ResponseWriter, r *http.Request) {
	var posted []postedRecord
	if err := json.NewDecoder(r.Body).Decode(&posted); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Body must be a JSON array"})
		return
	}
	if len(posted) > 100 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Batch size over 100"})
		return
	}

	records := make([]catalog.NormalizedRecord, 0, len(posted))
	for _, p := range posted {
		friends, err := validFriends(p.Friends)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
			return
		}
		bornAt, err := validBornAt(p.BornAt)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
			return
		}
		records = append(records, catalog.NormalizedRecord{
			ID:      catalog.RecordID(p.ID),
			Name:    p.Name,
			Friends: friends,
			BornAt:  bornAt,
		})
	}

	m.mu.Lock()
	m.batches = append(m.batches, records)
	for _, rec := range records {
		delete(m.remaining, int64(rec.ID))
	}
	m.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Helped %d find home", len(records)),
	})
}

func validFriends(raw json.RawMessage) ([]string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, fmt.Errorf("friends must be an array, not null")
	}
	var friends []string
	if err := json.Unmarshal(trimmed, &friends); err != nil {
		return nil, fmt.Errorf("friends must be an array of strings")
	}
	return friends, nil
}

func validBornAt(raw json.RawMessage) (*string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, nil
	}
	var iso string
	if err := json.Unmarshal(trimmed, &iso); err != nil {
		return nil, fmt.Errorf("born_at must be null or a string")
	}
	if _, err := time.Parse(time.RFC3339, iso); err != nil {
		return nil, fmt.Errorf("born_at must be RFC 3339, got %q", iso)
	}
	return &iso, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// DefaultSeed builds n records cycling through the field shapes the real
// service produces.
func DefaultSeed(n int) []SeedRecord {
	seeds := make([]SeedRecord, 0, n)
	for i := 1; i <= n; i++ {
		seed := SeedRecord{ID: int64(i), Name: fmt.Sprintf("animal-%d", i)}
		switch i % 4 {
		case 0:
			seed.Friends = "Cat,Dog"
			seed.BornAt = int64(1609459200000)
		case 1:
			seed.Friends = []string{"Elephant"}
			seed.BornAt = nil
		case 2:
			seed.Friends = ""
			seed.BornAt = "1612137600000"
		case 3:
			seed.Friends = nil
			seed.BornAt = 0
		}
		seeds = append(seeds, seed)
	}
	return seeds
}
