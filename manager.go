package fpgrowth

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/oarkflow/json"

	"github.com/oarkflow/fpgrowth/utils"
)

// Request describes one mining run over a collection.
type Request struct {
	MinimumSupport int  `json:"minimum_support" query:"minimum_support"`
	Workers        int  `json:"workers" query:"workers"`
	Eliminations   bool `json:"eliminations" query:"eliminations"`
	Size           int  `json:"s" query:"s"`
	Page           int  `json:"p" query:"p"`
}

// Checksum produces a stable cache key for the request.
func (r Request) Checksum() (uint64, error) {
	canon := struct {
		MinimumSupport int  `json:"minimum_support"`
		Workers        int  `json:"workers"`
		Eliminations   bool `json:"eliminations"`
		Size           int  `json:"s"`
		Page           int  `json:"p"`
	}{
		MinimumSupport: r.MinimumSupport,
		Workers:        r.Workers,
		Eliminations:   r.Eliminations,
		Size:           r.Size,
		Page:           r.Page,
	}
	payload, err := json.Marshal(canon)
	if err != nil {
		return 0, fmt.Errorf("marshaling canonical request: %w", err)
	}
	return xxhash.Sum64(payload), nil
}

// Response is one mined page of frequent patterns.
type Response struct {
	JobID        int64             `json:"job_id"`
	Collection   string            `json:"collection"`
	Transactions int               `json:"transactions"`
	Total        int               `json:"total"`
	Page         int               `json:"page"`
	PerPage      int               `json:"per_page"`
	TotalPages   int               `json:"total_pages"`
	NextPage     *int              `json:"next_page"`
	PrevPage     *int              `json:"prev_page"`
	Patterns     []Pattern[string] `json:"patterns"`
	Eliminations [][]string        `json:"eliminations,omitempty"`
	Latency      string            `json:"latency"`
}

type mineCacheEntry struct {
	data   *Response
	expiry time.Time
}

// CollectionOption configures a Collection.
type CollectionOption func(*Collection)

// WithLoader installs the loader used by Build.
func WithLoader(loader *Loader) CollectionOption {
	return func(c *Collection) {
		if loader != nil {
			c.loader = loader
		}
	}
}

// WithCacheExpiry sets how long mined responses stay cached.
func WithCacheExpiry(dur time.Duration) CollectionOption {
	return func(c *Collection) {
		c.cacheExpiry = dur
	}
}

// Collection holds one named set of transactions plus a cache of mined
// responses keyed by request checksum.
type Collection struct {
	sync.RWMutex
	ID             string
	transactions   [][]string
	loader         *Loader
	mineCache      map[uint64]mineCacheEntry
	cacheExpiry    time.Duration
	loadInProgress bool
	closed         chan struct{}
	closeOnce      sync.Once
}

// NewCollection creates an empty transaction collection.
func NewCollection(id string, opts ...CollectionOption) *Collection {
	c := &Collection{
		ID:          id,
		loader:      NewLoader(),
		mineCache:   make(map[uint64]mineCacheEntry),
		cacheExpiry: time.Minute,
		closed:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.startCacheCleanup()
	return c
}

// Close stops the cache cleanup goroutine.
func (c *Collection) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
	return nil
}

func (c *Collection) startCacheCleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.Lock()
			for key, entry := range c.mineCache {
				if now.After(entry.expiry) {
					delete(c.mineCache, key)
				}
			}
			c.Unlock()
		case <-c.closed:
			return
		}
	}
}

// Build loads transactions from any supported source and appends them to the
// collection. Cached responses are invalidated.
func (c *Collection) Build(ctx context.Context, input any) error {
	c.Lock()
	if c.loadInProgress {
		c.Unlock()
		return fmt.Errorf("loading already in progress")
	}
	c.loadInProgress = true
	c.Unlock()
	defer func() {
		c.Lock()
		c.loadInProgress = false
		c.Unlock()
	}()

	transactions, err := c.loader.Load(ctx, input)
	if err != nil {
		return err
	}
	c.Lock()
	c.transactions = append(c.transactions, transactions...)
	c.mineCache = make(map[uint64]mineCacheEntry)
	c.Unlock()
	return nil
}

// AddTransaction appends a single transaction.
func (c *Collection) AddTransaction(items ...string) {
	c.Lock()
	c.transactions = append(c.transactions, items)
	c.mineCache = make(map[uint64]mineCacheEntry)
	c.Unlock()
}

// TransactionCount returns the number of loaded transactions.
func (c *Collection) TransactionCount() int {
	c.RLock()
	defer c.RUnlock()
	return len(c.transactions)
}

// Reset drops all transactions and cached responses.
func (c *Collection) Reset() {
	c.Lock()
	c.transactions = nil
	c.mineCache = make(map[uint64]mineCacheEntry)
	c.Unlock()
}

// Mine runs FP-Growth over the collection and returns the requested page of
// patterns sorted by descending support. Identical requests within the cache
// window return the cached response.
func (c *Collection) Mine(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	checksum, err := req.Checksum()
	if err != nil {
		return nil, err
	}
	c.RLock()
	entry, ok := c.mineCache[checksum]
	c.RUnlock()
	if ok && time.Now().Before(entry.expiry) {
		return entry.data, nil
	}

	opts := []Option[string]{}
	if req.Workers > 1 {
		opts = append(opts, WithNumOfWorkers[string](req.Workers))
	}
	if !req.Eliminations {
		opts = append(opts, WithoutEliminations[string]())
	}
	miner, err := NewMiner(req.MinimumSupport, opts...)
	if err != nil {
		return nil, err
	}

	c.RLock()
	transactions := c.transactions
	c.RUnlock()
	result, err := miner.MineContext(ctx, transactions)
	if err != nil {
		return nil, err
	}

	page := paginatePatterns(result.SortedBySupport(), req.Page, req.Size)
	resp := &Response{
		JobID:        utils.NewID().Int64(),
		Collection:   c.ID,
		Transactions: len(transactions),
		Total:        result.PatternCount(),
		Page:         page.page,
		PerPage:      page.perPage,
		TotalPages:   page.totalPages,
		NextPage:     page.next,
		PrevPage:     page.prev,
		Patterns:     page.patterns,
		Latency:      fmt.Sprintf("%s", time.Since(start)),
	}
	if req.Eliminations {
		resp.Eliminations = result.Eliminations()
	}

	c.Lock()
	c.mineCache[checksum] = mineCacheEntry{data: resp, expiry: time.Now().Add(c.cacheExpiry)}
	c.Unlock()
	return resp, nil
}

type patternPage struct {
	patterns   []Pattern[string]
	page       int
	perPage    int
	totalPages int
	next       *int
	prev       *int
}

func paginatePatterns(patterns []Pattern[string], page, perPage int) patternPage {
	total := len(patterns)
	if perPage < 1 {
		perPage = 10
	}
	if total == 0 {
		return patternPage{patterns: []Pattern[string]{}, page: 1, perPage: perPage}
	}
	totalPages := (total + perPage - 1) / perPage
	if page < 1 {
		page = 1
	} else if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * perPage
	end := start + perPage
	if end > total {
		end = total
	}
	var next, prev *int
	if page < totalPages {
		np := page + 1
		next = &np
	}
	if page > 1 {
		pp := page - 1
		prev = &pp
	}
	return patternPage{
		patterns:   patterns[start:end],
		page:       page,
		perPage:    perPage,
		totalPages: totalPages,
		next:       next,
		prev:       prev,
	}
}

// Manager routes named collections.
type Manager struct {
	collections map[string]*Collection
	mutex       sync.Mutex
}

func NewManager() *Manager {
	return &Manager{
		collections: make(map[string]*Collection),
	}
}

func (m *Manager) AddCollection(name string, collection *Collection) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.collections[name] = collection
}

func (m *Manager) GetCollection(name string) (*Collection, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	collection, ok := m.collections[name]
	return collection, ok
}

func (m *Manager) DeleteCollection(name string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if collection, ok := m.collections[name]; ok {
		collection.Close()
		delete(m.collections, name)
	}
}

func (m *Manager) ListCollections() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	names := make([]string, 0, len(m.collections))
	for name := range m.collections {
		names = append(names, name)
	}
	return names
}

func (m *Manager) Build(ctx context.Context, name string, input any) error {
	m.mutex.Lock()
	collection, ok := m.collections[name]
	m.mutex.Unlock()
	if !ok {
		return fmt.Errorf("collection %s not found", name)
	}
	return collection.Build(ctx, input)
}

func (m *Manager) Mine(ctx context.Context, name string, req Request) (*Response, error) {
	m.mutex.Lock()
	collection, ok := m.collections[name]
	m.mutex.Unlock()
	if !ok {
		return nil, fmt.Errorf("collection %s not found", name)
	}
	return collection.Mine(ctx, req)
}

type NewCollectionRequest struct {
	ID string `json:"id"`
}

func prepareMineRequest(r *http.Request) (Request, error) {
	var req Request
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		return req, err
	}
	if len(bodyBytes) > 0 {
		if err := json.Unmarshal(bodyBytes, &req); err != nil {
			return req, fmt.Errorf("error unmarshalling request: %v", err)
		}
	}
	query := r.URL.Query()
	if v := strings.TrimSpace(query.Get("minimum_support")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.MinimumSupport = n
		}
	}
	if v := strings.TrimSpace(query.Get("workers")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.Workers = n
		}
	}
	if v := strings.TrimSpace(query.Get("eliminations")); v != "" {
		req.Eliminations = v == "true" || v == "1"
	}
	if v := strings.TrimSpace(query.Get("s")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.Size = n
		}
	}
	if v := strings.TrimSpace(query.Get("p")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.Page = n
		}
	}
	return req, nil
}

// Handler returns the HTTP surface for the manager.
func (m *Manager) Handler() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/collections/add", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Unsupported method", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, fmt.Sprintf("Error reading body: %v", err), http.StatusBadRequest)
			return
		}
		var req NewCollectionRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, fmt.Sprintf("Error unmarshalling request: %v", err), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.ID) == "" {
			http.Error(w, "collection ID required in request body", http.StatusBadRequest)
			return
		}
		m.AddCollection(req.ID, NewCollection(req.ID))
		w.Write([]byte(fmt.Sprintf("collection %s created successfully", req.ID)))
	})
	mux.HandleFunc("/collections", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Unsupported method", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m.ListCollections())
	})
	mux.HandleFunc("/{collection}/build", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Unsupported method", http.StatusMethodNotAllowed)
			return
		}
		name := r.PathValue("collection")
		if strings.TrimSpace(name) == "" {
			http.Error(w, "collection name required in path", http.StatusBadRequest)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, fmt.Sprintf("Error reading body: %v", err), http.StatusBadRequest)
			return
		}
		var req LoadRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, fmt.Sprintf("Error unmarshalling request: %v", err), http.StatusBadRequest)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()
		if err := m.Build(ctx, name, req); err != nil {
			http.Error(w, fmt.Sprintf("Build error: %v", err), http.StatusInternalServerError)
			return
		}
		w.Write([]byte("collection built successfully"))
	})
	mux.HandleFunc("/{collection}/mine", func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("collection")
		if strings.TrimSpace(name) == "" {
			http.Error(w, "collection name required in path", http.StatusBadRequest)
			return
		}
		req, err := prepareMineRequest(r)
		if err != nil {
			http.Error(w, fmt.Sprintf("Error preparing request: %v", err), http.StatusBadRequest)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()
		resp, err := m.Mine(ctx, name, req)
		if err != nil {
			http.Error(w, fmt.Sprintf("Mine error: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})
	return mux
}

// StartHTTP serves the manager's HTTP surface on addr.
func (m *Manager) StartHTTP(addr string) {
	log.Printf("HTTP server listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, m.Handler()))
}
