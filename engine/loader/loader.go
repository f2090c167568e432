package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-tiles/engine/tileio"

	"github.com/Carmen-Shannon/automation/tools/worker"
	cache "github.com/patrickmn/go-cache"
)

// LoaderBackendType identifies the tile content format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/b3dm tile content backend.
	BackendTypeGLTF LoaderBackendType = iota
)

const (
	DefaultMaxActive = 10
	DefaultCacheTTL  = 60 * time.Second
)

var (
	ErrNoFetch = errors.New("request has no fetch function")
	ErrClosed  = errors.New("loader closed")
)

// FetchFunc retrieves the encoded content of one tile. It runs on a worker goroutine and must
// honour ctx cancellation.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Request asks for one tile's content to be fetched and decoded.
type Request struct {
	// Key identifies the content; concurrent requests for the same key are merged and the
	// fetched bytes are cached under it.
	Key string
	// Fetch retrieves the bytes when they are not cached.
	Fetch FetchFunc
	// Tag is returned unchanged in the Result.
	Tag any
	// OnStart, if set, is called when the request leaves the queue and starts loading. It runs on
	// the goroutine that called Request or Drain.
	OnStart func()
}

// Result is the outcome of a Request.
type Result struct {
	Key     string
	Tag     any
	Content *tileio.Content
	Err     error
	// Cached is true when the bytes came from the content cache rather than Fetch.
	Cached bool
}

// Stats summarises loader activity.
type Stats struct {
	Active int
	Queued int
	Cached int
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc

	backend       loaderBackend
	decodeOptions []tileio.ReaderBuilderOption

	pool       worker.DynamicWorkerPool
	workers    int
	nextTaskID int

	maxActive    int
	cacheTTL     time.Duration
	contentCache *cache.Cache

	results chan Result
	queue   []Request
	pending map[string]struct{}
	active  int
	closed  bool

	logger *slog.Logger
}

// Loader fetches and decodes tile content off the render thread. Completed results are
// collected by a single consumer through Drain, once per frame.
type Loader interface {
	// Request schedules a load. At most MaxActive requests run at once; the rest wait in FIFO
	// order and are started by Drain as earlier requests complete.
	//
	// Parameters:
	//   - req: the request
	//
	// Returns:
	//   - bool: false if a request with the same key is already pending or the loader is closed
	Request(req Request) bool

	// Drain returns every result completed since the last call without blocking, and starts
	// queued requests into the freed slots. Only one goroutine may call Drain.
	//
	// Returns:
	//   - []Result: the completed results, or nil once the loader is closed
	Drain() []Result

	// Active returns the number of requests currently loading.
	Active() int

	// Stats returns the current request and cache counts.
	Stats() Stats

	// Close cancels in-flight fetches and drops queued requests and undelivered results.
	Close()
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		ctx:       context.Background(),
		maxActive: DefaultMaxActive,
		cacheTTL:  DefaultCacheTTL,
		pending:   make(map[string]struct{}),
		logger:    slog.Default().With("component", "loader"),
	}

	for _, option := range options {
		option(l)
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend(l.decodeOptions...)
	}

	if l.workers <= 0 {
		l.workers = l.maxActive
	}
	l.ctx, l.cancel = context.WithCancel(l.ctx)
	// Every active request delivers exactly one result before its slot is freed, so a buffer of
	// maxActive never blocks a worker.
	l.results = make(chan Result, l.maxActive)
	l.contentCache = cache.New(l.cacheTTL, 2*l.cacheTTL)
	l.pool = worker.NewDynamicWorkerPool(l.workers, 256, 1*time.Second)
	return l
}

func (l *loader) Request(req Request) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	if _, dup := l.pending[req.Key]; dup {
		l.mu.Unlock()
		return false
	}
	l.pending[req.Key] = struct{}{}

	start := l.active < l.maxActive
	if start {
		l.active++
	} else {
		l.queue = append(l.queue, req)
	}
	l.mu.Unlock()

	if start {
		l.dispatch(req)
	}
	return true
}

func (l *loader) Drain() []Result {
	var out []Result
	for done := false; !done; {
		select {
		case r := <-l.results:
			out = append(out, r)
		default:
			done = true
		}
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	for _, r := range out {
		delete(l.pending, r.Key)
		l.active--
	}
	var toStart []Request
	for l.active < l.maxActive && len(l.queue) > 0 {
		toStart = append(toStart, l.queue[0])
		l.queue = l.queue[1:]
		l.active++
	}
	l.mu.Unlock()

	for _, req := range toStart {
		l.dispatch(req)
	}
	return out
}

func (l *loader) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

func (l *loader) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{
		Active: l.active,
		Queued: len(l.queue),
		Cached: l.contentCache.ItemCount(),
	}
}

func (l *loader) Close() {
	l.mu.Lock()
	l.closed = true
	l.queue = nil
	l.mu.Unlock()
	l.cancel()
}

// dispatch hands a request to the worker pool.
func (l *loader) dispatch(req Request) {
	if req.OnStart != nil {
		req.OnStart()
	}

	l.mu.Lock()
	id := l.nextTaskID
	l.nextTaskID++
	l.mu.Unlock()

	l.pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			l.results <- l.load(req)
			return nil, nil
		},
	})
}

// load runs on a worker goroutine.
func (l *loader) load(req Request) Result {
	res := Result{Key: req.Key, Tag: req.Tag}

	data, cached := l.cachedContent(req.Key)
	if !cached {
		if req.Fetch == nil {
			res.Err = fmt.Errorf("%w: %s", ErrNoFetch, req.Key)
			return res
		}
		if err := l.ctx.Err(); err != nil {
			res.Err = fmt.Errorf("%w: %w", ErrClosed, err)
			return res
		}
		fetched, err := req.Fetch(l.ctx)
		if err != nil {
			res.Err = fmt.Errorf("fetching %s: %w", req.Key, err)
			return res
		}
		data = fetched
		l.contentCache.Set(req.Key, data, cache.DefaultExpiration)
	}
	res.Cached = cached

	content, err := l.backend.Decode(data)
	if err != nil {
		res.Err = fmt.Errorf("decoding %s: %w", req.Key, err)
		l.logger.Warn("tile content failed to decode", "key", req.Key, "error", err)
		return res
	}
	res.Content = content
	return res
}

func (l *loader) cachedContent(key string) ([]byte, bool) {
	obj, found := l.contentCache.Get(key)
	if !found {
		return nil, false
	}
	data, ok := obj.([]byte)
	return data, ok
}
