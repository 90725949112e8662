package pool

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/joshuapare/recvkit/internal/overflow"
	"github.com/joshuapare/recvkit/recv"
)

// smallClassMax is the largest capacity served by sync.Pool tiers. Classes
// above it hold buffers big enough to be worth handing back to the OS, so
// they use explicitly managed slabs instead.
const smallClassMax = 64 << 10

var (
	// ErrInvalidMaxFreeLarge indicates a negative slab retention limit.
	ErrInvalidMaxFreeLarge = errors.New("pool: max free large must not be negative")

	// ErrOversizeClass indicates a size above the top capacity class.
	ErrOversizeClass = errors.New("pool: size above the top capacity class")

	// ErrPreallocateOverflow indicates a pre-warm whose total byte count does
	// not fit in an int.
	ErrPreallocateOverflow = errors.New("pool: preallocation size overflows")
)

// Config tunes a Pool.
type Config struct {
	// MaxFreeLarge is how many idle slabs each large class may hold before a
	// return releases half of them. Zero keeps every slab.
	MaxFreeLarge int

	// Logger receives abnormal events. nil discards.
	Logger *slog.Logger
}

// DefaultConfig returns the settings used by New.
func DefaultConfig() Config {
	return Config{MaxFreeLarge: 4}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MaxFreeLarge < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxFreeLarge, c.MaxFreeLarge)
	}
	return nil
}

// Stats is a point-in-time snapshot of pool activity.
type Stats struct {
	Gets           int64 // buffers handed out
	Puts           int64 // buffers accepted back
	Misses         int64 // gets that allocated because no idle buffer fit
	Drops          int64 // returned buffers that matched no class
	Oversize       int64 // requests above the top class, allocated exactly
	FreeLargeBytes int64 // bytes idle in the large free lists
	ReleasedBytes  int64 // large bytes handed back to the OS
}

// Pool hands out buffers sized to the capacity classes of package recv and
// takes them back for reuse. Safe for concurrent use.
type Pool struct {
	logger *slog.Logger

	classes []int        // ascending capacity classes
	small   []*sizedPool // parallel to classes, nil above smallClassMax

	largeMu      sync.Mutex
	largeFree    [][][]byte // parallel to classes, only large entries used
	maxFreeLarge int

	gets           atomic.Int64
	puts           atomic.Int64
	misses         atomic.Int64
	drops          atomic.Int64
	oversize       atomic.Int64
	freeLargeBytes atomic.Int64
	releasedBytes  atomic.Int64
}

// New returns a pool with default settings.
func New() *Pool {
	p, err := NewWithConfig(DefaultConfig())
	if err != nil {
		// The default configuration validates.
		panic(err)
	}
	return p
}

// NewWithConfig returns a pool tuned by cfg.
func NewWithConfig(cfg Config) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	classes := recv.TableSizes()
	p := &Pool{
		logger:       logger,
		classes:      classes,
		small:        make([]*sizedPool, len(classes)),
		largeFree:    make([][][]byte, len(classes)),
		maxFreeLarge: cfg.MaxFreeLarge,
	}

	for i, size := range classes {
		if size <= smallClassMax {
			p.small[i] = newSizedPool(size, &p.misses)
		}
	}

	return p, nil
}

// classIndex returns the position of the class serving size and whether any
// class can (requests above the top class cannot).
func (p *Pool) classIndex(size int) (int, bool) {
	idx := sort.SearchInts(p.classes, size)
	if idx == len(p.classes) {
		return 0, false
	}
	return idx, true
}

// Get returns a buffer with len(b) == size and the smallest class capacity
// that holds size underneath. Requests above the top class are allocated
// exactly and bypass the pool. Sizes <= 0 return nil. Get panics when a
// large-class OS reservation fails.
func (p *Pool) Get(size int) []byte {
	if size <= 0 {
		return nil
	}

	p.gets.Add(1)

	idx, ok := p.classIndex(size)
	if !ok {
		p.oversize.Add(1)
		p.misses.Add(1)
		return make([]byte, size)
	}

	if sp := p.small[idx]; sp != nil {
		return sp.get(size)
	}
	return p.getLarge(idx, size)
}

// getLarge pops an idle slab for class idx or reserves a new one.
func (p *Pool) getLarge(idx, size int) []byte {
	class := p.classes[idx]

	p.largeMu.Lock()
	if free := p.largeFree[idx]; len(free) > 0 {
		b := free[len(free)-1]
		p.largeFree[idx] = free[:len(free)-1]
		p.largeMu.Unlock()

		p.freeLargeBytes.Add(int64(-class))
		return b[:size]
	}
	p.largeMu.Unlock()

	p.misses.Add(1)
	b, err := slabAlloc(class)
	if err != nil {
		// A heap fallback must not enter the free lists: releasing it later
		// would unmap live heap pages.
		panic(fmt.Errorf("pool: cannot reserve %d byte slab: %w", class, err))
	}
	return b[:size]
}

// Put returns a buffer to its class. Buffers whose capacity matches no class
// are dropped for the garbage collector, so handing in a foreign slice is
// harmless. nil is a no-op.
func (p *Pool) Put(b []byte) {
	if cap(b) == 0 {
		return
	}

	b = b[:cap(b)]
	idx, ok := p.classIndex(len(b))
	if !ok || p.classes[idx] != len(b) {
		p.drops.Add(1)
		return
	}

	p.puts.Add(1)

	if sp := p.small[idx]; sp != nil {
		sp.put(b)
		return
	}
	p.putLarge(idx, b)
}

// putLarge parks the slab and releases surplus beyond the retention limit.
func (p *Pool) putLarge(idx int, b []byte) {
	class := p.classes[idx]

	p.largeMu.Lock()
	p.largeFree[idx] = append(p.largeFree[idx], b)
	kept, release := trimFree(p.largeFree[idx], p.maxFreeLarge)
	p.largeFree[idx] = kept
	p.largeMu.Unlock()

	p.freeLargeBytes.Add(int64(class))
	if len(release) == 0 {
		return
	}

	total := int64(class) * int64(len(release))
	p.freeLargeBytes.Add(-total)
	p.releasedBytes.Add(total)

	// Release outside the lock so other returns keep moving.
	for _, s := range release {
		if err := slabRelease(s); err != nil {
			p.logger.Error("failed to release slab", "class", class, "error", err)
		}
	}
}

// Preallocate parks idle buffers for the class serving size until at least
// count are free. Sizes above the top class are rejected.
func (p *Pool) Preallocate(size, count int) error {
	if count <= 0 {
		return nil
	}

	idx, ok := p.classIndex(size)
	if !ok {
		return fmt.Errorf("%w: %d", ErrOversizeClass, size)
	}
	class := p.classes[idx]

	if _, ok := overflow.Mul(class, count); !ok {
		return fmt.Errorf("%w: %d buffers of %d bytes", ErrPreallocateOverflow, count, class)
	}

	if sp := p.small[idx]; sp != nil {
		for range count {
			sp.put(make([]byte, class))
		}
		return nil
	}

	p.largeMu.Lock()
	missing := count - len(p.largeFree[idx])
	p.largeMu.Unlock()

	for ; missing > 0; missing-- {
		b, err := slabAlloc(class)
		if err != nil {
			return fmt.Errorf("pool: preallocate class %d: %w", class, err)
		}

		p.largeMu.Lock()
		p.largeFree[idx] = append(p.largeFree[idx], b)
		p.largeMu.Unlock()
		p.freeLargeBytes.Add(int64(class))
	}
	return nil
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Gets:           p.gets.Load(),
		Puts:           p.puts.Load(),
		Misses:         p.misses.Load(),
		Drops:          p.drops.Load(),
		Oversize:       p.oversize.Load(),
		FreeLargeBytes: p.freeLargeBytes.Load(),
		ReleasedBytes:  p.releasedBytes.Load(),
	}
}

// trimFree trims a free list that grew past limit, keeping the newer half.
// Releasing half at a time keeps churn at the limit from shedding one slab
// per return.
func trimFree(list [][]byte, limit int) (kept, release [][]byte) {
	if limit > 0 && len(list) > limit {
		n := len(list) / 2
		return list[n:], list[:n]
	}
	return list, nil
}

// sizedPool recycles buffers of one class capacity through a sync.Pool.
type sizedPool struct {
	size int
	pool sync.Pool
}

func newSizedPool(size int, misses *atomic.Int64) *sizedPool {
	sp := &sizedPool{size: size}
	sp.pool.New = func() any {
		misses.Add(1)
		b := make([]byte, size)
		return &b
	}
	return sp
}

// get returns a buffer sliced to length with the full class capacity behind it.
func (sp *sizedPool) get(length int) []byte {
	b := sp.pool.Get().(*[]byte)
	return (*b)[:length]
}

// put parks a full-capacity buffer for reuse.
func (sp *sizedPool) put(b []byte) {
	sp.pool.Put(&b)
}
