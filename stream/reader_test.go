package stream

import (
	"bytes"
	"errors"
	"io"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/recvkit/internal/testutil"
	"github.com/joshuapare/recvkit/recv"
)

// trackingPool counts buffer traffic without recycling anything.
type trackingPool struct {
	gets atomic.Int64
	puts atomic.Int64
}

func (p *trackingPool) Get(size int) []byte {
	p.gets.Add(1)
	return make([]byte, size)
}

func (p *trackingPool) Put(b []byte) {
	p.puts.Add(1)
}

// drain pulls from r until a non-nil error and returns the concatenated
// payload and that error.
func drain(t *testing.T, r *Reader) ([]byte, error) {
	t.Helper()

	var out bytes.Buffer
	for {
		b, err := r.Next()
		out.Write(b)
		if err != nil {
			return out.Bytes(), err
		}
	}
}

// Test_Reader_DeliversAllBytes streams a chunked payload through default
// options and checks nothing is lost or reordered.
func Test_Reader_DeliversAllBytes(t *testing.T) {
	src := testutil.NewChunkedReader(8192, 512)
	r, err := NewReader(src, Options{})
	require.NoError(t, err)

	got, err := drain(t, r)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, testutil.Pattern(8192), got)

	stats := r.Stats()
	assert.Equal(t, int64(8192), stats.BytesRead)
	assert.Equal(t, int64(17), stats.Reads, "16 data reads and the EOF read")
}

// Test_Reader_EOFAfterData checks that a read returning bytes alongside EOF
// delivers the bytes first and the error on the following call.
func Test_Reader_EOFAfterData(t *testing.T) {
	src := testutil.NewScriptedReader(testutil.Step{N: 5, Err: io.EOF})
	r, err := NewReader(src, Options{})
	require.NoError(t, err)

	b, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, testutil.Pattern(5), b)

	b, err = r.Next()
	assert.Nil(t, b)
	assert.ErrorIs(t, err, io.EOF)
}

// Test_Reader_StickyError checks that a source failure is terminal and the
// source is never touched again.
func Test_Reader_StickyError(t *testing.T) {
	failure := errors.New("connection reset")
	src := testutil.NewScriptedReader(
		testutil.Step{N: 3},
		testutil.Step{Err: failure},
	)
	r, err := NewReader(src, Options{})
	require.NoError(t, err)

	_, err = r.Next()
	require.NoError(t, err)

	_, err = r.Next()
	assert.ErrorIs(t, err, failure)
	reads := r.Stats().Reads

	_, err = r.Next()
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, reads, r.Stats().Reads, "sticky error must not issue reads")
}

// Test_Reader_GrowthVisibleMidCycle walks one growth and one shrink through
// the stream surface: a filled buffer raises the guess before the cycle
// ends, and an idle cycle after an armed decrease lowers it.
func Test_Reader_GrowthVisibleMidCycle(t *testing.T) {
	src := testutil.NewScriptedReader(
		testutil.Step{N: 1024},
		testutil.Step{N: 1024},
	)
	r, err := NewReader(src, Options{})
	require.NoError(t, err)

	b, err := r.Next()
	require.NoError(t, err)
	assert.Len(t, b, 1024)
	assert.Equal(t, 16384, r.Stats().Guess, "filled buffer grows the guess immediately")
	assert.Equal(t, int64(0), r.Stats().Cycles, "cycle still open after a filled read")

	b, err = r.Next()
	require.NoError(t, err)
	assert.Len(t, b, 1024, "second read delivers the scripted bytes into the larger buffer")
	assert.Equal(t, int64(1), r.Stats().Cycles, "unfilled read ends the cycle")
	assert.Equal(t, 16384, r.Stats().Guess, "first quiet cycle only arms the decrease")

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, int64(2), r.Stats().Cycles)
	assert.Equal(t, 8192, r.Stats().Guess, "second quiet cycle lowers the guess")
}

// Test_Reader_FixedAllocatorAndReadLimit runs a constant-size handle with a
// two-read cycle cap and no early exit on unfilled buffers.
func Test_Reader_FixedAllocatorAndReadLimit(t *testing.T) {
	alloc, err := recv.NewFixedAllocator(512)
	require.NoError(t, err)

	src := testutil.NewChunkedReader(2048, 512)
	r, err := NewReader(src, Options{
		Allocator:           alloc,
		MaxMessagesPerRead:  2,
		IgnoreMaybeMoreData: true,
	})
	require.NoError(t, err)

	got, err := drain(t, r)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, testutil.Pattern(2048), got)

	stats := r.Stats()
	assert.Equal(t, int64(5), stats.Reads)
	assert.Equal(t, int64(3), stats.Cycles, "two reads per cycle, then the EOF cycle")
	assert.Equal(t, 512, stats.Guess, "fixed handle never moves")
}

// Test_Reader_QuietStreamShrinksToFit feeds steady 100 byte reads and checks
// the guess settles on the smallest capacity whose shrink threshold sits
// below the traffic.
func Test_Reader_QuietStreamShrinksToFit(t *testing.T) {
	steps := make([]testutil.Step, 60)
	for i := range steps {
		steps[i] = testutil.Step{N: 100}
	}

	r, err := NewReader(testutil.NewScriptedReader(steps...), Options{})
	require.NoError(t, err)

	for range steps {
		b, err := r.Next()
		require.NoError(t, err)
		require.Len(t, b, 100)
	}

	assert.Equal(t, 128, r.Stats().Guess)
	assert.Equal(t, int64(6000), r.Stats().BytesRead)
}

// Test_Reader_EmptyReadsNoProgress checks the retry cap on sources that
// return (0, nil) forever.
func Test_Reader_EmptyReadsNoProgress(t *testing.T) {
	steps := make([]testutil.Step, 150)
	r, err := NewReader(testutil.NewScriptedReader(steps...), Options{})
	require.NoError(t, err)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.ErrNoProgress)
	assert.Equal(t, int64(100), r.Stats().Reads)
	assert.Equal(t, 64, r.Stats().Guess, "idle cycles walk the guess to the floor")

	_, err = r.Next()
	assert.ErrorIs(t, err, io.ErrNoProgress, "no-progress is sticky")
	assert.Equal(t, int64(100), r.Stats().Reads)
}

// Test_Reader_BufferLifecycle checks every buffer taken from the pool goes
// back exactly once.
func Test_Reader_BufferLifecycle(t *testing.T) {
	tp := &trackingPool{}
	src := testutil.NewChunkedReader(3000, 1000)
	r, err := NewReader(src, Options{Pool: tp})
	require.NoError(t, err)

	_, err = drain(t, r)
	assert.ErrorIs(t, err, io.EOF)
	require.NoError(t, r.Close())

	assert.Equal(t, int64(4), tp.gets.Load())
	assert.Equal(t, tp.gets.Load(), tp.puts.Load(), "all buffers returned")
}

// Test_Reader_CloseReclaimsInFlight checks Close returns the lent buffer and
// shuts the reader down.
func Test_Reader_CloseReclaimsInFlight(t *testing.T) {
	tp := &trackingPool{}
	src := testutil.NewChunkedReader(5000, 1000)
	r, err := NewReader(src, Options{Pool: tp})
	require.NoError(t, err)

	_, err = r.Next()
	require.NoError(t, err)

	require.NoError(t, r.Close())
	assert.Equal(t, int64(1), tp.gets.Load())
	assert.Equal(t, int64(1), tp.puts.Load())

	_, err = r.Next()
	assert.ErrorIs(t, err, ErrClosed)
	require.NoError(t, r.Close(), "close is idempotent")
}

// Test_NewReader_Validation covers constructor rejections.
func Test_NewReader_Validation(t *testing.T) {
	_, err := NewReader(nil, Options{})
	assert.ErrorIs(t, err, ErrNilSource)

	_, err = NewReader(bytes.NewReader(nil), Options{MaxMessagesPerRead: -1})
	assert.ErrorIs(t, err, recv.ErrInvalidMaxMessages)
}

// Test_Reader_ZeroValueOptions checks the shared defaults end to end.
func Test_Reader_ZeroValueOptions(t *testing.T) {
	payload := testutil.Pattern(2000)
	r, err := NewReader(bytes.NewReader(payload), Options{})
	require.NoError(t, err)

	got, err := drain(t, r)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, payload, got)
}

func BenchmarkReaderNext(b *testing.B) {
	payload := make([]byte, 1<<20)
	r, err := NewReader(bytes.NewReader(payload), Options{})
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()

	var total int64
	for range b.N {
		buf, err := r.Next()
		if err != nil {
			b.StopTimer()
			r, _ = NewReader(bytes.NewReader(payload), Options{})
			b.StartTimer()
			continue
		}
		total += int64(len(buf))
	}
	benchTotal = total
}

var benchTotal int64
