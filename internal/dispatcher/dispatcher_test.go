package dispatcher

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) log(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("%s: %s %v", level, msg, args))
}

func (l *testLogger) Debug(msg string, args ...any) { l.log("DEBUG", msg, args) }
func (l *testLogger) Info(msg string, args ...any)  { l.log("INFO", msg, args) }
func (l *testLogger) Error(msg string, args ...any) { l.log("ERROR", msg, args) }

func (l *testLogger) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.messages...)
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *testLogger) {
	t.Helper()
	logger := &testLogger{}
	d, err := New(logger)
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d, logger
}

func TestDispatcher_SyncHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var got Event
	d.Register("decode", func(e Event) (any, error) {
		got = e
		return "result", nil
	})

	result, err := d.Dispatch(Event{Command: "decode", Args: []string{"a.rec"}})
	require.NoError(t, err)
	assert.Equal(t, "result", result)
	assert.Equal(t, []string{"a.rec"}, got.Args)
	assert.False(t, got.Timestamp.IsZero(), "timestamp is filled in")
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	d, _ := newTestDispatcher(t)

	_, err := d.Dispatch(Event{Command: "nope"})
	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.Contains(t, err.Error(), "nope")
}

func TestDispatcher_BufferedHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var processed atomic.Int32
	var wg sync.WaitGroup
	wg.Add(3)
	d.Register("store", func(e Event) (any, error) {
		processed.Add(1)
		wg.Done()
		return nil, nil
	}, Buffered(100))

	for i := 0; i < 3; i++ {
		result, err := d.Dispatch(Event{Command: "store"})
		require.NoError(t, err)
		assert.Equal(t, Queued, result)
	}
	wg.Wait()
	assert.Equal(t, int32(3), processed.Load())
}

func TestDispatcher_BufferedDropsWhenFull(t *testing.T) {
	d, _ := newTestDispatcher(t)

	block := make(chan struct{})
	started := make(chan struct{}, 1)
	d.Register("full", func(e Event) (any, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
		return nil, nil
	}, Buffered(2))

	_, err := d.Dispatch(Event{Command: "full"})
	require.NoError(t, err)
	<-started // first call is being processed

	_, err = d.Dispatch(Event{Command: "full"})
	require.NoError(t, err)
	_, err = d.Dispatch(Event{Command: "full"})
	require.NoError(t, err)

	_, err = d.Dispatch(Event{Command: "full"})
	assert.ErrorIs(t, err, ErrQueueFull)

	close(block)
}

func TestDispatcher_BufferedBlocking(t *testing.T) {
	d, _ := newTestDispatcher(t)

	block := make(chan struct{})
	started := make(chan struct{}, 1)
	d.Register("blocking", func(e Event) (any, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
		return nil, nil
	}, Buffered(1), Blocking())

	_, _ = d.Dispatch(Event{Command: "blocking"})
	<-started
	_, _ = d.Dispatch(Event{Command: "blocking"})

	done := make(chan struct{})
	go func() {
		_, _ = d.Dispatch(Event{Command: "blocking"})
		close(done)
	}()

	select {
	case <-done:
		t.Error("dispatch should have blocked")
	case <-time.After(50 * time.Millisecond):
	}

	close(block)
	<-done
}

func TestDispatcher_BufferedErrorIsLogged(t *testing.T) {
	logger := &testLogger{}
	d, err := New(logger)
	require.NoError(t, err)

	d.Register("store", func(e Event) (any, error) {
		return nil, errors.New("disk full")
	}, Buffered(4))

	_, err = d.Dispatch(Event{Command: "store"})
	require.NoError(t, err)
	d.Close()

	msgs := logger.snapshot()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "buffered call failed")
	assert.Contains(t, msgs[0], "disk full")
}

func TestDispatcher_LoggedHandler(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register("players", func(e Event) (any, error) {
		return "ok", nil
	}, Logged())

	_, err := d.Dispatch(Event{Command: "players", Args: []string{"1"}})
	require.NoError(t, err)

	msgs := logger.snapshot()
	require.Len(t, msgs, 2)
	assert.True(t, strings.HasPrefix(msgs[0], "DEBUG: handling call"))
	assert.True(t, strings.HasPrefix(msgs[1], "DEBUG: call complete"))
}

func TestDispatcher_LoggedHandlerError(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register("map", func(e Event) (any, error) {
		return nil, errors.New("bad handle")
	}, Logged())

	_, err := d.Dispatch(Event{Command: "map"})
	require.Error(t, err)

	msgs := logger.snapshot()
	require.NotEmpty(t, msgs)
	assert.True(t, strings.HasPrefix(msgs[len(msgs)-1], "ERROR: call failed"))
}

func TestDispatcher_HasHandlerAndCommands(t *testing.T) {
	d, _ := newTestDispatcher(t)

	noop := func(e Event) (any, error) { return nil, nil }
	d.Register("version", noop)
	d.Register("decode", noop)

	assert.True(t, d.HasHandler("decode"))
	assert.False(t, d.HasHandler("release"))
	assert.Equal(t, []string{"decode", "version"}, d.Commands())
}

func TestDispatcher_CombinedOptions(t *testing.T) {
	d, logger := newTestDispatcher(t)

	var wg sync.WaitGroup
	wg.Add(1)
	d.Register("store", func(e Event) (any, error) {
		wg.Done()
		return "done", nil
	}, Buffered(100), Logged())

	result, err := d.Dispatch(Event{Command: "store"})
	require.NoError(t, err)
	assert.Equal(t, Queued, result)
	wg.Wait()

	assert.GreaterOrEqual(t, len(logger.snapshot()), 2)
}

func TestDispatcher_Close(t *testing.T) {
	logger := &testLogger{}
	d, err := New(logger)
	require.NoError(t, err)

	var processed atomic.Int32
	d.Register("store", func(e Event) (any, error) {
		time.Sleep(5 * time.Millisecond)
		processed.Add(1)
		return nil, nil
	}, Buffered(8))

	for i := 0; i < 4; i++ {
		_, err := d.Dispatch(Event{Command: "store"})
		require.NoError(t, err)
	}
	d.Close()
	assert.Equal(t, int32(4), processed.Load(), "close drains the queue")

	_, err = d.Dispatch(Event{Command: "store"})
	assert.ErrorIs(t, err, ErrClosed)
	d.Close()
}
