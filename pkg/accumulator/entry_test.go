package accumulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/streambuf/pkg/bufpool"
)

func newTestEntry(t *testing.T) (*entry, *bufpool.Pool) {
	t.Helper()
	pool := bufpool.NewPool(&bufpool.Config{Size: 4, InitialCapacity: 16}, nil)
	return newEntry(1, 1, pool, time.Unix(100, 0), time.Minute), pool
}

func TestEntrySlot(t *testing.T) {
	t.Run("BorrowsLazily", func(t *testing.T) {
		e, pool := newTestEntry(t)

		assert.Nil(t, e.peek(ChannelThinking))
		assert.Equal(t, 4, pool.Idle())

		buf := e.slot(ChannelThinking)
		require.NotNil(t, buf)
		assert.Equal(t, 3, pool.Idle())
		assert.Same(t, buf, e.slot(ChannelThinking), "second access reuses handle")
		assert.Nil(t, e.peek(ChannelReply))
	})

	t.Run("ReacquiresAfterReclaim", func(t *testing.T) {
		e, pool := newTestEntry(t)

		e.slot(ChannelReply).WriteString("lost")
		e.reclaim()
		assert.Equal(t, "", e.text(ChannelReply))
		assert.Equal(t, 0, e.length(ChannelReply))

		e.slot(ChannelReply).WriteString("fresh")
		assert.Equal(t, "fresh", e.text(ChannelReply))
		assert.Equal(t, 2, pool.Idle(), "reclaimed buffer is not returned")
	})

	t.Run("PanicsOnInvalidChannel", func(t *testing.T) {
		e, _ := newTestEntry(t)
		assert.Panics(t, func() { e.slot(ChannelUnknown) })
		assert.Panics(t, func() { e.peek(Channel(7)) })
	})
}

func TestEntryRelease(t *testing.T) {
	t.Run("RecyclesBothSlots", func(t *testing.T) {
		e, pool := newTestEntry(t)
		e.slot(ChannelThinking).WriteString("a")
		e.slot(ChannelReply).WriteString("b")
		assert.Equal(t, 2, pool.Idle())

		e.release()

		assert.True(t, e.isFinalized())
		assert.Equal(t, 4, pool.Idle())
		assert.Nil(t, e.peek(ChannelThinking))
		assert.Nil(t, e.peek(ChannelReply))
	})

	t.Run("SkipsEmptyHandles", func(t *testing.T) {
		e, pool := newTestEntry(t)
		e.slot(ChannelReply)

		e.release()

		assert.Equal(t, 4, pool.Idle())
		assert.Equal(t, uint64(0), pool.Stats().Discarded)
	})

	t.Run("PanicsOnDoubleRelease", func(t *testing.T) {
		e, _ := newTestEntry(t)
		e.release()
		assert.Panics(t, e.release)
	})
}

func TestEntryTouch(t *testing.T) {
	e, _ := newTestEntry(t)
	start := e.lastActiveAt()

	e.touch(start.Add(time.Second))
	assert.Equal(t, start.Add(time.Second), e.lastActiveAt())

	e.touch(start)
	assert.Equal(t, start.Add(time.Second), e.lastActiveAt(), "lastActive never moves backwards")
}

func TestEntryExpired(t *testing.T) {
	e, _ := newTestEntry(t)
	base := e.lastActiveAt()

	assert.False(t, e.expired(base.Add(time.Minute)), "exactly at timeout is not expired")
	assert.True(t, e.expired(base.Add(time.Minute+time.Nanosecond)))
}
