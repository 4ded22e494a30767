package buffer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagepool/disk"
)

func newTestGuardDeps(t *testing.T) (*FrameHeader, *LRUKReplacer, *sync.Mutex, *disk.Scheduler) {
	t.Helper()
	frame := NewFrameHeader(0, disk.PageSize)
	replacer := NewLRUKReplacer(4, 2)
	poolLatch := &sync.Mutex{}
	scheduler := disk.NewScheduler(disk.NewMemoryManager())
	t.Cleanup(scheduler.Close)
	return frame, replacer, poolLatch, scheduler
}

func TestReadPageGuard_DropIsIdempotentAndMarksEvictable(t *testing.T) {
	frame, replacer, poolLatch, scheduler := newTestGuardDeps(t)
	frame.IncrPinCount()

	g := NewReadPageGuard(1, frame, replacer, poolLatch, scheduler)
	assert.Equal(t, disk.PageID(1), g.GetPageId())

	g.Drop()
	assert.Equal(t, int32(0), frame.PinCount())
	assert.Equal(t, 1, replacer.Size())

	assert.NotPanics(t, g.Drop, "dropping an already-invalid guard must be a no-op")
}

func TestReadPageGuard_UseAfterDropPanics(t *testing.T) {
	frame, replacer, poolLatch, scheduler := newTestGuardDeps(t)
	frame.IncrPinCount()

	g := NewReadPageGuard(1, frame, replacer, poolLatch, scheduler)
	g.Drop()

	assert.Panics(t, func() { g.GetData() })
}

func TestReadPageGuard_MoveInvalidatesSource(t *testing.T) {
	frame, replacer, poolLatch, scheduler := newTestGuardDeps(t)
	frame.IncrPinCount()

	g := NewReadPageGuard(1, frame, replacer, poolLatch, scheduler)
	moved := g.Move()

	assert.Panics(t, func() { g.GetPageId() })
	assert.Equal(t, disk.PageID(1), moved.GetPageId())
	moved.Drop()
}

// TestWritePageGuard_DropRemarksDirtyAfterFlush checks that a WritePageGuard's
// Drop always re-marks the frame dirty, even immediately after a Flush that
// cleared the bit, so the next reader observes IsDirty() == true.
func TestWritePageGuard_DropRemarksDirtyAfterFlush(t *testing.T) {
	frame, replacer, poolLatch, scheduler := newTestGuardDeps(t)
	frame.IncrPinCount()

	wg := NewWritePageGuard(5, frame, replacer, poolLatch, scheduler)
	buf := wg.GetDataMut()
	buf[0] = 0xAB
	frame.latch.Lock()
	frame.dirty = true
	frame.latch.Unlock()

	wg.Flush()
	assert.False(t, wg.IsDirty(), "flush must clear the dirty bit once the write completes")

	wg.Drop()

	frame.IncrPinCount()
	rg := NewReadPageGuard(5, frame, replacer, poolLatch, scheduler)
	assert.True(t, rg.IsDirty(), "Drop of a write guard must re-mark the frame dirty")
	assert.Equal(t, byte(0xAB), rg.GetData()[0])
	rg.Drop()
}

func TestWritePageGuard_MoveToDropsPreviousHolder(t *testing.T) {
	frameA, replacer, poolLatch, scheduler := newTestGuardDeps(t)
	frameB := NewFrameHeader(1, disk.PageSize)

	frameA.IncrPinCount()
	frameB.IncrPinCount()

	src := NewWritePageGuard(1, frameA, replacer, poolLatch, scheduler)
	dst := NewWritePageGuard(2, frameB, replacer, poolLatch, scheduler)

	src.MoveTo(dst)

	assert.Equal(t, int32(0), frameB.PinCount(), "MoveTo must drop whatever dst previously held")
	assert.Equal(t, disk.PageID(1), dst.GetPageId())

	dst.Drop()
	require.Equal(t, int32(0), frameA.PinCount())
}
