package buffer

import (
	"sync"

	"pagepool/common"
	"pagepool/disk"
)

// WritePageGuard is a scoped lease granting exclusive access to one frame's
// bytes. Construction, move and drop mirror ReadPageGuard exactly except
// that the rwlatch is taken exclusively and Drop marks the frame dirty
// before releasing it.
type WritePageGuard struct {
	pageID    disk.PageID
	frame     *FrameHeader
	replacer  *LRUKReplacer
	poolLatch *sync.Mutex
	scheduler *disk.Scheduler
	valid     bool
}

// NewWritePageGuard is privileged: call it only from the buffer pool
// manager, after it has pinned frame and placed pageID's content into it.
func NewWritePageGuard(pageID disk.PageID, frame *FrameHeader, replacer *LRUKReplacer, poolLatch *sync.Mutex, scheduler *disk.Scheduler) *WritePageGuard {
	frame.rwlatch.Lock()
	if err := replacer.RecordAccess(frame.frameID); err != nil {
		panic(err)
	}
	return &WritePageGuard{
		pageID:    pageID,
		frame:     frame,
		replacer:  replacer,
		poolLatch: poolLatch,
		scheduler: scheduler,
		valid:     true,
	}
}

func (g *WritePageGuard) GetPageId() disk.PageID {
	common.Assert(g.valid, "tried to use an invalid write guard")
	return g.pageID
}

func (g *WritePageGuard) GetData() []byte {
	common.Assert(g.valid, "tried to use an invalid write guard")
	return g.frame.Data()
}

// GetDataMut returns the frame's payload for mutation. Only WritePageGuard
// exposes this.
func (g *WritePageGuard) GetDataMut() []byte {
	common.Assert(g.valid, "tried to use an invalid write guard")
	return g.frame.DataMut()
}

func (g *WritePageGuard) IsDirty() bool {
	common.Assert(g.valid, "tried to use an invalid write guard")
	return g.frame.IsDirty()
}

func (g *WritePageGuard) Flush() {
	common.Assert(g.valid, "tried to use an invalid write guard")
	flush(g.frame, g.pageID, g.scheduler)
}

// Drop releases this guard's hold on the frame: mark dirty, release the
// exclusive latch, then decrement the pin count, re-marking the frame
// evictable on the 1->0 edge. Idempotent.
//
// Marking dirty happens before the latch is released so every successful
// mutation is observable to the next holder, and it happens unconditionally,
// even if the guard's caller never actually wrote anything: a
// WritePageGuard's Drop always re-marks the frame dirty, regardless of
// whether Flush already ran.
func (g *WritePageGuard) Drop() {
	if !g.valid {
		return
	}
	g.valid = false

	g.frame.latch.Lock()
	g.frame.dirty = true
	g.frame.latch.Unlock()

	g.frame.rwlatch.Unlock()

	if g.frame.fetchSubPin() == 1 {
		g.poolLatch.Lock()
		if g.frame.PinCount() == 0 {
			g.replacer.SetEvictable(g.frame.frameID, true)
		}
		g.poolLatch.Unlock()
	}
}

func (g *WritePageGuard) Move() WritePageGuard {
	moved := *g
	g.valid = false
	return moved
}

func (g *WritePageGuard) MoveTo(dst *WritePageGuard) {
	if g == dst {
		return
	}
	dst.Drop()
	*dst = *g
	g.valid = false
}
