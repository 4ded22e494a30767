package buffer

import (
	"sync"

	"pagepool/common"
	"pagepool/disk"
)

// ReadPageGuard is a scoped lease granting shared access to one frame's
// bytes. It is the sole supported means of reading a frame; only the buffer
// pool manager may construct one, and only after it has pinned frame and
// placed pageID's content into it.
type ReadPageGuard struct {
	pageID    disk.PageID
	frame     *FrameHeader
	replacer  *LRUKReplacer
	poolLatch *sync.Mutex
	scheduler *disk.Scheduler
	valid     bool
}

// NewReadPageGuard is privileged: call it only from the buffer pool manager.
// It takes the frame's rwlatch in shared mode, which may block, then records
// the access with the replacer before returning a valid guard.
func NewReadPageGuard(pageID disk.PageID, frame *FrameHeader, replacer *LRUKReplacer, poolLatch *sync.Mutex, scheduler *disk.Scheduler) *ReadPageGuard {
	frame.rwlatch.RLock()
	if err := replacer.RecordAccess(frame.frameID); err != nil {
		panic(err)
	}
	return &ReadPageGuard{
		pageID:    pageID,
		frame:     frame,
		replacer:  replacer,
		poolLatch: poolLatch,
		scheduler: scheduler,
		valid:     true,
	}
}

// GetPageId returns the id of the page this guard protects.
func (g *ReadPageGuard) GetPageId() disk.PageID {
	common.Assert(g.valid, "tried to use an invalid read guard")
	return g.pageID
}

// GetData returns the frame's payload. Callers must not write through it;
// see FrameHeader.Data's doc comment.
func (g *ReadPageGuard) GetData() []byte {
	common.Assert(g.valid, "tried to use an invalid read guard")
	return g.frame.Data()
}

func (g *ReadPageGuard) IsDirty() bool {
	common.Assert(g.valid, "tried to use an invalid read guard")
	return g.frame.IsDirty()
}

// Flush writes the frame to disk if it is dirty, blocking until the write
// completes. The dirty bit is cleared before the write is acknowledged, a
// deliberate data-loss-on-failure tradeoff.
func (g *ReadPageGuard) Flush() {
	common.Assert(g.valid, "tried to use an invalid read guard")
	flush(g.frame, g.pageID, g.scheduler)
}

// Drop releases this guard's hold on the frame. It is idempotent: calling it
// on an already-invalid guard is a no-op. The destructor-equivalent in Go is
// `defer guard.Drop()`.
func (g *ReadPageGuard) Drop() {
	if !g.valid {
		return
	}
	g.valid = false
	g.frame.rwlatch.RUnlock()
	if g.frame.fetchSubPin() == 1 {
		g.poolLatch.Lock()
		if g.frame.PinCount() == 0 {
			g.replacer.SetEvictable(g.frame.frameID, true)
		}
		g.poolLatch.Unlock()
	}
}

// Move transfers ownership of g into a new guard value, invalidating g. A
// self-move (move into g itself) is impossible by construction since Move
// returns a new value; MoveTo is the in-place equivalent for containers that
// already hold a ReadPageGuard they want to overwrite.
func (g *ReadPageGuard) Move() ReadPageGuard {
	moved := *g
	g.valid = false
	return moved
}

// MoveTo drops whatever dst currently holds, then transfers g's state into
// dst and invalidates g. Moving into itself is a no-op.
func (g *ReadPageGuard) MoveTo(dst *ReadPageGuard) {
	if g == dst {
		return
	}
	dst.Drop()
	*dst = *g
	g.valid = false
}
