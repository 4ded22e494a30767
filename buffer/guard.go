package buffer

import "pagepool/disk"

// flush implements the Flush contract shared by ReadPageGuard and
// WritePageGuard: under the frame's short mutex, check dirty; if clean,
// return. If dirty, clear the bit under the mutex, release it, then submit a
// write request for the frame's own buffer and block on its completion.
//
// Clearing dirty before the write is acknowledged is a deliberate choice: a
// failed completion leaves the bit cleared, which can silently lose a dirty
// page. A production system would restore the bit on failure; this one does
// not.
func flush(frame *FrameHeader, pageID disk.PageID, scheduler *disk.Scheduler) {
	frame.latch.Lock()
	if !frame.dirty {
		frame.latch.Unlock()
		return
	}
	frame.dirty = false
	frame.latch.Unlock()

	promise, future := scheduler.CreatePromise()
	scheduler.Schedule(&disk.DiskRequest{
		IsWrite:  true,
		PageID:   pageID,
		Buffer:   frame.data,
		Callback: promise,
	})
	future.Wait()
}
