package disk

import (
	"fmt"
	"sync"
)

var _ Manager = &MemoryManager{}

// MemoryManager is an in-memory Manager for tests, in the spirit of the
// pack's various MemPager types (e.g. btree.MemPager): a plain map keeps
// page bytes instead of a file. It is safe for concurrent use even though
// the scheduler never calls it from more than one goroutine, matching
// MemPager's own defensive lock.
type MemoryManager struct {
	mu    sync.Mutex
	pages map[PageID][]byte
}

func NewMemoryManager() *MemoryManager {
	return &MemoryManager{pages: make(map[PageID][]byte)}
}

func (m *MemoryManager) ReadPage(pageID PageID, dst []byte) error {
	if len(dst) != PageSize {
		panic(fmt.Sprintf("disk: read buffer must be %d bytes, got %d", PageSize, len(dst)))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.pages[pageID]
	if !ok {
		// an unwritten page reads as zeroes, same as a sparse file would.
		for i := range dst {
			dst[i] = 0
		}
		return nil
	}
	copy(dst, data)
	return nil
}

func (m *MemoryManager) WritePage(pageID PageID, data []byte) error {
	if len(data) != PageSize {
		panic(fmt.Sprintf("disk: write buffer must be %d bytes, got %d", PageSize, len(data)))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, PageSize)
	copy(buf, data)
	m.pages[pageID] = buf
	return nil
}
