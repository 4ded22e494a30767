package disk

import (
	"fmt"
	"io"
	"os"
)

var _ Manager = &FileManager{}

// FileManager is the reference Manager: a single fixed-page file addressed
// by byte offset. Only the scheduler's worker goroutine calls it, so it does
// not need its own locking; serialisation is the scheduler's job.
type FileManager struct {
	file *os.File
}

// NewFileManager opens (creating if necessary) the file at path as the
// backing store for fixed PageSize-byte pages.
func NewFileManager(path string) (*FileManager, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileManager{file: f}, nil
}

func (m *FileManager) ReadPage(pageID PageID, dst []byte) error {
	if len(dst) != PageSize {
		panic(fmt.Sprintf("disk: read buffer must be %d bytes, got %d", PageSize, len(dst)))
	}
	if _, err := m.file.Seek(int64(PageSize)*int64(pageID), io.SeekStart); err != nil {
		return err
	}
	n, err := io.ReadFull(m.file, dst)
	if err != nil {
		return err
	}
	if n != PageSize {
		panic(fmt.Sprintf("disk: partial page read for page %d", pageID))
	}
	return nil
}

func (m *FileManager) WritePage(pageID PageID, data []byte) error {
	if len(data) != PageSize {
		panic(fmt.Sprintf("disk: write buffer must be %d bytes, got %d", PageSize, len(data)))
	}
	if _, err := m.file.Seek(int64(PageSize)*int64(pageID), io.SeekStart); err != nil {
		return err
	}
	n, err := m.file.Write(data)
	if err != nil {
		return err
	}
	if n != PageSize {
		panic("disk: written bytes are not equal to page size")
	}
	return nil
}

// Close releases the underlying file handle.
func (m *FileManager) Close() error {
	return m.file.Close()
}
