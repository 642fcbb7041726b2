package recording

import (
	"bufio"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// WriterConfig configures a Writer
type WriterConfig struct {
	Path          string
	FsyncInterval time.Duration // 0 syncs after every entry
	BufferSize    int
}

// Writer appends entries to a recording file
type Writer struct {
	file       *os.File
	writer     *bufio.Writer
	fsyncTimer *time.Timer
	config     WriterConfig
	mutex      sync.Mutex
	offset     int64
	now        func() time.Time
}

// NewWriter opens the recording at config.Path for appending, creating it
// when it does not exist.
func NewWriter(config WriterConfig) (*Writer, error) {
	if config.BufferSize <= 0 {
		config.BufferSize = 64 * 1024
	}
	if err := os.MkdirAll(filepath.Dir(config.Path), 0750); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(config.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, err
	}
	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	w := &Writer{
		file:   file,
		writer: bufio.NewWriterSize(file, config.BufferSize),
		config: config,
		offset: stat.Size(),
		now:    time.Now,
	}
	if config.FsyncInterval > 0 {
		w.fsyncTimer = time.AfterFunc(config.FsyncInterval, func() {
			w.mutex.Lock()
			defer w.mutex.Unlock()
			_ = w.sync()
		})
	}
	return w, nil
}

// Append records data as received from source and returns the offset of
// the entry.
func (w *Writer) Append(source string, data []byte) (int64, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	e, err := NewEntry(source, data, w.now())
	if err != nil {
		return 0, err
	}
	framed, err := e.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.writer.Write(framed)
	if err != nil {
		return 0, err
	}

	offset := w.offset
	w.offset += int64(n)

	if w.config.FsyncInterval == 0 {
		if err := w.sync(); err != nil {
			return 0, err
		}
	} else if w.fsyncTimer != nil {
		w.fsyncTimer.Reset(w.config.FsyncInterval)
	}
	return offset, nil
}

// Record implements messenger.Recorder
func (w *Writer) Record(source string, data []byte) error {
	_, err := w.Append(source, data)
	return err
}

// Sync flushes buffered entries and fsyncs the file
func (w *Writer) Sync() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.sync()
}

func (w *Writer) sync() error {
	if err := w.writer.Flush(); err != nil {
		return err
	}
	return w.file.Sync()
}

// Close syncs and closes the file
func (w *Writer) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.fsyncTimer != nil {
		w.fsyncTimer.Stop()
	}
	if err := w.sync(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}

// Size returns the length of the recording including buffered entries
func (w *Writer) Size() int64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.offset
}

// Path returns the file path
func (w *Writer) Path() string {
	return w.config.Path
}
