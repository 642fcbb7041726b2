package recording

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_AppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.rec")

	w, err := NewWriter(WriterConfig{Path: path})
	require.NoError(t, err)
	assert.DirExists(t, filepath.Dir(path))
	assert.Equal(t, int64(0), w.Size())

	first, err := w.Append("udp", []byte("one"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), first)

	second, err := w.Append("udp", []byte("two"))
	require.NoError(t, err)
	assert.Equal(t, int64(EntryHeaderSize+3+3), second)
	require.NoError(t, w.Record("nats", []byte("three")))
	require.NoError(t, w.Close())

	r, err := OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	var got []string
	for {
		e, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, string(e.Source)+":"+string(e.Data))
	}
	assert.Equal(t, []string{"udp:one", "udp:two", "nats:three"}, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), r.Offset())
}

func TestWriter_ReopenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.rec")

	w, err := NewWriter(WriterConfig{Path: path})
	require.NoError(t, err)
	_, err = w.Append("udp", []byte("a"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	w, err = NewWriter(WriterConfig{Path: path})
	require.NoError(t, err)
	assert.Equal(t, int64(EntryHeaderSize+4), w.Size())
	offset, err := w.Append("udp", []byte("b"))
	require.NoError(t, err)
	assert.Equal(t, int64(EntryHeaderSize+4), offset)
	require.NoError(t, w.Close())
}

func TestWriter_FsyncInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.rec")

	w, err := NewWriter(WriterConfig{Path: path, FsyncInterval: time.Hour, BufferSize: 4096})
	require.NoError(t, err)
	_, err = w.Append("udp", []byte("buffered"))
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Size(), "entry should still be buffered")

	require.NoError(t, w.Sync())
	info, err = os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, w.Size(), info.Size())
	require.NoError(t, w.Close())
}

func TestReader_TruncatedTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.rec")

	w, err := NewWriter(WriterConfig{Path: path})
	require.NoError(t, err)
	_, err = w.Append("udp", []byte("complete"))
	require.NoError(t, err)
	_, err = w.Append("udp", []byte("cut short"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, info.Size()-2))

	r, err := OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	e, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "complete", string(e.Data))

	_, err = r.Next()
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestOpenReader_Missing(t *testing.T) {
	r, err := OpenReader(filepath.Join(t.TempDir(), "missing.rec"))
	assert.Error(t, err)
	assert.Nil(t, r)
}

func TestNewWriter_InvalidPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))

	w, err := NewWriter(WriterConfig{Path: filepath.Join(blocker, "session.rec")})
	assert.Error(t, err)
	assert.Nil(t, w)
}
