package store

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentWriterDedupsIdenticalPayloads(t *testing.T) {
	l := NewLayout(t.TempDir())
	id := uuid.New()

	cw, err := NewContentWriter(l, id)
	require.NoError(t, err)

	d1, err := cw.Put([]byte("hello"))
	require.NoError(t, err)
	d2, err := cw.Put([]byte("hello"))
	require.NoError(t, err)
	d3, err := cw.Put([]byte("world"))
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.NotEqual(t, d1, d3)
	require.NoError(t, cw.Close())

	cr, err := OpenContentReader(l.ArchivePath(id))
	require.NoError(t, err)
	defer cr.Close()

	got, err := cr.Get(d1)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	got, err = cr.Get(d3)
	require.NoError(t, err)
	assert.Equal(t, "world", string(got))
}

func TestContentReaderErrorsOnMissingDigest(t *testing.T) {
	l := NewLayout(t.TempDir())
	id := uuid.New()

	cw, err := NewContentWriter(l, id)
	require.NoError(t, err)
	_, err = cw.Put([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, cw.Close())

	cr, err := OpenContentReader(l.ArchivePath(id))
	require.NoError(t, err)
	defer cr.Close()

	_, err = cr.Get("0000000000000000")
	assert.Error(t, err)
}
