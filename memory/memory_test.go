package memory

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadOfUnmappedPageIsZero(t *testing.T) {
	m := New()
	require.EqualValues(t, 0, m.ReadUint(0x1000, 8))
	require.Equal(t, 0, m.PageCount())
}

func TestWriteReadRoundTrip(t *testing.T) {
	m := New()
	m.WriteUint(0x10, 4, 0xdeadbeef)
	require.EqualValues(t, 0xdeadbeef, m.ReadUint(0x10, 4))
}

func TestUnalignedAccessCrossesPageBoundary(t *testing.T) {
	m := New()
	addr := uint64(PageSize - 4)
	m.WriteUint(addr, 8, 0x0102030405060708)
	require.EqualValues(t, 0x0102030405060708, m.ReadUint(addr, 8))
	// the write must have materialised both pages
	require.Equal(t, 2, m.PageCount())
}

func TestSetRangeZeroFillsTail(t *testing.T) {
	m := New()
	data := []byte{1, 2, 3, 4}
	require.NoError(t, m.SetRange(8, bytes.NewReader(data)))
	require.Equal(t, []byte{1, 2, 3, 4, 0, 0}, m.Slice(8, 6))
}

func TestRangeReaderMatchesSlice(t *testing.T) {
	m := New()
	m.WriteUint(100, 8, 0x1122334455667788)
	buf := make([]byte, 8)
	n, err := m.RangeReader(100, 8).Read(buf)
	require.NoError(t, err)
	require.Equal(t, 8, n)
	require.Equal(t, m.Slice(100, 8), buf)
}

func TestByteAtPageStartAfterFreshAlloc(t *testing.T) {
	m := New()
	m.WriteByte(0, 0xff)
	require.EqualValues(t, 0xff, m.ReadByte(0))
	require.EqualValues(t, 0, m.ReadByte(1))
}
