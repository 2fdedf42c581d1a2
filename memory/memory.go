// Package memory implements the hart's byte-addressable physical memory:
// a sparse, page-granular backing store that behaves as if it were a flat
// array of 2^PA bytes without paying to allocate the whole range.
package memory

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Page size for the sparse backing store. Unrelated to the MMU's page
// size by coincidence of both being 4 KiB; the two are configured
// independently (mmu.PageSize is the architectural paging unit, this one
// is purely an allocation granularity).
const (
	PageAddrSize = 12
	PageSize     = 1 << PageAddrSize
	PageAddrMask = PageSize - 1
)

// Page is one lazily-allocated bucket of the sparse address space.
type Page = [PageSize]byte

// Memory is a sparse byte-addressable store. The zero value is not usable;
// construct with New.
type Memory struct {
	pages map[uint64]*Page

	// 2-slot direct cache: the hart commonly touches one page for
	// instruction fetch and a different page for load/store in the same
	// step, so caching just the last two lookups avoids a map probe on
	// the hot path without the complexity of a general LRU.
	lastPageKeys [2]uint64
	lastPage     [2]*Page
}

// New creates an empty memory. All addresses read as zero until written.
func New() *Memory {
	return &Memory{
		pages:        make(map[uint64]*Page),
		lastPageKeys: [2]uint64{^uint64(0), ^uint64(0)},
	}
}

// PageCount reports how many pages have been materialised so far.
func (m *Memory) PageCount() int { return len(m.pages) }

func (m *Memory) lookup(pageIndex uint64) (*Page, bool) {
	if pageIndex == m.lastPageKeys[0] {
		return m.lastPage[0], true
	}
	if pageIndex == m.lastPageKeys[1] {
		return m.lastPage[1], true
	}
	p, ok := m.pages[pageIndex]
	if ok {
		m.lastPageKeys[1], m.lastPage[1] = m.lastPageKeys[0], m.lastPage[0]
		m.lastPageKeys[0], m.lastPage[0] = pageIndex, p
	}
	return p, ok
}

func (m *Memory) alloc(pageIndex uint64) *Page {
	p := new(Page)
	m.pages[pageIndex] = p
	m.lastPageKeys[1], m.lastPage[1] = m.lastPageKeys[0], m.lastPage[0]
	m.lastPageKeys[0], m.lastPage[0] = pageIndex, p
	return p
}

// ReadByte reads a single byte. Unmapped pages read as zero.
func (m *Memory) ReadByte(addr uint64) byte {
	pageIndex := addr >> PageAddrSize
	pageAddr := addr & PageAddrMask
	p, ok := m.lookup(pageIndex)
	if !ok {
		return 0
	}
	return p[pageAddr]
}

// WriteByte writes a single byte, materialising its page on first touch.
func (m *Memory) WriteByte(addr uint64, v byte) {
	pageIndex := addr >> PageAddrSize
	pageAddr := addr & PageAddrMask
	p, ok := m.lookup(pageIndex)
	if !ok {
		p = m.alloc(pageIndex)
	}
	p[pageAddr] = v
}

// ReadUint reads a little-endian unsigned integer of the given byte size
// (1, 2, 4, or 8), transparently crossing page boundaries.
func (m *Memory) ReadUint(addr uint64, size int) uint64 {
	var buf [8]byte
	for i := 0; i < size; i++ {
		buf[i] = m.ReadByte(addr + uint64(i))
	}
	switch size {
	case 1:
		return uint64(buf[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(buf[:2]))
	case 4:
		return uint64(binary.LittleEndian.Uint32(buf[:4]))
	case 8:
		return binary.LittleEndian.Uint64(buf[:8])
	default:
		panic(fmt.Errorf("unsupported memory access size: %d", size))
	}
}

// WriteUint writes a little-endian unsigned integer of the given byte size.
func (m *Memory) WriteUint(addr uint64, size int, value uint64) {
	var buf [8]byte
	switch size {
	case 1:
		buf[0] = byte(value)
	case 2:
		binary.LittleEndian.PutUint16(buf[:2], uint16(value))
	case 4:
		binary.LittleEndian.PutUint32(buf[:4], uint32(value))
	case 8:
		binary.LittleEndian.PutUint64(buf[:8], value)
	default:
		panic(fmt.Errorf("unsupported memory access size: %d", size))
	}
	for i := 0; i < size; i++ {
		m.WriteByte(addr+uint64(i), buf[i])
	}
}

// SetRange copies bytes from r starting at addr, materialising pages as
// needed. Used by the loader to stamp ELF segment bytes, and by tests to
// seed a program image.
func (m *Memory) SetRange(addr uint64, r io.Reader) error {
	for {
		pageIndex := addr >> PageAddrSize
		pageAddr := addr & PageAddrMask
		p, ok := m.lookup(pageIndex)
		if !ok {
			p = m.alloc(pageIndex)
		}
		n, err := r.Read(p[pageAddr:])
		addr += uint64(n)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if n == 0 {
			return nil
		}
	}
}

// Slice returns a contiguous, freshly-copied view of count bytes starting
// at addr. This is a test/harness convenience (the "linear view" Design
// Notes §9 calls for): the sparse paging is an implementation detail, not
// part of the observable contract.
func (m *Memory) Slice(addr uint64, count uint64) []byte {
	out := make([]byte, count)
	for i := range out {
		out[i] = m.ReadByte(addr + uint64(i))
	}
	return out
}

type rangeReader struct {
	m     *Memory
	addr  uint64
	count uint64
}

func (r *rangeReader) Read(dest []byte) (int, error) {
	if r.count == 0 {
		return 0, io.EOF
	}
	n := uint64(len(dest))
	if n > r.count {
		n = r.count
	}
	for i := uint64(0); i < n; i++ {
		dest[i] = r.m.ReadByte(r.addr + i)
	}
	r.addr += n
	r.count -= n
	return int(n), nil
}

// RangeReader returns an io.Reader over count bytes starting at addr,
// without materialising a full copy up front. Nothing in the hart calls it;
// it is a harness convenience alongside Slice.
func (m *Memory) RangeReader(addr, count uint64) io.Reader {
	return &rangeReader{m: m, addr: addr, count: count}
}

// Usage renders an approximate human-readable footprint, useful for trace
// output and debugging; mirrors the teacher's Memory.Usage.
func (m *Memory) Usage() string {
	total := uint64(len(m.pages)) * PageSize
	const unit = 1024
	if total < unit {
		return fmt.Sprintf("%d B", total)
	}
	div, exp := uint64(unit), 0
	for n := total / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(total)/float64(div), "KMGTPE"[exp])
}
