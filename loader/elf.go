// Package loader reads a statically linked ELF image into a memory.Memory
// and derives the initial hart state (entry PC, XLEN, sp, gp) needed to
// start execution. Grounded on _teacher_ref/fast/elf.go's LoadELF, trimmed
// to what a user-mode, non-Go-runtime image needs: the teacher's
// PatchVM (disabling the Go garbage collector by patching
// runtime.gcenable and friends) has no counterpart here, since nothing
// about this loader assumes the image is a Go binary.
package loader

import (
	"bytes"
	"debug/elf"
	"fmt"
	"io"

	"github.com/rvcore/rvemu/memory"
)

// defaultStackTop is an arbitrary high address with room to grow
// downward before colliding with any loaded segment in the test images
// this emulator targets.
const defaultStackTop = 0x7FFF_0000

// Image is the result of loading an ELF file: everything a Hart needs to
// begin execution.
type Image struct {
	Entry uint64
	XLEN  int
	SP    uint64
	GP    uint64
}

// Load reads every PT_LOAD segment of f into mem, zero-filling the gap
// between file size and memory size (the BSS tail), and returns the
// derived initial hart state. The stack pointer is seeded at
// defaultStackTop, 16-byte aligned per the calling convention; the global
// pointer is read from the __global_pointer$ symbol when present, left
// at zero otherwise.
func Load(f *elf.File, mem *memory.Memory) (Image, error) {
	xlen, err := xlenOf(f)
	if err != nil {
		return Image{}, err
	}

	for i, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		r := io.Reader(io.NewSectionReader(prog, 0, int64(prog.Filesz)))
		if prog.Filesz < prog.Memsz {
			r = io.MultiReader(r, bytes.NewReader(make([]byte, prog.Memsz-prog.Filesz)))
		} else if prog.Filesz > prog.Memsz {
			return Image{}, fmt.Errorf("loader: program segment %d file size (%d) exceeds mem size (%d)", i, prog.Filesz, prog.Memsz)
		}
		if err := mem.SetRange(prog.Vaddr, r); err != nil {
			return Image{}, fmt.Errorf("loader: failed to read program segment %d: %w", i, err)
		}
	}

	img := Image{
		Entry: f.Entry,
		XLEN:  xlen,
		SP:    defaultStackTop &^ 0xF,
	}
	if gp, ok := globalPointer(f); ok {
		img.GP = gp
	}
	return img, nil
}

func xlenOf(f *elf.File) (int, error) {
	switch f.Class {
	case elf.ELFCLASS32:
		return 32, nil
	case elf.ELFCLASS64:
		return 64, nil
	default:
		return 0, fmt.Errorf("loader: unsupported ELF class %v", f.Class)
	}
}

func globalPointer(f *elf.File) (uint64, bool) {
	symbols, err := f.Symbols()
	if err != nil {
		return 0, false
	}
	for _, s := range symbols {
		if s.Name == "__global_pointer$" {
			return s.Value, true
		}
	}
	return 0, false
}
