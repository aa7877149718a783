package core

import (
	"fmt"
	"os"
	"sync"
	"syscall"

	"github.com/ebogdum/jfsio/metrics"
)

// Fd is a descriptor issued by a Session. The low 16 bits index a table
// slot and the bits above hold the slot generation, so a closed descriptor
// is never mistaken for the one that reuses its slot.
type Fd int32

const (
	slotBits = 16
	maxSlots = 1 << slotBits
	maxGen   = 1<<(31-slotBits) - 1
)

func (fd Fd) slot() int   { return int(fd) & (maxSlots - 1) }
func (fd Fd) gen() uint32 { return uint32(fd) >> slotBits }

func makeFd(slot int, gen uint32) Fd {
	return Fd(gen<<slotBits | uint32(slot))
}

// Access is the engine access mode a descriptor was opened with.
type Access int32

const (
	AccessRead      Access = 4
	AccessWrite     Access = 2
	AccessReadWrite Access = AccessRead | AccessWrite
)

func (a Access) CanRead() bool  { return a&AccessRead != 0 }
func (a Access) CanWrite() bool { return a&AccessWrite != 0 }

func (a Access) String() string {
	switch a {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessReadWrite:
		return "read-write"
	default:
		return fmt.Sprintf("Access(%d)", int32(a))
	}
}

// Descriptor is a snapshot of an open descriptor's record.
type Descriptor struct {
	Path   string
	Flags  int
	Access Access
	// Length is the tracked file length used to resolve SEEK_END.
	Length int64
}

// FileHandle is the record behind one descriptor. Its mutex serializes
// operations on that descriptor only.
type FileHandle struct {
	mu       sync.Mutex
	engineFd int32
	path     string
	flags    int
	access   Access
	length   int64
	closed   bool
}

type slot struct {
	gen    uint32
	handle *FileHandle
}

// DescriptorTable maps descriptors to file handles.
type DescriptorTable struct {
	mu    sync.RWMutex
	slots []slot
	free  []int
}

func NewDescriptorTable() *DescriptorTable {
	return &DescriptorTable{}
}

// Insert stores h and returns its descriptor.
func (t *DescriptorTable) Insert(h *FileHandle) (Fd, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var idx int
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		if len(t.slots) == maxSlots {
			return 0, os.NewSyscallError("open", syscall.EMFILE)
		}
		t.slots = append(t.slots, slot{gen: 1})
		idx = len(t.slots) - 1
	}
	t.slots[idx].handle = h
	metrics.OpenDescriptors.Inc()
	return makeFd(idx, t.slots[idx].gen), nil
}

// Get returns the handle of fd.
func (t *DescriptorTable) Get(op string, fd Fd) (*FileHandle, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lookup(op, fd)
}

// Remove detaches fd from the table and returns its handle. The slot's
// generation advances so fd turns stale.
func (t *DescriptorTable) Remove(op string, fd Fd) (*FileHandle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, err := t.lookup(op, fd)
	if err != nil {
		return nil, err
	}
	s := &t.slots[fd.slot()]
	s.handle = nil
	s.gen++
	if s.gen > maxGen {
		s.gen = 1
	}
	t.free = append(t.free, fd.slot())
	metrics.OpenDescriptors.Dec()
	return h, nil
}

// Open lists the live descriptors.
func (t *DescriptorTable) Open() []Fd {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var fds []Fd
	for i, s := range t.slots {
		if s.handle != nil {
			fds = append(fds, makeFd(i, s.gen))
		}
	}
	return fds
}

// Len returns the number of live descriptors.
func (t *DescriptorTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.slots) - len(t.free)
}

func (t *DescriptorTable) lookup(op string, fd Fd) (*FileHandle, error) {
	idx, gen := fd.slot(), fd.gen()
	if fd < 0 || gen == 0 || idx >= len(t.slots) {
		return nil, os.NewSyscallError(op, syscall.EBADF)
	}
	s := t.slots[idx]
	if s.handle != nil && s.gen == gen {
		return s.handle, nil
	}
	if gen < s.gen {
		return nil, fmt.Errorf("%s: fd %d: %w: %w", op, fd, ErrStaleDescriptor, syscall.EBADF)
	}
	return nil, os.NewSyscallError(op, syscall.EBADF)
}
