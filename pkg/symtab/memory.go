package symtab

import (
	"fmt"
	"sort"
)

// segment is a free-list node in the intrusive doubly-linked list the
// MemoryManager maintains, ordered by start address. owner is empty iff the
// segment currently sits in a bucket (free).
type segment struct {
	start, end int
	owner      string
	prev, next *segment
}

func (s *segment) size() int   { return s.end - s.start + 1 }
func (s *segment) free() bool  { return s.owner == "" }

// bucket boundaries, exponential: [1,4], [5,16], [17,64], [65,inf).
var bucketBounds = [4][2]int{
	{1, 4},
	{5, 16},
	{17, 64},
	{65, 1 << 30},
}

func bucketFor(size int) int {
	for i, b := range bucketBounds {
		if size >= b[0] && size <= b[1] {
			return i
		}
	}
	return len(bucketBounds) - 1
}

// MemoryManager is a segregated free-list allocator over a single
// contiguous static-RAM region, used by the compiler for globals, arrays,
// and spill slots. Grounded on original_source's symbol_table.py
// MemoryManager: four exponential size buckets, best-fit within a bucket
// falling back to larger buckets, intrusive neighbour links for O(1)
// coalescing.
type MemoryManager struct {
	start, end int
	buckets    [4][]*segment
	owned      map[string]*segment
}

// NewMemoryManager creates a manager over [start, start+size).
func NewMemoryManager(start, size int) *MemoryManager {
	m := &MemoryManager{
		start: start,
		end:   start + size - 1,
		owned: make(map[string]*segment),
	}
	initial := &segment{start: start, end: m.end}
	m.insert(initial)
	return m
}

// Allocate reserves size words for name and returns the start address, or
// an error if no free segment is large enough.
func (m *MemoryManager) Allocate(name string, size int) (int, error) {
	if size <= 0 {
		size = 1
	}
	if _, exists := m.owned[name]; exists {
		return 0, fmt.Errorf("symtab: %q already has a static allocation", name)
	}

	seg := m.findFit(size)
	if seg == nil {
		return 0, fmt.Errorf("symtab: no fit for %q (%d words, %d free): %w",
			name, size, m.freeWords(), ErrOutOfMemory)
	}
	m.remove(seg)

	if seg.size() > size {
		remainderStart := seg.start + size
		remainder := &segment{start: remainderStart, end: seg.end, prev: seg, next: seg.next}
		if remainder.next != nil {
			remainder.next.prev = remainder
		}
		seg.end = seg.start + size - 1
		seg.next = remainder
		m.insert(remainder)
	}

	seg.owner = name
	m.owned[name] = seg
	return seg.start, nil
}

// Free releases name's allocation, coalescing with adjacent free segments.
func (m *MemoryManager) Free(name string) error {
	seg, ok := m.owned[name]
	if !ok {
		return fmt.Errorf("symtab: %q has no static allocation to free", name)
	}
	delete(m.owned, name)
	seg.owner = ""

	for seg.prev != nil && seg.prev.free() {
		prev := seg.prev
		m.remove(prev)
		prev.end = seg.end
		prev.next = seg.next
		if seg.next != nil {
			seg.next.prev = prev
		}
		seg = prev
	}
	for seg.next != nil && seg.next.free() {
		next := seg.next
		m.remove(next)
		seg.end = next.end
		seg.next = next.next
		if next.next != nil {
			next.next.prev = seg
		}
	}
	m.insert(seg)
	return nil
}

// AddressOf returns the static address previously allocated for name.
func (m *MemoryManager) AddressOf(name string) (int, bool) {
	seg, ok := m.owned[name]
	if !ok {
		return 0, false
	}
	return seg.start, true
}

func (m *MemoryManager) findFit(size int) *segment {
	target := bucketFor(size)
	if seg := bestFitIn(m.buckets[target], size); seg != nil {
		return seg
	}
	for b := target + 1; b < len(m.buckets); b++ {
		if seg := bestFitIn(m.buckets[b], size); seg != nil {
			return seg
		}
	}
	return nil
}

func bestFitIn(bucket []*segment, size int) *segment {
	var best *segment
	for _, seg := range bucket {
		if seg.size() < size {
			continue
		}
		if best == nil || seg.size() < best.size() {
			best = seg
			if seg.size() == size {
				break
			}
		}
	}
	return best
}

func (m *MemoryManager) insert(seg *segment) {
	b := bucketFor(seg.size())
	list := m.buckets[b]
	i := sort.Search(len(list), func(i int) bool { return list[i].start >= seg.start })
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = seg
	m.buckets[b] = list
}

func (m *MemoryManager) remove(seg *segment) {
	b := bucketFor(seg.size())
	list := m.buckets[b]
	for i, s := range list {
		if s == seg {
			m.buckets[b] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

func (m *MemoryManager) freeWords() int {
	total := 0
	for _, list := range m.buckets {
		for _, s := range list {
			total += s.size()
		}
	}
	return total
}

// HeapAllocator is a monotonic bump allocator over the Heap region
// [0x1800, 0x7000). malloc addresses in MCL are assigned at compile time
// and are never recycled (runtime `free` only receives a pointer, so
// cannot identify the original allocation) — a segregated free list would
// buy nothing here since nothing is ever returned to it, so this is plain
// cursor arithmetic instead of reusing MemoryManager.
type HeapAllocator struct {
	cursor, end int
}

// NewHeapAllocator creates a bump allocator over [start, start+size).
func NewHeapAllocator(start, size int) *HeapAllocator {
	return &HeapAllocator{cursor: start, end: start + size}
}

// Allocate reserves size words and returns the start address.
func (h *HeapAllocator) Allocate(size int) (int, error) {
	if size <= 0 {
		size = 1
	}
	if h.cursor+size > h.end {
		return 0, fmt.Errorf("symtab: heap exhausted allocating %d words: %w", size, ErrOutOfMemory)
	}
	addr := h.cursor
	h.cursor += size
	return addr, nil
}
