package machine

import "github.com/dolthub/swiss"

// Heap is the VM's traced store of composite values. Handles are issued
// monotonically and never reused, so handle equality is object identity
// across the whole run, including across collections.
type Heap struct {
	next uint64
	objs *swiss.Map[uint64, HeapValue]
}

// NewHeap returns an empty heap.
func NewHeap() *Heap {
	return &Heap{next: 1, objs: swiss.NewMap[uint64, HeapValue](64)}
}

// Alloc places v on the heap and returns its handle.
func (h *Heap) Alloc(v HeapValue) Ref {
	r := Ref(h.next)
	h.next++
	h.objs.Put(uint64(r), v)
	return r
}

// Get returns the heap value behind r, if the handle is live.
func (h *Heap) Get(r Ref) (HeapValue, bool) { return h.objs.Get(uint64(r)) }

// Len reports the number of live heap values.
func (h *Heap) Len() int { return h.objs.Count() }

// Collect runs a mark-and-sweep pass rooted at roots: every handle
// reachable from the live frame stack survives, everything else is freed
// (spec.md §4.H "Tracing visits every reachable handle from live frames").
func (h *Heap) Collect(roots []Value) {
	marked := make(map[uint64]bool, h.objs.Count())
	for _, v := range roots {
		h.mark(v, marked)
	}
	var dead []uint64
	h.objs.Iter(func(k uint64, _ HeapValue) bool {
		if !marked[k] {
			dead = append(dead, k)
		}
		return false
	})
	for _, k := range dead {
		h.objs.Delete(k)
	}
}

func (h *Heap) mark(v Value, marked map[uint64]bool) {
	r, ok := v.(Ref)
	if !ok || marked[uint64(r)] {
		return
	}
	hv, ok := h.objs.Get(uint64(r))
	if !ok {
		return
	}
	marked[uint64(r)] = true
	switch hv := hv.(type) {
	case *Object:
		for _, f := range hv.Values {
			h.mark(f, marked)
		}
	case *Dyn:
		h.mark(hv.Inner, marked)
	}
}
