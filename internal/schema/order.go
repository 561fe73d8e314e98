package schema

import "container/heap"

// Ordering is a linear order over every declared table.
type Ordering struct {
	Order []string `json:"order" yaml:"order"`
	// Fallback is set when a reference cycle left tables that could not be
	// placed; they were appended in declaration order.
	Fallback bool `json:"fallback" yaml:"fallback"`
	// Unresolved lists the tables appended by the fallback, in declaration order.
	Unresolved []string `json:"unresolved,omitempty" yaml:"unresolved,omitempty"`
}

// tieBreak picks among tables that become ready at the same time.
type tieBreak int

const (
	earliestFirst tieBreak = iota
	latestFirst
)

// restoreOrder places referenced tables before the tables that reference them.
func (s *Schema) restoreOrder() Ordering {
	return s.place(earliestFirst)
}

// deletionOrder is the parents-first placement read backwards. Ties go to the
// latest declared table so that, once reversed, independent tables keep their
// declaration order and any cycle fallback ends up at the head.
func (s *Schema) deletionOrder() Ordering {
	ord := s.place(latestFirst)
	for i, j := 0, len(ord.Order)-1; i < j; i, j = i+1, j-1 {
		ord.Order[i], ord.Order[j] = ord.Order[j], ord.Order[i]
	}
	return ord
}

// place is Kahn's algorithm: a table is placed once every table it references
// is placed. Self references and references to undeclared tables are ignored.
// When nothing is ready but tables remain, the remaining tables are appended
// in declaration order and the result is flagged as a fallback.
func (s *Schema) place(tb tieBreak) Ordering {
	n := len(s.tables)
	result := Ordering{Order: make([]string, 0, n)}
	if n == 0 {
		return result
	}

	indegree := make([]int, n)
	children := make([][]int, n)
	for child, parents := range s.deps {
		ci, ok := s.index[child]
		if !ok {
			continue
		}
		for parent := range parents {
			pi, ok := s.index[parent]
			if !ok || pi == ci {
				continue
			}
			children[pi] = append(children[pi], ci)
			indegree[ci]++
		}
	}

	ready := &indexHeap{latest: tb == latestFirst}
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			heap.Push(ready, i)
		}
	}

	placed := make([]bool, n)
	for ready.Len() > 0 {
		i := heap.Pop(ready).(int)
		placed[i] = true
		result.Order = append(result.Order, s.tables[i])
		for _, next := range children[i] {
			indegree[next]--
			if indegree[next] == 0 {
				heap.Push(ready, next)
			}
		}
	}

	if len(result.Order) < n {
		result.Fallback = true
		for i := 0; i < n; i++ {
			if !placed[i] {
				result.Order = append(result.Order, s.tables[i])
				result.Unresolved = append(result.Unresolved, s.tables[i])
			}
		}
	}

	return result
}

// indexHeap pops the smallest declaration index, or the largest when latest is set.
type indexHeap struct {
	items  []int
	latest bool
}

func (h indexHeap) Len() int { return len(h.items) }

func (h indexHeap) Less(i, j int) bool {
	if h.latest {
		return h.items[i] > h.items[j]
	}
	return h.items[i] < h.items[j]
}

func (h indexHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *indexHeap) Push(x any) {
	h.items = append(h.items, x.(int))
}

func (h *indexHeap) Pop() any {
	old := h.items
	n := len(old)
	x := old[n-1]
	h.items = old[:n-1]
	return x
}
