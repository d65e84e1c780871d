package bitheap

// columnStore keeps every bit of a heap in one arena and each column as an
// ordered list of arena indices. Bits are never removed; consumed bits stay
// in place so that IDs remain stable for the plan.
type columnStore struct {
	prefix  string
	arena   []WeightedBit
	columns [][]BitID
	uids    []int
}

func newColumnStore(maxWeight int, prefix string) *columnStore {
	return &columnStore{
		prefix:  prefix,
		columns: make([][]BitID, maxWeight),
		uids:    make([]int, maxWeight),
	}
}

func (s *columnStore) maxWeight() int {
	return len(s.columns)
}

func (s *columnStore) inRange(w int) bool {
	return w >= 0 && w < len(s.columns)
}

// nextName is the name insert gives the next bit of column w.
func (s *columnStore) nextName(w int) string {
	return bitName(s.prefix, w, s.uids[w])
}

// insert stores b in the arena, names it unless already named, and places
// it in its column after every bit that does not arrive later than it.
func (s *columnStore) insert(b WeightedBit) BitID {
	w := b.Weight
	b.ID = BitID(len(s.arena))
	if b.Name == "" {
		b.Name = s.nextName(w)
	}
	s.uids[w]++
	s.arena = append(s.arena, b)

	col := s.columns[w]
	pos := len(col)
	for i, id := range col {
		if b.Before(&s.arena[id]) {
			pos = i
			break
		}
	}
	col = append(col, NoBit)
	copy(col[pos+1:], col[pos:])
	col[pos] = b.ID
	s.columns[w] = col
	return b.ID
}

func (s *columnStore) bit(id BitID) *WeightedBit {
	return &s.arena[id]
}

// height is the number of unconsumed bits in column w, 0 outside the heap.
func (s *columnStore) height(w int) int {
	if !s.inRange(w) {
		return 0
	}
	n := 0
	for _, id := range s.columns[w] {
		if !s.arena[id].Consumed {
			n++
		}
	}
	return n
}

// take marks the n earliest unconsumed bits of column w consumed and returns
// them in arrival order. The caller checks the height first.
func (s *columnStore) take(w, n int) []BitID {
	out := make([]BitID, 0, n)
	for _, id := range s.columns[w] {
		if len(out) == n {
			break
		}
		if s.arena[id].Consumed {
			continue
		}
		s.arena[id].Consumed = true
		out = append(out, id)
	}
	return out
}

// remaining returns the unconsumed bits of column w in arrival order.
func (s *columnStore) remaining(w int) []BitID {
	var out []BitID
	for _, id := range s.columns[w] {
		if !s.arena[id].Consumed {
			out = append(out, id)
		}
	}
	return out
}

func (s *columnStore) unconsumed() int {
	n := 0
	for i := range s.arena {
		if !s.arena[i].Consumed {
			n++
		}
	}
	return n
}

// column copies column w in arrival order, consumed bits included.
func (s *columnStore) column(w int) []WeightedBit {
	if !s.inRange(w) {
		return nil
	}
	out := make([]WeightedBit, len(s.columns[w]))
	for i, id := range s.columns[w] {
		out[i] = s.arena[id]
	}
	return out
}
