package transform

import "fmt"

// Deletion flags reported by MapResult.
const (
	delBefore = 1 << iota
	delAfter
	delAcross
	delSide
)

// Mappable is anything that maps positions between document revisions.
type Mappable interface {
	Map(pos, assoc int) int
	MapResult(pos, assoc int) MapResult
}

// MapResult is a mapped position plus information about deletions around
// the original position.
type MapResult struct {
	Pos     int
	delInfo int
	rec     recovery
}

// recovery locates a position inside a replaced range by range index and
// offset, so a mirroring map can restore it exactly.
type recovery struct {
	ok     bool
	index  int
	offset int
}

// Deleted reports whether the content on the side indicated by assoc was
// deleted.
func (r MapResult) Deleted() bool { return r.delInfo&delSide != 0 }

// DeletedBefore reports whether the content directly before the position was
// deleted.
func (r MapResult) DeletedBefore() bool { return r.delInfo&(delBefore|delAcross) != 0 }

// DeletedAfter reports whether the content directly after the position was
// deleted.
func (r MapResult) DeletedAfter() bool { return r.delInfo&(delAfter|delAcross) != 0 }

// DeletedAcross reports whether a deleted range covered the position.
func (r MapResult) DeletedAcross() bool { return r.delInfo&delAcross != 0 }

// StepMap describes the ranges replaced by a single step as a flat list of
// (start, oldSize, newSize) triples in ascending order.
type StepMap struct {
	ranges   []int
	inverted bool
}

// EmptyStepMap maps every position to itself.
var EmptyStepMap = &StepMap{}

// NewStepMap creates a map from (start, oldSize, newSize) triples.
func NewStepMap(ranges ...int) *StepMap {
	if len(ranges) == 0 {
		return EmptyStepMap
	}
	if len(ranges)%3 != 0 {
		panic("transform: step map ranges must be triples")
	}
	return &StepMap{ranges: ranges}
}

// Map maps pos. assoc < 0 keeps a position at an insertion point before
// the inserted content, assoc > 0 moves it after.
func (m *StepMap) Map(pos, assoc int) int {
	return m.mapPos(pos, assoc).Pos
}

// MapResult maps pos and reports deletions.
func (m *StepMap) MapResult(pos, assoc int) MapResult {
	return m.mapPos(pos, assoc)
}

func (m *StepMap) mapPos(pos, assoc int) MapResult {
	diff := 0
	oldIndex, newIndex := 1, 2
	if m.inverted {
		oldIndex, newIndex = 2, 1
	}
	for i := 0; i < len(m.ranges); i += 3 {
		start := m.ranges[i]
		if m.inverted {
			start -= diff
		}
		if start > pos {
			break
		}
		oldSize, newSize := m.ranges[i+oldIndex], m.ranges[i+newIndex]
		end := start + oldSize
		if pos <= end {
			side := assoc
			if oldSize > 0 {
				switch pos {
				case start:
					side = -1
				case end:
					side = 1
				}
			}
			result := start + diff
			if side >= 0 {
				result += newSize
			}
			var del int
			switch pos {
			case start:
				del = delAfter
			case end:
				del = delBefore
			default:
				del = delAcross
			}
			if (assoc < 0 && pos != start) || (assoc >= 0 && pos != end) {
				del |= delSide
			}
			r := MapResult{Pos: result, delInfo: del}
			if oldSize > 0 {
				r.rec = recovery{ok: true, index: i / 3, offset: pos - start}
			}
			return r
		}
		diff += newSize - oldSize
	}
	return MapResult{Pos: pos + diff}
}

// recover returns the position in this map's output that rec points at.
func (m *StepMap) recover(rec recovery) int {
	diff := 0
	if !m.inverted {
		for i := 0; i < rec.index; i++ {
			diff += m.ranges[i*3+2] - m.ranges[i*3+1]
		}
	}
	return m.ranges[rec.index*3] + diff + rec.offset
}

// Invert returns the map that undoes this one.
func (m *StepMap) Invert() *StepMap {
	return &StepMap{ranges: m.ranges, inverted: !m.inverted}
}

// ForEach calls fn for every changed range with old and new coordinates.
func (m *StepMap) ForEach(fn func(oldStart, oldEnd, newStart, newEnd int)) {
	oldIndex, newIndex := 1, 2
	if m.inverted {
		oldIndex, newIndex = 2, 1
	}
	diff := 0
	for i := 0; i < len(m.ranges); i += 3 {
		start := m.ranges[i]
		oldStart := start
		if m.inverted {
			oldStart = start - diff
		}
		newStart := oldStart + diff
		oldSize, newSize := m.ranges[i+oldIndex], m.ranges[i+newIndex]
		fn(oldStart, oldStart+oldSize, newStart, newStart+newSize)
		diff += newSize - oldSize
	}
}

// String returns the ranges in a readable form.
func (m *StepMap) String() string {
	prefix := ""
	if m.inverted {
		prefix = "-"
	}
	return fmt.Sprintf("%s%v", prefix, m.ranges)
}

// Mapping is a sequence of step maps applied in order. Two maps can be
// marked as mirrors of each other when one undoes the other; a position
// deleted by the first is then restored by the second instead of collapsing.
type Mapping struct {
	maps    []*StepMap
	mirrors map[int]int
}

// NewMapping creates a mapping from step maps.
func NewMapping(maps ...*StepMap) *Mapping {
	return &Mapping{maps: append([]*StepMap(nil), maps...)}
}

// Maps returns the step maps.
func (m *Mapping) Maps() []*StepMap {
	return append([]*StepMap(nil), m.maps...)
}

// Len returns the number of step maps.
func (m *Mapping) Len() int {
	return len(m.maps)
}

// AppendMap adds a step map to the end of the mapping.
func (m *Mapping) AppendMap(sm *StepMap) {
	m.maps = append(m.maps, sm)
}

// AppendMirror adds sm and pairs it with the map at index mirror, which
// sm undoes.
func (m *Mapping) AppendMirror(sm *StepMap, mirror int) {
	m.maps = append(m.maps, sm)
	m.setMirror(len(m.maps)-1, mirror)
}

func (m *Mapping) setMirror(a, b int) {
	if m.mirrors == nil {
		m.mirrors = make(map[int]int)
	}
	m.mirrors[a] = b
	m.mirrors[b] = a
}

// AppendMapping adds all step maps of other, keeping its mirror pairs.
func (m *Mapping) AppendMapping(other *Mapping) {
	base := len(m.maps)
	m.maps = append(m.maps, other.maps...)
	for a, b := range other.mirrors {
		if a < b {
			m.setMirror(base+a, base+b)
		}
	}
}

// Slice returns a mapping over maps [from, to).
func (m *Mapping) Slice(from, to int) *Mapping {
	s := NewMapping(m.maps[from:to]...)
	for a, b := range m.mirrors {
		if a < b && a >= from && b < to {
			s.setMirror(a-from, b-from)
		}
	}
	return s
}

// Invert returns a mapping that maps positions back through the maps in
// reverse order.
func (m *Mapping) Invert() *Mapping {
	n := len(m.maps)
	inv := &Mapping{maps: make([]*StepMap, n)}
	for i, sm := range m.maps {
		inv.maps[n-1-i] = sm.Invert()
	}
	for a, b := range m.mirrors {
		if a < b {
			inv.setMirror(n-1-a, n-1-b)
		}
	}
	return inv
}

// Map maps pos through every step map.
func (m *Mapping) Map(pos, assoc int) int {
	return m.MapResult(pos, assoc).Pos
}

// MapResult maps pos through every step map and accumulates deletions.
func (m *Mapping) MapResult(pos, assoc int) MapResult {
	del := 0
	for i := 0; i < len(m.maps); i++ {
		r := m.maps[i].MapResult(pos, assoc)
		if r.rec.ok {
			if corr, ok := m.mirrors[i]; ok && corr > i {
				i = corr
				pos = m.maps[corr].recover(r.rec)
				continue
			}
		}
		pos = r.Pos
		del |= r.delInfo
	}
	return MapResult{Pos: pos, delInfo: del}
}
