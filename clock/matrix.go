package clock

// MatrixClock maps each known replica index to that replica's last-known
// version vector (spec.md §3, §4.3). Row origin is this replica's own row
// and is kept pointwise dominant over every other row.
//
// Grounded on the `mat [][]vec` construction in
// dedis-tlc/go/dist/causal.go's initCausal and
// dedis-tlc/go/tlc/minnet/node.go's initGossip, both of which build
// exactly this "one vector per known node" shape, generalized here from a
// fixed array to one that grows with AddReplica.
type MatrixClock struct {
	origin int
	rows   []*Version
}

// NewMatrixClock creates a square zero matrix sized to the resolver's
// current replica count.
func NewMatrixClock(origin int, r *Resolver) *MatrixClock {
	n := r.Len()
	m := &MatrixClock{origin: origin, rows: make([]*Version, n)}
	for i := 0; i < n; i++ {
		m.rows[i] = NewVersion(i, r)
		m.rows[i].grow(n)
	}
	return m
}

// AddReplica extends every existing row with a zero entry for the new
// replica and creates a fresh zero row for it (spec.md §4.3).
func (m *MatrixClock) AddReplica(index int) {
	for index >= len(m.rows) {
		m.rows = append(m.rows, nil)
	}
	n := len(m.rows)
	for i, row := range m.rows {
		if row == nil {
			row = &Version{origin: i}
			m.rows[i] = row
		}
		row.grow(n)
	}
}

// Row returns the version vector this matrix has recorded for replica i,
// growing the matrix if i was not yet known.
func (m *MatrixClock) Row(i int) *Version {
	m.AddReplica(i)
	return m.rows[i]
}

// SetRow replaces the recorded version vector for replica i outright,
// rather than joining it — used when a causally-ready event's sender row
// should become exactly that event's version (spec.md §4.4).
func (m *MatrixClock) SetRow(i int, v *Version) {
	m.AddReplica(i)
	m.rows[i] = v
}

// OriginVersion returns this replica's own row.
func (m *MatrixClock) OriginVersion() *Version {
	return m.Row(m.origin)
}

// Size returns the number of rows (known replicas).
func (m *MatrixClock) Size() int { return len(m.rows) }

// ColumnWiseMin computes the pointwise minimum across all rows — the last
// stable version (spec.md §3, §4.3). Recomputed from scratch, O(n^2).
func (m *MatrixClock) ColumnWiseMin() *Version {
	n := len(m.rows)
	out := &Version{origin: m.origin, entries: make([]uint64, n)}
	for j := 0; j < n; j++ {
		min := uint64(0)
		if n > 0 {
			min = m.rows[0].Get(j)
		}
		for i := 1; i < n; i++ {
			if v := m.rows[i].Get(j); v < min {
				min = v
			}
		}
		out.entries[j] = min
	}
	return out
}

// IsValid checks the matrix invariants named in spec.md §3 and §8: square,
// diagonally dominated (row[i][j] <= row[j][j] for i != j), and origin
// dominating (row[origin] pointwise >= every other row). Used by tests,
// not at runtime (spec.md §4.3).
func (m *MatrixClock) IsValid() bool {
	n := len(m.rows)
	for i, row := range m.rows {
		if row.Len() < n {
			return false
		}
		for j := 0; j < n; j++ {
			if i != j && row.Get(j) > m.rows[j].Get(j) {
				return false
			}
		}
	}
	origin := m.rows[m.origin]
	for i, row := range m.rows {
		if i == m.origin {
			continue
		}
		if ord := origin.Compare(row); ord == Less || ord == Concurrent {
			return false
		}
	}
	return true
}
