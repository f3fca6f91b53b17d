package series

import (
	"database/sql"
	"math"
)

// Opt is a float that may be absent.
type Opt struct {
	V  float64
	OK bool
}

// None is the absent value.
var None = Opt{}

// Some wraps v. NaN and ±Inf are treated as absent.
func Some(v float64) Opt {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return None
	}
	return Opt{V: v, OK: true}
}

// FromNull converts a database nullable float.
func FromNull(n sql.NullFloat64) Opt {
	if !n.Valid {
		return None
	}
	return Some(n.Float64)
}

// Get returns the value and whether it is present.
func (o Opt) Get() (float64, bool) { return o.V, o.OK }

// Or returns the value or def when absent.
func (o Opt) Or(def float64) float64 {
	if !o.OK {
		return def
	}
	return o.V
}

// Sub returns o-other, absent if either side is absent.
func (o Opt) Sub(other Opt) Opt {
	if !o.OK || !other.OK {
		return None
	}
	return Some(o.V - other.V)
}

// Series is a nullable float array stored as parallel slices.
type Series struct {
	V  []float64
	OK []bool
}

// New returns an all-null series of length n.
func New(n int) Series {
	return Series{V: make([]float64, n), OK: make([]bool, n)}
}

// FromValues returns a fully valid series over vals (NaN entries are null).
func FromValues(vals []float64) Series {
	s := New(len(vals))
	for i, v := range vals {
		s.Set(i, v)
	}
	return s
}

// FromOpts builds a series from single optional values.
func FromOpts(opts []Opt) Series {
	s := New(len(opts))
	for i, o := range opts {
		if o.OK {
			s.Set(i, o.V)
		}
	}
	return s
}

// Len returns the series length.
func (s Series) Len() int { return len(s.V) }

// Set stores v at i. NaN and ±Inf store null.
func (s Series) Set(i int, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		s.V[i], s.OK[i] = 0, false
		return
	}
	s.V[i], s.OK[i] = v, true
}

// SetOpt stores an optional value at i.
func (s Series) SetOpt(i int, o Opt) {
	if !o.OK {
		s.V[i], s.OK[i] = 0, false
		return
	}
	s.Set(i, o.V)
}

// Clear nulls position i.
func (s Series) Clear(i int) { s.V[i], s.OK[i] = 0, false }

// At returns position i; out-of-range indices are null.
func (s Series) At(i int) Opt {
	if i < 0 || i >= len(s.V) || !s.OK[i] {
		return None
	}
	return Opt{V: s.V[i], OK: true}
}

// Valid reports whether position i holds a value.
func (s Series) Valid(i int) bool { return i >= 0 && i < len(s.OK) && s.OK[i] }

// CountValid returns the number of non-null positions.
func (s Series) CountValid() int {
	n := 0
	for _, ok := range s.OK {
		if ok {
			n++
		}
	}
	return n
}

// FirstValid returns the index of the first non-null position, or -1.
func (s Series) FirstValid() int {
	for i, ok := range s.OK {
		if ok {
			return i
		}
	}
	return -1
}

// Map applies fn to every valid position, producing a new series.
func (s Series) Map(fn func(float64) float64) Series {
	out := New(s.Len())
	for i := range s.V {
		if s.OK[i] {
			out.Set(i, fn(s.V[i]))
		}
	}
	return out
}

// Zip combines two equal-length series position by position; null if either side is null.
func Zip(a, b Series, fn func(x, y float64) float64) Series {
	n := a.Len()
	if b.Len() < n {
		n = b.Len()
	}
	out := New(n)
	for i := 0; i < n; i++ {
		if a.OK[i] && b.OK[i] {
			out.Set(i, fn(a.V[i], b.V[i]))
		}
	}
	return out
}
