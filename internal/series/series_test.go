package series

import (
	"database/sql"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSomeRejectsNonFinite(t *testing.T) {
	assert.True(t, Some(1.5).OK)
	assert.False(t, Some(math.NaN()).OK)
	assert.False(t, Some(math.Inf(1)).OK)
	assert.Equal(t, 7.0, None.Or(7))
	assert.Equal(t, 1.5, Some(1.5).Or(7))
}

func TestFromNull(t *testing.T) {
	assert.Equal(t, Some(2), FromNull(sql.NullFloat64{Float64: 2, Valid: true}))
	assert.Equal(t, None, FromNull(sql.NullFloat64{Float64: 2}))
}

func TestOptSub(t *testing.T) {
	assert.Equal(t, Some(1), Some(3).Sub(Some(2)))
	assert.False(t, Some(3).Sub(None).OK)
	assert.False(t, None.Sub(Some(1)).OK)
}

func TestSeriesSetAndAt(t *testing.T) {
	s := New(4)
	s.Set(0, 1)
	s.Set(1, math.NaN())
	s.SetOpt(2, Some(3))
	s.SetOpt(3, None)

	assert.Equal(t, Some(1), s.At(0))
	assert.False(t, s.At(1).OK)
	assert.Equal(t, Some(3), s.At(2))
	assert.False(t, s.At(3).OK)
	assert.False(t, s.At(-1).OK)
	assert.False(t, s.At(9).OK)
	assert.Equal(t, 2, s.CountValid())
	assert.Equal(t, 0, s.FirstValid())

	s.Clear(0)
	assert.Equal(t, 2, s.FirstValid())
}

func TestMapAndZip(t *testing.T) {
	a := FromValues([]float64{1, 2, math.NaN()})
	b := FromOpts([]Opt{Some(10), None, Some(30)})

	doubled := a.Map(func(v float64) float64 { return v * 2 })
	assert.Equal(t, Some(4), doubled.At(1))
	assert.False(t, doubled.At(2).OK)

	sum := Zip(a, b, func(x, y float64) float64 { return x + y })
	assert.Equal(t, Some(11), sum.At(0))
	assert.False(t, sum.At(1).OK)
	assert.False(t, sum.At(2).OK)
}

func TestOptJSON(t *testing.T) {
	type payload struct {
		A Opt `json:"a"`
		B Opt `json:"b"`
	}
	data, err := json.Marshal(payload{A: Some(1.25)})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"a":1.25,"b":null}`, string(data))

	var back payload
	assert.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, Some(1.25), back.A)
	assert.Equal(t, None, back.B)

	assert.Error(t, json.Unmarshal([]byte(`{"a":"x"}`), &back))
}
