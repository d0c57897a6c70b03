package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoint_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want bool
	}{
		{"same", NewPoint(1, 2), NewPoint(1, 2), true},
		{"different value", NewPoint(1, 2), NewPoint(1, 3), false},
		{"different dimension", NewPoint(1, 2), NewPoint(1, 2, 0), false},
		{"both empty", Point{}, NewPoint(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
			assert.Equal(t, tt.want, tt.b.Equal(tt.a))
		})
	}
}

func TestCentroidSet_CloneIsDeep(t *testing.T) {
	orig := CentroidSet{NewPoint(1, 1), NewPoint(4, 5)}
	clone := orig.Clone()
	assert.True(t, clone.Equal(orig))

	clone[0].Values[0] = 99
	clone[1] = NewPoint(0, 0)

	assert.Equal(t, CentroidSet{NewPoint(1, 1), NewPoint(4, 5)}, orig)
	assert.False(t, clone.Equal(orig))
}

func TestCentroidSet_Equal(t *testing.T) {
	a := CentroidSet{NewPoint(1, 1), NewPoint(4, 5)}
	assert.True(t, a.Equal(CentroidSet{NewPoint(1, 1), NewPoint(4, 5)}))
	assert.False(t, a.Equal(CentroidSet{NewPoint(4, 5), NewPoint(1, 1)}))
	assert.False(t, a.Equal(a[:1]))
}

func TestString(t *testing.T) {
	assert.Equal(t, "(3, -4)", NewPoint(3, -4).String())
	assert.Equal(t, "[(1, 1), (4, 5)]", CentroidSet{NewPoint(1, 1), NewPoint(4, 5)}.String())

	ca := ClusterAssignment{
		{NewPoint(1, 1), NewPoint(2, 2)},
		{},
		{NewPoint(5, 7)},
	}
	assert.Equal(t, "[[(1, 1), (2, 2)], [], [(5, 7)]]", ca.String())
	assert.Equal(t, 3, ca.Len())
}

func TestResult_SizeBytes(t *testing.T) {
	r := &Result{
		Initial: CentroidSet{NewPoint(1, 1), NewPoint(2, 2)},
		Final:   CentroidSet{NewPoint(1, 1), NewPoint(4, 5)},
		Clusters: ClusterAssignment{
			{NewPoint(1, 1), NewPoint(2, 2)},
			{NewPoint(3, 4), NewPoint(5, 7), NewPoint(4, 5)},
		},
	}

	// Two sets of two 2-D points plus one slice header per member.
	assert.Equal(t, int64(32+32+5*24), r.SizeBytes())
	assert.Zero(t, (&Result{}).SizeBytes())
}
