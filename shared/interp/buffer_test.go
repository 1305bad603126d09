package interp

import (
	"math"
	"testing"

	"github.com/automoto/doomerang-netcode/shared/gamemath"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAt(time, x, yaw float64) Sample {
	return Sample{
		Position: mgl64.Vec3{x, 0, 0},
		Rotation: gamemath.QuatFromYaw(yaw),
		Time:     time,
	}
}

func TestBuffer_BoundedFIFO(t *testing.T) {
	b := NewBuffer()
	for i := 0; i < capacity+1; i++ {
		require.True(t, b.Enqueue(sampleAt(float64(i), float64(i), 0)))
	}

	assert.Equal(t, capacity, b.Len())
	samples := b.Samples()
	assert.Equal(t, 1.0, samples[0].Time, "oldest sample evicted")
	latest, ok := b.Latest()
	require.True(t, ok)
	assert.Equal(t, float64(capacity), latest.Time)
}

func TestBuffer_RejectsNonIncreasingTime(t *testing.T) {
	b := NewBuffer()
	require.True(t, b.Enqueue(sampleAt(1, 0, 0)))
	assert.False(t, b.Enqueue(sampleAt(1, 5, 0)))
	assert.False(t, b.Enqueue(sampleAt(0.5, 5, 0)))
	assert.Equal(t, 1, b.Len())
}

func TestBuffer_InterpolatesBracketingPair(t *testing.T) {
	b := NewBuffer()
	b.Enqueue(sampleAt(0.0, 0, 0))
	b.Enqueue(sampleAt(0.1, 1, 0))
	b.Enqueue(sampleAt(0.2, 3, math.Pi/2))

	pose, ok := b.At(0.15)
	require.True(t, ok)
	assert.InDelta(t, 2.0, pose.Position.X(), 1e-9)
	assert.InDelta(t, math.Pi/4, gamemath.YawFromQuat(pose.Rotation), 1e-9)

	// Resolve renders Delay behind now.
	viaResolve, ok := b.Resolve(0.15 + b.Delay)
	require.True(t, ok)
	assert.InDelta(t, pose.Position.X(), viaResolve.Position.X(), 1e-9)
}

func TestBuffer_ExactSampleTime(t *testing.T) {
	b := NewBuffer()
	b.Enqueue(sampleAt(0.0, 0, 0))
	b.Enqueue(sampleAt(0.1, 1, 0))
	b.Enqueue(sampleAt(0.2, 3, 0))

	pose, ok := b.At(0.1)
	require.True(t, ok)
	assert.InDelta(t, 1.0, pose.Position.X(), 1e-9)
}

func TestBuffer_ClampsOutsideSpan(t *testing.T) {
	b := NewBuffer()
	b.Enqueue(sampleAt(1, 10, 0))
	b.Enqueue(sampleAt(2, 20, 0))

	before, _ := b.At(0)
	after, _ := b.At(5)
	assert.Equal(t, 10.0, before.Position.X())
	assert.Equal(t, 20.0, after.Position.X())
}

func TestBuffer_Underrun(t *testing.T) {
	b := NewBuffer()
	_, ok := b.At(1)
	assert.False(t, ok)

	b.Enqueue(sampleAt(1, 7, 0))
	pose, ok := b.At(100)
	require.True(t, ok)
	assert.Equal(t, 7.0, pose.Position.X())
}

func TestBuffer_Convexity(t *testing.T) {
	b := NewBuffer()
	xs := []float64{0, 4, -2, 9, 9, 1}
	for i, x := range xs {
		b.Enqueue(sampleAt(float64(i)*0.1, x, 0))
	}

	for rt := -0.05; rt < 0.6; rt += 0.013 {
		pose, ok := b.At(rt)
		require.True(t, ok)
		lo, hi := bracket(b, rt)
		assert.GreaterOrEqual(t, pose.Position.X(), math.Min(lo, hi)-1e-9)
		assert.LessOrEqual(t, pose.Position.X(), math.Max(lo, hi)+1e-9)
	}
}

// bracket returns the x of the samples around rt, clamped to the span.
func bracket(b *Buffer, rt float64) (float64, float64) {
	s := b.Samples()
	if rt <= s[0].Time {
		return s[0].Position.X(), s[0].Position.X()
	}
	for i := 1; i < len(s); i++ {
		if s[i].Time > rt {
			return s[i-1].Position.X(), s[i].Position.X()
		}
	}
	last := s[len(s)-1].Position.X()
	return last, last
}

func TestBuffer_Clear(t *testing.T) {
	b := NewBuffer()
	b.Enqueue(sampleAt(1, 1, 0))
	b.Clear()
	assert.Equal(t, 0, b.Len())
	assert.True(t, b.Enqueue(sampleAt(0.5, 1, 0)))
}
