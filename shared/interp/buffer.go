// Package interp renders remote entities a fixed delay behind the newest
// snapshot so that a sample on each side of the render time almost always
// exists, trading constant latency for motion that does not snap.
package interp

import (
	"github.com/automoto/doomerang-netcode/shared/gamemath"
	"github.com/automoto/doomerang-netcode/shared/netcomponents"
	"github.com/automoto/doomerang-netcode/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
)

const capacity = netconfig.InterpolationCapacity

// Sample is one authoritative pose stamped with its local capture time.
type Sample struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Time     float64
}

func (s Sample) Pose() netcomponents.Pose {
	return netcomponents.Pose{Position: s.Position, Rotation: s.Rotation}
}

// Buffer is a fixed-capacity FIFO of samples in strictly increasing time
// order. Enqueueing into a full buffer evicts the oldest sample.
type Buffer struct {
	samples [capacity]Sample
	head    int // index of the oldest sample
	count   int
	Delay   float64
}

// NewBuffer returns an empty buffer rendering netconfig.InterpolationDelay behind.
func NewBuffer() *Buffer {
	return &Buffer{Delay: netconfig.InterpolationDelay}
}

// Enqueue appends s. Samples not strictly newer than the newest buffered one
// are rejected so the time ordering invariant always holds.
func (b *Buffer) Enqueue(s Sample) bool {
	if b.count > 0 && s.Time <= b.at(b.count-1).Time {
		return false
	}
	if b.count == capacity {
		b.head = (b.head + 1) % capacity
		b.count--
	}
	b.samples[(b.head+b.count)%capacity] = s
	b.count++
	return true
}

// at returns the i-th oldest sample.
func (b *Buffer) at(i int) Sample {
	return b.samples[(b.head+i)%capacity]
}

// Len returns the number of buffered samples.
func (b *Buffer) Len() int {
	return b.count
}

// Samples returns the buffered samples, oldest first.
func (b *Buffer) Samples() []Sample {
	out := make([]Sample, b.count)
	for i := range out {
		out[i] = b.at(i)
	}
	return out
}

// Latest returns the newest sample.
func (b *Buffer) Latest() (Sample, bool) {
	if b.count == 0 {
		return Sample{}, false
	}
	return b.at(b.count - 1), true
}

// Clear drops every sample.
func (b *Buffer) Clear() {
	b.head, b.count = 0, 0
}

// Resolve returns the pose to render at local time now, i.e. at now - Delay.
func (b *Buffer) Resolve(now float64) (netcomponents.Pose, bool) {
	return b.At(now - b.Delay)
}

// At returns the pose at renderTime. With two or more samples the result is
// interpolated between the pair bracketing renderTime, clamped to the
// buffered span (never extrapolated). With one sample it is returned as is;
// with none the second result is false.
func (b *Buffer) At(renderTime float64) (netcomponents.Pose, bool) {
	if b.count == 0 {
		return netcomponents.Pose{}, false
	}
	if b.count < 2 {
		return b.at(0).Pose(), true
	}

	// from is the newest sample at or before renderTime, to the one after it.
	first, last := b.at(0), b.at(b.count-1)
	if renderTime <= first.Time {
		return first.Pose(), true
	}
	if renderTime >= last.Time {
		return last.Pose(), true
	}
	for i := 1; i < b.count; i++ {
		to := b.at(i)
		if to.Time <= renderTime {
			continue
		}
		from := b.at(i - 1)
		t := gamemath.InverseLerp(from.Time, to.Time, renderTime)
		return netcomponents.LerpPose(from.Pose(), to.Pose(), t), true
	}
	return last.Pose(), true
}
