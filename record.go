package framehistory

import (
	"math"
	"runtime"
	"sync/atomic"
)

// Vec3 is a position in world space.
type Vec3 struct {
	X, Y, Z float32
}

// Quat is a rotation quaternion.
type Quat struct {
	X, Y, Z, W float32
}

// Pose is the 6-DoF world pose of a hologram at its render timestamp.
type Pose struct {
	Position Vec3
	Rotation Quat
}

// IdentityPose returns a pose at the origin with no rotation.
func IdentityPose() Pose {
	return Pose{Rotation: Quat{W: 1}}
}

// FrameRecord is a snapshot of one slot of the history. Records handed out by
// the History are copies; mutating them never affects the buffer.
type FrameRecord struct {
	// ID is the slot position in the ring, always in [0, Capacity).
	ID int
	// Timestamp is the render timestamp in ticks, or InvalidTimestamp.
	Timestamp int64
	Pose      Pose
	// Seq is the 1-based allocation number that produced this record. Larger
	// values are more recent, across any number of wraparounds.
	Seq uint64
	// Committed is false until the producer commits a pose through its
	// Handle. Until then Pose is IdentityPose and carries no tracking data.
	Committed bool
}

// Filled reports whether the record holds a written timestamp.
func (r FrameRecord) Filled() bool {
	return r.Timestamp != InvalidTimestamp
}

// Distance returns |Timestamp+offset-query| in ticks. The effective timestamp
// saturates at the int64 range instead of wrapping. Callers that want to
// reject stale matches compare this against their own threshold.
func (r FrameRecord) Distance(query, offset int64) uint64 {
	return absDiff(saturatingAdd(r.Timestamp, offset), query)
}

func saturatingAdd(a, b int64) int64 {
	sum := a + b
	switch {
	case b > 0 && sum < a:
		return math.MaxInt64
	case b < 0 && sum > a:
		return math.MinInt64
	}
	return sum
}

func absDiff(a, b int64) uint64 {
	if a >= b {
		return uint64(a) - uint64(b)
	}
	return uint64(b) - uint64(a)
}

// slot is one ring entry. Every field is an atomic so lock-free readers never
// race with the writer; seq is odd while a write is in progress and readers
// retry until they observe the same even value before and after their loads.
type slot struct {
	seq       atomic.Uint64
	alloc     atomic.Uint64
	id        atomic.Int32
	timestamp atomic.Int64
	committed atomic.Bool
	pose      [7]atomic.Uint32
}

func (s *slot) reset(id int) {
	s.id.Store(int32(id))
	s.timestamp.Store(InvalidTimestamp)
	s.storePoseFields(IdentityPose())
}

// store overwrites the whole slot and leaves it uncommitted. Callers hold the
// history's write lock.
func (s *slot) store(id int, timestamp int64, alloc uint64, p Pose) {
	s.seq.Add(1)
	s.id.Store(int32(id))
	s.alloc.Store(alloc)
	s.committed.Store(false)
	s.storePoseFields(p)
	s.timestamp.Store(timestamp)
	s.seq.Add(1)
}

// storePose replaces only the pose and marks the slot committed. Callers hold
// the history's write lock.
func (s *slot) storePose(p Pose) {
	s.seq.Add(1)
	s.storePoseFields(p)
	s.committed.Store(true)
	s.seq.Add(1)
}

func (s *slot) storePoseFields(p Pose) {
	s.pose[0].Store(math.Float32bits(p.Position.X))
	s.pose[1].Store(math.Float32bits(p.Position.Y))
	s.pose[2].Store(math.Float32bits(p.Position.Z))
	s.pose[3].Store(math.Float32bits(p.Rotation.X))
	s.pose[4].Store(math.Float32bits(p.Rotation.Y))
	s.pose[5].Store(math.Float32bits(p.Rotation.Z))
	s.pose[6].Store(math.Float32bits(p.Rotation.W))
}

func (s *slot) loadPoseFields() Pose {
	return Pose{
		Position: Vec3{
			X: math.Float32frombits(s.pose[0].Load()),
			Y: math.Float32frombits(s.pose[1].Load()),
			Z: math.Float32frombits(s.pose[2].Load()),
		},
		Rotation: Quat{
			X: math.Float32frombits(s.pose[3].Load()),
			Y: math.Float32frombits(s.pose[4].Load()),
			Z: math.Float32frombits(s.pose[5].Load()),
			W: math.Float32frombits(s.pose[6].Load()),
		},
	}
}

// load returns a consistent snapshot of the slot.
func (s *slot) load() FrameRecord {
	for {
		before := s.seq.Load()
		if before&1 == 1 {
			runtime.Gosched()
			continue
		}
		r := FrameRecord{
			ID:        int(s.id.Load()),
			Timestamp: s.timestamp.Load(),
			Pose:      s.loadPoseFields(),
			Seq:       s.alloc.Load(),
			Committed: s.committed.Load(),
		}
		if s.seq.Load() == before {
			return r
		}
	}
}
