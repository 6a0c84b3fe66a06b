package framehistory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingLogger keeps error messages for tests that expect them.
type recordingLogger struct {
	errors []string
}

func (l *recordingLogger) Debugf(format string, args ...any) {}
func (l *recordingLogger) Infof(format string, args ...any)  {}
func (l *recordingLogger) Errorf(format string, args ...any) {
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

func TestHandleCommitPose(t *testing.T) {
	h := New()
	hd := h.Allocate(1000)
	assert.Equal(t, 0, hd.ID())
	assert.Equal(t, int64(1000), hd.Timestamp())

	rec, err := hd.Record()
	require.NoError(t, err)
	assert.Equal(t, IdentityPose(), rec.Pose)
	assert.False(t, rec.Committed)

	pose := Pose{
		Position: Vec3{X: 0.5, Y: 1.25, Z: -2},
		Rotation: Quat{X: 0, Y: 0.7071, Z: 0, W: 0.7071},
	}
	require.NoError(t, hd.CommitPose(pose))

	rec, err = hd.Record()
	require.NoError(t, err)
	assert.Equal(t, pose, rec.Pose)
	assert.True(t, rec.Committed)
	assert.Equal(t, int64(1000), rec.Timestamp)

	found, err := h.FindClosest(1003, 0)
	require.NoError(t, err)
	assert.Equal(t, rec, found)
	assert.Equal(t, uint64(1), h.Metrics().Commits)
}

func TestHandleGoesStaleAfterWraparound(t *testing.T) {
	eventCh := make(chan Event, 8)
	logger := &recordingLogger{}
	h := New(WithEventChannel(eventCh), WithLogger(logger))
	hd := h.Allocate(0)

	for i := 1; i < Capacity; i++ {
		h.Allocate(int64(i))
	}
	require.True(t, hd.Valid(), "slot is only recycled by the allocation after a full lap")
	require.NoError(t, hd.CommitPose(IdentityPose()))

	h.Allocate(Capacity)
	assert.False(t, hd.Valid())
	assert.ErrorIs(t, hd.CommitPose(Pose{Position: Vec3{X: 9}}), ErrStaleHandle)
	_, err := hd.Record()
	assert.ErrorIs(t, err, ErrStaleHandle)

	// The stale commit must not have touched the new frame.
	rec, err := h.FindClosest(Capacity, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(Capacity), rec.Timestamp)
	assert.Equal(t, IdentityPose(), rec.Pose)
	assert.False(t, rec.Committed)

	m := h.Metrics()
	assert.Equal(t, uint64(1), m.StaleCommits)
	assert.Equal(t, uint64(1), m.Commits)
	require.Len(t, logger.errors, 1)
	assert.Contains(t, logger.errors[0], "arrived after the slot was recycled")

	close(eventCh)
	var stale *Event
	for e := range eventCh {
		if e.Type == EventStaleCommit {
			e := e
			stale = &e
		}
	}
	require.NotNil(t, stale)
	assert.Equal(t, 0, stale.Metadata["id"])
	assert.Equal(t, uint64(1), stale.Metadata["seq"])
}

func TestReturnedRecordIsACopy(t *testing.T) {
	h := New()
	require.NoError(t, h.Allocate(10).CommitPose(Pose{Position: Vec3{X: 1}}))

	rec, err := h.FindClosest(10, 0)
	require.NoError(t, err)
	rec.Pose.Position.X = 42
	rec.Timestamp = 99

	again, err := h.FindClosest(10, 0)
	require.NoError(t, err)
	assert.Equal(t, float32(1), again.Pose.Position.X)
	assert.Equal(t, int64(10), again.Timestamp)
}
