/*
Package framehistory correlates rendered hologram poses with externally captured
video frames for augmented-reality compositing.

A History is a fixed-size ring of Capacity frame records. The render or tracking
side allocates one record per produced hologram frame and commits its pose; the
video side asks, for every captured frame, which hologram was rendered closest
to the capture time once the pipeline latency is accounted for.

# Key Features

  - Fixed Storage: All Capacity records are allocated by New. Allocate and
    FindClosest never allocate, and the oldest record is silently overwritten
    once the ring is full.
  - Latency Compensation: FindClosest adds a caller-supplied offset to every
    stored timestamp before comparing it with the query, so camera and render
    latency can be tuned without touching the producer.
  - Recency Tie-Break: Among equally near records the most recently allocated
    one wins.
  - Safe Handles: Allocate returns a Handle rather than a pointer into the
    ring. A handle whose slot has been recycled reports ErrStaleHandle instead
    of silently writing into a newer frame.
  - Lock-Free Reads: Lookups never block the producer and never observe a
    half-written record.
  - Observability: Exposes a Metrics snapshot, a structured event stream, an
    injectable Logger and a Prometheus Collector.

# Basic Usage

	h := framehistory.New(framehistory.WithLogger(framehistory.NewSlogLogger(nil)))

	// Render thread, once per hologram frame.
	frame := h.Allocate(renderTicks)
	_ = frame.CommitPose(framehistory.Pose{
		Position: framehistory.Vec3{X: x, Y: y, Z: z},
		Rotation: framehistory.Quat{X: qx, Y: qy, Z: qz, W: qw},
	})

	// Video capture callback, once per video frame.
	rec, err := h.FindClosest(captureTicks, latencyTicks)
	if errors.Is(err, framehistory.ErrNotFound) {
		return // nothing rendered yet, skip the overlay
	}
	if rec.Distance(captureTicks, latencyTicks) > maxSkew {
		return // producer stalled
	}
	overlay(rec.ID, rec.Pose)
*/
package framehistory
