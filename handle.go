package framehistory

// Handle is the producer's claim on a slot returned by Allocate. It stays
// usable until Capacity further allocations recycle the slot, after which
// its methods report ErrStaleHandle.
type Handle struct {
	h         *History
	index     int
	seq       uint64
	timestamp int64
}

// ID returns the slot position, the same value as FrameRecord.ID.
func (hd *Handle) ID() int { return hd.index }

// Timestamp returns the timestamp the slot was allocated with.
func (hd *Handle) Timestamp() int64 { return hd.timestamp }

// Seq returns the allocation number of this handle.
func (hd *Handle) Seq() uint64 { return hd.seq }

// Valid reports whether the slot still belongs to this handle.
func (hd *Handle) Valid() bool {
	return hd.h.slots[hd.index].alloc.Load() == hd.seq
}

// CommitPose writes the hologram pose into the slot.
func (hd *Handle) CommitPose(p Pose) error {
	h := hd.h
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	s := &h.slots[hd.index]
	if s.alloc.Load() != hd.seq {
		h.staleCommits.Add(1)
		h.logger.Errorf("Pose commit for slot %d (allocation %d) arrived after the slot was recycled.", hd.index, hd.seq)
		h.emitEvent(EventStaleCommit, map[string]any{"id": hd.index, "seq": hd.seq})
		return ErrStaleHandle
	}
	s.storePose(p)
	h.commits.Add(1)
	return nil
}

// Record returns a snapshot of the slot as last written through this handle.
func (hd *Handle) Record() (FrameRecord, error) {
	r := hd.h.slots[hd.index].load()
	if r.Seq != hd.seq {
		return FrameRecord{}, ErrStaleHandle
	}
	return r, nil
}
