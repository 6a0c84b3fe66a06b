package framehistory

import "math"

// cadenceMonitor tracks the spacing of allocation timestamps so callers can
// tell a stalled or jittery producer apart from a healthy one. It keeps a
// fixed window of the last Capacity intervals with running sums, so adding a
// sample and reading the stats are both constant time and never allocate.
type cadenceMonitor struct {
	last    int64
	hasLast bool
	deltas  [Capacity]float64
	count   int
	pos     int
	sum     float64
	sumSq   float64
}

// addTimestamp records the interval from the previous timestamp. Backwards
// steps are not intervals and only move the reference point.
func (cm *cadenceMonitor) addTimestamp(ts int64) {
	if cm.hasLast && ts >= cm.last {
		d := float64(ts - cm.last)
		if cm.count == len(cm.deltas) {
			old := cm.deltas[cm.pos]
			cm.sum -= old
			cm.sumSq -= old * old
		} else {
			cm.count++
		}
		cm.deltas[cm.pos] = d
		cm.sum += d
		cm.sumSq += d * d
		cm.pos = (cm.pos + 1) % len(cm.deltas)
	}
	cm.last = ts
	cm.hasLast = true
}

// stats returns the mean interval and its standard deviation in ticks.
func (cm *cadenceMonitor) stats() (mean, stdDev float64) {
	if cm.count == 0 {
		return 0, 0
	}
	n := float64(cm.count)
	mean = cm.sum / n
	variance := cm.sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}
