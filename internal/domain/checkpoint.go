package domain

// Checkpoint offsets in elapsed minutes.
// Minute m is recorded at candle index m-1 and only when the series has at least m candles.
const (
	Minute5   = 5
	Minute10  = 10
	Minute15  = 15
	Minute30  = 30
	Minute60  = 60
	Minute120 = 120
)

// CheckpointMinutes lists all checkpoint offsets in ascending order.
var CheckpointMinutes = [6]int{Minute5, Minute10, Minute15, Minute30, Minute60, Minute120}

// CheckpointValue is a single checkpoint slot.
// Set is false when the series was too short to reach the offset.
type CheckpointValue struct {
	Value float64
	Set   bool
}

// CheckpointSet maps the fixed offsets to values, in CheckpointMinutes order.
type CheckpointSet [6]CheckpointValue

// At returns the slot for the given minute offset.
// Unknown offsets return an unset slot.
func (s CheckpointSet) At(minute int) CheckpointValue {
	for i, m := range CheckpointMinutes {
		if m == minute {
			return s[i]
		}
	}
	return CheckpointValue{}
}

// Value returns the value at minute, or 0 when unset.
func (s CheckpointSet) Value(minute int) float64 {
	return s.At(minute).Value
}

// Has reports whether the offset was reached.
func (s CheckpointSet) Has(minute int) bool {
	return s.At(minute).Set
}
