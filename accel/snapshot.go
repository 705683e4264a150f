package accel

import (
	"fmt"
)

// SnapshotFormat renders a RawSample as a single text record. Layout carries one
// integer verb per frame field and ends with a newline.
type SnapshotFormat struct {
	Layout string
	MaxLen int
}

func (f SnapshotFormat) Render(sample RawSample) []byte {
	args := make([]any, len(sample))
	for i, v := range sample {
		args[i] = v
	}
	out := fmt.Appendf(nil, f.Layout, args...)
	if f.MaxLen > 0 && len(out) > f.MaxLen {
		out = out[:f.MaxLen]
	}
	return out
}
