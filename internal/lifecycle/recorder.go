package lifecycle

import (
	"strings"

	"go.uber.org/zap"
)

// Recorder keeps an ordered trace of construction and destruction lines.
// Each line is also written to the logger at info level.
type Recorder struct {
	log   *zap.Logger
	lines []string
}

// NewRecorder creates a recorder that mirrors lines to log (nil for none).
func NewRecorder(log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{log: log}
}

// Record appends a trace line.
func (r *Recorder) Record(line string) {
	r.lines = append(r.lines, line)
	r.log.Info(line)
}

// Constructed records that name was constructed.
func (r *Recorder) Constructed(name string) {
	r.Record(name + " constructed")
}

// Destructed records that name was destructed.
func (r *Recorder) Destructed(name string) {
	r.Record(name + " destructed")
}

// Lines returns a copy of the trace.
func (r *Recorder) Lines() []string {
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// Count returns how many times line was recorded.
func (r *Recorder) Count(line string) int {
	n := 0
	for _, l := range r.lines {
		if l == line {
			n++
		}
	}
	return n
}

// Destructions returns how many times name was destructed.
func (r *Recorder) Destructions(name string) int {
	return r.Count(name + " destructed")
}

// Reset clears the trace.
func (r *Recorder) Reset() {
	r.lines = r.lines[:0]
}

func (r *Recorder) String() string {
	return strings.Join(r.lines, "\n")
}
