package scalefield

import (
	"time"

	"github.com/rs/zerolog"
)

// ArtifactKind identifies the physical slot an encoded value is written to.
type ArtifactKind string

const (
	ArtifactPoint     ArtifactKind = "point"      // range/point index entry
	ArtifactDocValues ArtifactKind = "doc_values" // sortable column value
	ArtifactStored    ArtifactKind = "stored"     // verbatim stored value
)

func (k ArtifactKind) String() string { return string(k) }

// Artifact is one typed output of the emission pipeline. All artifacts of a
// value carry the same encoded integer; the kind decides where it lands.
type Artifact struct {
	Kind  ArtifactKind
	Field string
	Value int64
}

// Options configures an index instance.
type Options struct {
	Now     func() time.Time
	Logger  zerolog.Logger
	Metrics *Metrics // nil disables instrumentation
}

// DefaultOptions returns sensible defaults: wall-clock time, no logging,
// no metrics.
func DefaultOptions() Options {
	return Options{
		Now:    time.Now,
		Logger: zerolog.Nop(),
	}
}

// DocMeta holds document metadata.
type DocMeta struct {
	CreatedAtMS int64
	UpdatedAtMS int64
}

// DocView is a stored document as read back from the index: per field, the
// encoded integers in insertion order plus their exact decimal rendering.
// Ignored lists the fields whose malformed values were dropped on the way in.
type DocView struct {
	DocID   string
	Fields  map[string]FieldView
	Ignored []string
	Meta    DocMeta
}

// FieldView is the stored content of one field of one document.
type FieldView struct {
	Encoded []int64
	Decoded []string // exact decimal text, encoded/scaling_factor
}

// StatsResult contains aggregated statistics for a field across the index.
type StatsResult struct {
	Field string
	Count uint64
	Min   *float64
	Max   *float64
	Sum   string // exact decimal text
	Avg   string // exact decimal text, empty when Count == 0
}
