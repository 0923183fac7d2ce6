// Package triple models (subject, predicate, object) facts and the derived
// artifacts the indexing client writes: compound and reverse index keys and
// the cached SHA-256 content hash.
//
// Every component of a triple is a 256-bit entity identifier. A Record adds
// free-form provenance, a schema version tag, and a creation timestamp, and
// round-trips exactly through its canonical JSON wire form.
package triple

import (
	"encoding/json"
	"time"

	"github.com/orneryd/muninn/pkg/entity"
)

// SchemaVersion is the current wire schema tag for records.
const SchemaVersion = "v1"

// Record is a complete triple ready for indexing, with provenance.
//
// A Record is created once per input triple and consumed once by the
// indexing client; it is not mutated after construction (except for
// provenance tagging at build time, before the record is handed off).
type Record struct {
	Subject   entity.E
	Predicate entity.E
	Object    entity.E

	// Provenance carries free-form metadata about where the fact came from
	// (factoid id, extraction scores, content hash, ...).
	Provenance map[string]any

	SchemaVersion string

	// CreatedAt is epoch seconds.
	CreatedAt int64
}

// NewRecord builds a Record with the current timestamp and schema version.
// A nil provenance map is replaced by an empty one.
func NewRecord(subject, predicate, object entity.E, provenance map[string]any) *Record {
	if provenance == nil {
		provenance = map[string]any{}
	}
	return &Record{
		Subject:       subject,
		Predicate:     predicate,
		Object:        object,
		Provenance:    provenance,
		SchemaVersion: SchemaVersion,
		CreatedAt:     time.Now().Unix(),
	}
}

// wireLanes is the per-entity lane mapping used on the wire. The encoder
// always emits all four lanes, zero or not.
//
// Missing high_mid/low_mid decode as 0 for compatibility with legacy
// 128-bit identifiers that only carried high and low.
type wireLanes struct {
	High    uint64 `json:"high"`
	HighMid uint64 `json:"high_mid"`
	LowMid  uint64 `json:"low_mid"`
	Low     uint64 `json:"low"`
}

func lanesOf(e entity.E) wireLanes {
	return wireLanes{High: e.High(), HighMid: e.HighMid(), LowMid: e.LowMid(), Low: e.Low()}
}

func (w wireLanes) entity() entity.E {
	return entity.FromLanes(w.High, w.HighMid, w.LowMid, w.Low)
}

type wireRecord struct {
	Subject       wireLanes      `json:"subject"`
	Predicate     wireLanes      `json:"predicate"`
	Object        wireLanes      `json:"object"`
	Provenance    map[string]any `json:"provenance"`
	SchemaVersion string         `json:"schema_version"`
	CreatedAt     int64          `json:"created_at"`
}

// MarshalJSON encodes the canonical wire form, retaining per-entity lane
// fields.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireRecord{
		Subject:       lanesOf(r.Subject),
		Predicate:     lanesOf(r.Predicate),
		Object:        lanesOf(r.Object),
		Provenance:    r.Provenance,
		SchemaVersion: r.SchemaVersion,
		CreatedAt:     r.CreatedAt,
	})
}

// UnmarshalJSON decodes the canonical wire form. Missing high_mid/low_mid
// lanes default to 0; a missing schema_version defaults to "v1".
func (r *Record) UnmarshalJSON(data []byte) error {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.Subject = w.Subject.entity()
	r.Predicate = w.Predicate.entity()
	r.Object = w.Object.entity()
	r.Provenance = w.Provenance
	if r.Provenance == nil {
		r.Provenance = map[string]any{}
	}
	r.SchemaVersion = w.SchemaVersion
	if r.SchemaVersion == "" {
		r.SchemaVersion = SchemaVersion
	}
	r.CreatedAt = w.CreatedAt
	return nil
}
