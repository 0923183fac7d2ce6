package triple

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/orneryd/muninn/pkg/entity"
)

// Candidate is one scored predicate suggestion from the upstream
// text-to-triple pipeline.
//
// PredicateCID is accepted in two forms: a literal identifier string, which
// is hashed deterministically, or a JSON-encoded 4-lane entity object
// ({"high":..,"high_mid":..,"low_mid":..,"low":..}). Anything that is not
// valid JSON falls back to string hashing.
type Candidate struct {
	PredicateCID string  `json:"predicate_cid"`
	Score        float64 `json:"score"`
	Label        string  `json:"label"`
}

// Predicate resolves the candidate's predicate identifier.
func (c Candidate) Predicate() entity.E {
	cid := c.PredicateCID
	if strings.HasPrefix(cid, "{") {
		var lanes wireLanes
		if err := json.Unmarshal([]byte(cid), &lanes); err == nil {
			return lanes.entity()
		}
	}
	return entity.FromString(cid)
}

// FromCandidates converts a factoid plus its predicate candidates into
// records ready for indexing.
//
// Each usable candidate yields one record whose provenance carries the
// factoid id and text, the candidate's score and label, and the record's
// content hash (hex and entity form). Candidates with an empty
// predicate_cid are skipped.
func FromCandidates(factoidText, factoidID string, candidates []Candidate) []*Record {
	subject := entity.FromString(fmt.Sprintf("subject_%s", factoidID))

	records := make([]*Record, 0, len(candidates))
	for _, cand := range candidates {
		if cand.PredicateCID == "" {
			continue
		}
		predicate := cand.Predicate()

		label := cand.Label
		if label == "" {
			label = "unknown"
		}
		object := entity.FromString(fmt.Sprintf("object_%s_%s", factoidID, label))

		rec := NewRecord(subject, predicate, object, map[string]any{
			"factoid_id":      factoidID,
			"factoid_text":    factoidText,
			"predicate_score": cand.Score,
			"predicate_label": cand.Label,
		})

		hexDigest, hashEntity := Hash(rec)
		rec.Provenance["triple_hash"] = hexDigest
		rec.Provenance["triple_hash_e"] = hashEntity.Hex()

		records = append(records, rec)
	}
	return records
}
