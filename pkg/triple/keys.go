package triple

import (
	"github.com/orneryd/muninn/pkg/entity"
)

// CompoundKey derives the primary index key for subject+predicate -> object
// lookups by XOR-folding the two identifiers lanewise.
//
// The fold is deterministic, pure, and O(1), and always produces a
// fixed-width key. It is NOT collision-resistant: two distinct
// (subject, predicate) pairs can in principle fold to the same key. That is
// an accepted risk for internal index addressing - derived keys are not
// content addresses and never cross a trust boundary.
func CompoundKey(subject, predicate entity.E) entity.E {
	return subject.XOR(predicate)
}

// ReverseKey derives the index key for object+predicate -> subject lookups.
// Same fold as CompoundKey with the object taking the subject's position.
func ReverseKey(predicate, object entity.E) entity.E {
	return object.XOR(predicate)
}
