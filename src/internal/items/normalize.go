package items

import (
	"go4.org/netipx"
)

// Normalize returns the canonical form of a set of the given kind.
//
// Address sets are returned unchanged. Network sets are collapsed into the
// minimal list of CIDR blocks covering exactly the same addresses: overlapping
// blocks are absorbed and adjacent blocks are merged. The result does not depend
// on input ordering and Normalize(Normalize(s)) equals Normalize(s).
func Normalize(kind Kind, s Set) (Set, error) {
	if kind != Network {
		return s, nil
	}

	var builder netipx.IPSetBuilder
	for item := range s {
		builder.AddPrefix(item.Prefix())
	}

	merged, err := builder.IPSet()
	if err != nil {
		return nil, err
	}

	prefixes := merged.Prefixes()
	result := make(Set, len(prefixes))
	for _, p := range prefixes {
		result.Add(NetworkItem(p))
	}
	return result, nil
}
