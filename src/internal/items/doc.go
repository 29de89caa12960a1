// Package items implements the backend-agnostic set member model.
//
// An Item is either a single host address or a CIDR network. Items are
// comparable values, so a Set is a plain map keyed by Item. Network sets are
// normalized into the minimal list of CIDR blocks covering the same address
// space, which keeps kernel listings and source files comparable regardless
// of overlapping or adjacent entries.
package items
