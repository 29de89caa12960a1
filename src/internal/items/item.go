package items

import (
	"fmt"
	"net/netip"
	"strings"
)

// Kind selects the Item variant stored in a set.
type Kind string

const (
	// Address sets hold single host addresses (ipset hash:ip, flat nft sets).
	Address Kind = "ip"
	// Network sets hold CIDR blocks (ipset hash:net, interval nft sets).
	Network Kind = "net"
)

func (k Kind) String() string {
	switch k {
	case Address:
		return "address"
	case Network:
		return "network"
	default:
		return fmt.Sprintf("unknown(%s)", string(k))
	}
}

// IsValid reports whether k is one of the known kinds.
func (k Kind) IsValid() bool {
	return k == Address || k == Network
}

// Item is a single set member. The zero value is invalid.
type Item struct {
	prefix netip.Prefix
	kind   Kind
}

// AddressItem returns an Address item for addr.
func AddressItem(addr netip.Addr) Item {
	addr = addr.Unmap()
	return Item{prefix: netip.PrefixFrom(addr, addr.BitLen()), kind: Address}
}

// NetworkItem returns a Network item for p with host bits cleared. A 4-in-6
// prefix is unmapped only when it lies entirely inside ::ffff:0:0/96.
func NetworkItem(p netip.Prefix) Item {
	if p.Addr().Is4In6() && p.Bits() >= 96 {
		p = netip.PrefixFrom(p.Addr().Unmap(), p.Bits()-96)
	}
	return Item{prefix: p.Masked(), kind: Network}
}

// Parse converts a textual item into an Item of the given kind.
//
// Address accepts a bare address only. Network accepts "addr/len" (host bits
// are masked) or a bare address, which denotes a full-length prefix.
func Parse(kind Kind, text string) (Item, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Item{}, fmt.Errorf("empty item")
	}

	switch kind {
	case Address:
		if strings.Contains(text, "/") {
			return Item{}, fmt.Errorf("address set item %q must not have a prefix length", text)
		}
		addr, err := netip.ParseAddr(text)
		if err != nil {
			return Item{}, err
		}
		if addr.Zone() != "" {
			return Item{}, fmt.Errorf("address %q must not have a zone", text)
		}
		return AddressItem(addr), nil
	case Network:
		if !strings.Contains(text, "/") {
			addr, err := netip.ParseAddr(text)
			if err != nil {
				return Item{}, err
			}
			if addr.Zone() != "" {
				return Item{}, fmt.Errorf("address %q must not have a zone", text)
			}
			addr = addr.Unmap()
			return NetworkItem(netip.PrefixFrom(addr, addr.BitLen())), nil
		}
		p, err := netip.ParsePrefix(text)
		if err != nil {
			return Item{}, err
		}
		if p.Addr().Is4In6() && p.Bits() < 96 {
			return Item{}, fmt.Errorf("IPv4-mapped network %q is shorter than /96", text)
		}
		return NetworkItem(p), nil
	default:
		return Item{}, fmt.Errorf("unknown item kind %q", string(kind))
	}
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(kind Kind, text string) Item {
	item, err := Parse(kind, text)
	if err != nil {
		panic(err)
	}
	return item
}

// Kind returns the variant of the item.
func (i Item) Kind() Kind {
	return i.kind
}

// Prefix returns the item as a prefix. Address items have a full-length prefix.
func (i Item) Prefix() netip.Prefix {
	return i.prefix
}

// Addr returns the address (network address for Network items).
func (i Item) Addr() netip.Addr {
	return i.prefix.Addr()
}

// IsValid reports whether the item was produced by a constructor.
func (i Item) IsValid() bool {
	return i.kind.IsValid() && i.prefix.IsValid()
}

// Is4 reports whether the item is an IPv4 address or network.
func (i Item) Is4() bool {
	return i.prefix.Addr().Is4()
}

// Is6 reports whether the item is an IPv6 address or network.
func (i Item) Is6() bool {
	return i.prefix.Addr().Is6()
}

// String returns the canonical form understood by both ipset and nft:
// a bare address for Address items and "addr/len" for Network items.
func (i Item) String() string {
	if !i.IsValid() {
		return "invalid item"
	}
	if i.kind == Address {
		return i.prefix.Addr().String()
	}
	return i.prefix.String()
}

// compare orders items by address, then prefix length.
func (i Item) compare(o Item) int {
	if c := i.prefix.Addr().Compare(o.prefix.Addr()); c != 0 {
		return c
	}
	switch {
	case i.prefix.Bits() < o.prefix.Bits():
		return -1
	case i.prefix.Bits() > o.prefix.Bits():
		return 1
	}
	return strings.Compare(string(i.kind), string(o.kind))
}
