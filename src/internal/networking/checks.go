package networking

import (
	"fmt"
	"strings"

	"github.com/coreos/go-iptables/iptables"
	"github.com/google/nftables"
	"golang.org/x/sys/unix"

	"github.com/maksimkurb/fw-ipsets/src/internal/config"
)

// iptablesTables are scanned for `-m set --match-set` references.
var iptablesTables = []string{"raw", "mangle", "nat", "filter"}

// IsRoot reports whether the process runs with effective uid 0.
func IsRoot() bool {
	return unix.Geteuid() == 0
}

// IPSetExists reports whether the kernel knows an ipset with this name.
func IPSetExists(name string) bool {
	return ipsetExists(netlinkIPSets{}, name)
}

func ipsetExists(kernel ipsetKernel, name string) bool {
	_, err := kernel.IpsetList(name)
	return err == nil
}

// NFTFamily maps a family keyword to its netlink value.
func NFTFamily(family string) (nftables.TableFamily, error) {
	switch family {
	case "ip":
		return nftables.TableFamilyIPv4, nil
	case "ip6":
		return nftables.TableFamilyIPv6, nil
	case "inet":
		return nftables.TableFamilyINet, nil
	case "arp":
		return nftables.TableFamilyARP, nil
	case "bridge":
		return nftables.TableFamilyBridge, nil
	case "netdev":
		return nftables.TableFamilyNetdev, nil
	default:
		return nftables.TableFamilyUnspecified, fmt.Errorf("unknown nftables family %q", family)
	}
}

// NFTSetStatus is the result of looking up a set over netlink.
type NFTSetStatus struct {
	TableExists bool
	SetExists   bool
}

// LookupNFTSet checks that the table of def exists and whether the set is declared in it.
func LookupNFTSet(def *config.SetDefinition) (NFTSetStatus, error) {
	var status NFTSetStatus

	family, err := NFTFamily(def.GetFamily())
	if err != nil {
		return status, err
	}

	conn, err := nftables.New()
	if err != nil {
		return status, fmt.Errorf("failed to open nftables connection: %w", err)
	}

	tables, err := conn.ListTablesOfFamily(family)
	if err != nil {
		return status, fmt.Errorf("failed to list nftables tables: %w", err)
	}

	var table *nftables.Table
	for _, t := range tables {
		if t.Name == def.Table {
			table = t
			break
		}
	}
	if table == nil {
		return status, nil
	}
	status.TableExists = true

	// GetSetByName fails for a missing set.
	if _, err := conn.GetSetByName(table, def.Name); err == nil {
		status.SetExists = true
	}
	return status, nil
}

// FindIPTablesReferences lists the iptables rules that match against the named ipset.
func FindIPTablesReferences(setName string, ipVersion config.IPFamily) ([]string, error) {
	protocol := iptables.ProtocolIPv4
	if ipVersion == config.Ipv6 {
		protocol = iptables.ProtocolIPv6
	}

	ipt, err := iptables.NewWithProtocol(protocol)
	if err != nil {
		return nil, err
	}

	var refs []string
	for _, table := range iptablesTables {
		chains, err := ipt.ListChains(table)
		if err != nil {
			// Table not available on this kernel.
			continue
		}
		for _, chain := range chains {
			rules, err := ipt.List(table, chain)
			if err != nil {
				return nil, fmt.Errorf("failed to list %s/%s: %w", table, chain, err)
			}
			for _, rule := range rules {
				if RuleReferencesSet(rule, setName) {
					refs = append(refs, fmt.Sprintf("-t %s %s", table, rule))
				}
			}
		}
	}
	return refs, nil
}

// RuleReferencesSet reports whether an iptables rule spec matches against setName.
func RuleReferencesSet(rule, setName string) bool {
	fields := strings.Fields(rule)
	for i := 0; i+1 < len(fields); i++ {
		if fields[i] == "--match-set" && fields[i+1] == setName {
			return true
		}
	}
	return false
}
