package networking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/vishvananda/netlink"

	"github.com/maksimkurb/fw-ipsets/src/internal/config"
	"github.com/maksimkurb/fw-ipsets/src/internal/domain"
	"github.com/maksimkurb/fw-ipsets/src/internal/errors"
	"github.com/maksimkurb/fw-ipsets/src/internal/items"
	"github.com/maksimkurb/fw-ipsets/src/internal/log"
)

const ipsetCommand = "ipset"

var _ domain.SetBackend = (*IPSetBackend)(nil)

// ipsetKernel is the part of the netlink ipset API used to find and drop leftover temp sets.
type ipsetKernel interface {
	IpsetList(name string) (*netlink.IPSetResult, error)
	IpsetDestroy(name string) error
}

type netlinkIPSets struct{}

func (netlinkIPSets) IpsetList(name string) (*netlink.IPSetResult, error) {
	return netlink.IpsetList(name)
}

func (netlinkIPSets) IpsetDestroy(name string) error {
	return netlink.IpsetDestroy(name)
}

// IPSetBackend stores sets in the kernel ipset subsystem.
//
// Membership is replaced by filling a temp set and swapping it with the live
// one inside a single `ipset restore` transaction.
type IPSetBackend struct {
	runner     CommandRunner
	kernel     ipsetKernel
	tempSuffix string
}

// NewIPSetBackend creates an ipset backend that builds swap sets named <name><tempSuffix>.
func NewIPSetBackend(runner CommandRunner, tempSuffix string) *IPSetBackend {
	return &IPSetBackend{
		runner:     runner,
		kernel:     netlinkIPSets{},
		tempSuffix: tempSuffix,
	}
}

// EnsureTarget creates the set if missing and removes a temp set left by an interrupted swap.
func (b *IPSetBackend) EnsureTarget(ctx context.Context, def *config.SetDefinition) error {
	args := append([]string{"-exist", "create", def.Name}, ipsetCreateOptions(def)...)
	if _, err := b.runner.Run(ctx, ipsetCommand, args...); err != nil {
		return errors.NewBackendCommandError(fmt.Sprintf("failed to create ipset %s", def.Name), err)
	}

	b.sweepOrphan(def.TempName(b.tempSuffix))
	return nil
}

func (b *IPSetBackend) sweepOrphan(tempName string) {
	if b.kernel == nil {
		return
	}

	// Any lookup error is taken as "no such set".
	if _, err := b.kernel.IpsetList(tempName); err != nil {
		return
	}

	log.Warnf("Destroying leftover temporary ipset %s", tempName)
	if err := b.kernel.IpsetDestroy(tempName); err != nil {
		log.Warnf("Failed to destroy leftover ipset %s: %v", tempName, err)
	}
}

// ReadCurrent parses `ipset -o json list <name>`.
func (b *IPSetBackend) ReadCurrent(ctx context.Context, def *config.SetDefinition) (items.Set, error) {
	out, err := b.runner.Output(ctx, ipsetCommand, "-o", "json", "list", def.Name)
	if err != nil {
		return nil, errors.NewBackendCommandError(fmt.Sprintf("failed to list ipset %s", def.Name), err)
	}
	return ParseIPSetListing(out, def.Type)
}

// ReplaceAll rebuilds the set from desired and swaps it in atomically.
func (b *IPSetBackend) ReplaceAll(ctx context.Context, def *config.SetDefinition, desired items.Set) error {
	script := BuildIPSetRestoreScript(def, b.tempSuffix, desired)
	if err := runScript(ctx, b.runner, "fw-ipsets-*.ipset", script, ipsetCommand, "restore", "-f"); err != nil {
		return errors.NewBackendCommandError(fmt.Sprintf("failed to restore ipset %s", def.Name), err)
	}
	return nil
}

type ipsetListEntry struct {
	Name    string `json:"name"`
	Members []struct {
		Elem string `json:"elem"`
	} `json:"members"`
}

// ParseIPSetListing extracts the members of the first set in ipset's JSON output.
func ParseIPSetListing(data []byte, kind items.Kind) (items.Set, error) {
	var listing []ipsetListEntry
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, errors.NewBackendParseError("ipset returned malformed JSON", err)
	}
	if len(listing) == 0 {
		return nil, errors.NewBackendParseError("ipset didn't return any set", nil)
	}

	result := items.NewSet()
	for _, member := range listing[0].Members {
		item, err := items.Parse(kind, member.Elem)
		if err != nil {
			return nil, errors.NewBackendParseError(fmt.Sprintf("unexpected member %q of ipset %s", member.Elem, listing[0].Name), err)
		}
		result.Add(item)
	}
	return result, nil
}

// BuildIPSetRestoreScript renders the create/add/swap/destroy transaction for `ipset restore`.
func BuildIPSetRestoreScript(def *config.SetDefinition, tempSuffix string, desired items.Set) []byte {
	tempName := def.TempName(tempSuffix)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "create %s %s\n", tempName, strings.Join(ipsetCreateOptions(def), " "))
	for _, item := range desired.Sorted() {
		fmt.Fprintf(&buf, "add %s %s\n", tempName, item)
	}
	fmt.Fprintf(&buf, "swap %s %s\n", tempName, def.Name)
	fmt.Fprintf(&buf, "destroy %s\n", tempName)
	return buf.Bytes()
}

// ipsetCreateOptions returns the set type and creation options shared by the live and temp sets.
// Swapping requires both to have the same type and family.
func ipsetCreateOptions(def *config.SetDefinition) []string {
	opts := []string{ipsetType(def.Type)}
	if def.GetIPVersion() == config.Ipv6 && !slices.Contains(def.KernelOpts, "family") {
		opts = append(opts, "family", "inet6")
	}
	return append(opts, def.KernelOpts...)
}

func ipsetType(kind items.Kind) string {
	if kind == items.Network {
		return "hash:net"
	}
	return "hash:ip"
}
