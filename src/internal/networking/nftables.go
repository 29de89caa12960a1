package networking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/valyala/fasttemplate"

	"github.com/maksimkurb/fw-ipsets/src/internal/config"
	"github.com/maksimkurb/fw-ipsets/src/internal/domain"
	"github.com/maksimkurb/fw-ipsets/src/internal/errors"
	"github.com/maksimkurb/fw-ipsets/src/internal/items"
	"github.com/maksimkurb/fw-ipsets/src/internal/log"
)

const nftCommand = "nft"

const nftSetDeclarationTemplate = "{ type {{type}}; {{flags}}{{options}}}"

var nftSetDeclaration = fasttemplate.New(nftSetDeclarationTemplate, "{{", "}}")

var _ domain.SetBackend = (*NFTablesBackend)(nil)

// NFTablesBackend stores sets inside an existing nftables table.
//
// Membership is replaced with a flush followed by element adds, applied by
// `nft -f` as one atomic ruleset transaction.
type NFTablesBackend struct {
	runner CommandRunner
}

func NewNFTablesBackend(runner CommandRunner) *NFTablesBackend {
	return &NFTablesBackend{runner: runner}
}

// EnsureTarget declares the set in its table unless a set with that name is already listed.
func (b *NFTablesBackend) EnsureTarget(ctx context.Context, def *config.SetDefinition) error {
	family := def.GetFamily()

	out, err := b.runner.Output(ctx, nftCommand, "--json", "--terse", "list", "sets", family, def.Table)
	if err != nil {
		return errors.NewBackendCommandError(fmt.Sprintf("failed to list sets of table %s %s", family, def.Table), err)
	}

	listing, err := parseNFTListing(out)
	if err != nil {
		return err
	}
	if listing.findSet(family, def.Table, def.Name) != nil {
		return nil
	}

	declaration := BuildNFTSetDeclaration(def)
	log.Infof("Creating nft set %s %s %s %s", family, def.Table, def.Name, declaration)
	if _, err := b.runner.Run(ctx, nftCommand, "add", "set", family, def.Table, def.Name, declaration); err != nil {
		return errors.NewBackendCommandError(fmt.Sprintf("failed to create nft set %s", def.Name), err)
	}
	return nil
}

// ReadCurrent parses `nft --json list set <family> <table> <name>`.
func (b *NFTablesBackend) ReadCurrent(ctx context.Context, def *config.SetDefinition) (items.Set, error) {
	out, err := b.runner.Output(ctx, nftCommand, "--json", "list", "set", def.GetFamily(), def.Table, def.Name)
	if err != nil {
		return nil, errors.NewBackendCommandError(fmt.Sprintf("failed to list nft set %s", def.Name), err)
	}
	return ParseNFTSetListing(out, def)
}

// ReplaceAll flushes the set and adds every desired item in one `nft -f` transaction.
func (b *NFTablesBackend) ReplaceAll(ctx context.Context, def *config.SetDefinition, desired items.Set) error {
	script := BuildNFTScript(def, desired)
	if err := runScript(ctx, b.runner, "fw-ipsets-*.nft", script, nftCommand, "-f"); err != nil {
		return errors.NewBackendCommandError(fmt.Sprintf("failed to update nft set %s", def.Name), err)
	}
	return nil
}

// BuildNFTSetDeclaration renders the `{ type ...; }` body passed to `nft add set`.
func BuildNFTSetDeclaration(def *config.SetDefinition) string {
	addrType := "ipv4_addr"
	if def.GetIPVersion() == config.Ipv6 {
		addrType = "ipv6_addr"
	}

	flags := ""
	if def.Type == items.Network {
		flags = "flags interval; "
	}

	options := ""
	if len(def.KernelOpts) > 0 {
		options = strings.Join(def.KernelOpts, " ") + " "
	}

	return nftSetDeclaration.ExecuteString(map[string]interface{}{
		"type":    addrType,
		"flags":   flags,
		"options": options,
	})
}

// BuildNFTScript renders the flush/add transaction for `nft -f`.
func BuildNFTScript(def *config.SetDefinition, desired items.Set) []byte {
	target := fmt.Sprintf("%s %s %s", def.GetFamily(), def.Table, def.Name)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "flush set %s\n", target)
	for _, item := range desired.Sorted() {
		fmt.Fprintf(&buf, "add element %s { %s }\n", target, item)
	}
	return buf.Bytes()
}

type nftListing struct {
	Nftables []nftEntry `json:"nftables"`
}

type nftEntry struct {
	Set *nftSet `json:"set,omitempty"`
}

type nftSet struct {
	Family string            `json:"family"`
	Table  string            `json:"table"`
	Name   string            `json:"name"`
	Elem   []json.RawMessage `json:"elem,omitempty"`
}

func parseNFTListing(data []byte) (*nftListing, error) {
	var listing nftListing
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, errors.NewBackendParseError("nft returned malformed JSON", err)
	}
	return &listing, nil
}

func (l *nftListing) findSet(family, table, name string) *nftSet {
	for _, entry := range l.Nftables {
		if entry.Set == nil {
			continue
		}
		if entry.Set.Family == family && entry.Set.Table == table && entry.Set.Name == name {
			return entry.Set
		}
	}
	return nil
}

// ParseNFTSetListing extracts the elements of the set described by def from nft's JSON output.
func ParseNFTSetListing(data []byte, def *config.SetDefinition) (items.Set, error) {
	listing, err := parseNFTListing(data)
	if err != nil {
		return nil, err
	}

	family := def.GetFamily()
	set := listing.findSet(family, def.Table, def.Name)
	if set == nil {
		return nil, errors.NewBackendParseError(fmt.Sprintf("nft didn't return set %s %s %s", family, def.Table, def.Name), nil)
	}

	result := items.NewSet()
	for _, raw := range set.Elem {
		item, err := parseNFTElement(raw, def.Type)
		if err != nil {
			return nil, errors.NewBackendParseError(fmt.Sprintf("unexpected element of nft set %s", set.Name), err)
		}
		result.Add(item)
	}
	return result, nil
}

type nftElementObject struct {
	Prefix *struct {
		Addr string `json:"addr"`
		Len  int    `json:"len"`
	} `json:"prefix,omitempty"`
	Elem *struct {
		Val json.RawMessage `json:"val"`
	} `json:"elem,omitempty"`
}

// parseNFTElement accepts "addr", {"prefix": {...}} and {"elem": {"val": ...}}.
func parseNFTElement(raw json.RawMessage, kind items.Kind) (items.Item, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return items.Parse(kind, text)
	}

	var obj nftElementObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return items.Item{}, fmt.Errorf("unexpected item: %s", raw)
	}

	switch {
	case obj.Prefix != nil:
		return items.Parse(kind, fmt.Sprintf("%s/%d", obj.Prefix.Addr, obj.Prefix.Len))
	case obj.Elem != nil && len(obj.Elem.Val) > 0:
		return parseNFTElement(obj.Elem.Val, kind)
	default:
		return items.Item{}, fmt.Errorf("unexpected item: %s", raw)
	}
}
