package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/maksimkurb/fw-ipsets/src/internal/items"
	"github.com/maksimkurb/fw-ipsets/src/internal/utils"
)

// BackendType selects the kernel subsystem that stores a set.
type BackendType string

const (
	BackendIPSet BackendType = "ipset"
	BackendNFT   BackendType = "nft"
	// BackendNFTables is accepted as an alias of BackendNFT.
	BackendNFTables BackendType = "nftables"
)

// Normalized maps aliases to their canonical backend name.
func (b BackendType) Normalized() BackendType {
	if b == BackendNFTables {
		return BackendNFT
	}
	return b
}

type IPFamily uint8

const (
	Ipv4 IPFamily = 4
	Ipv6 IPFamily = 6
)

const (
	DefaultNFTFamily = "ip"
	// MaxIPSetNameLength is the kernel limit for ipset names (IPSET_MAXNAMELEN - 1).
	MaxIPSetNameLength = 31
)

type Config struct {
	// TempSuffix is appended to ipset names to build the scratch set used for the atomic swap.
	TempSuffix string `toml:"temp-suffix" json:"temp_suffix" validate:"required,set_name_suffix"`
	// ContinueOnError keeps processing the remaining sets after a failure and reports all errors at the end.
	ContinueOnError bool `toml:"continue-on-error" json:"continue_on_error"`
	// CommandTimeoutSec limits each ipset/nft invocation (0 = no timeout).
	CommandTimeoutSec int `toml:"command-timeout-sec" json:"command_timeout_sec" validate:"min=0,max=3600"`
	// IPSets declares the sets to reconcile, processed in order.
	IPSets []*SetDefinition `toml:"ipsets" json:"ipsets"`

	_absConfigFilePath string
}

type SetDefinition struct {
	// Backend is "ipset" or "nft".
	Backend BackendType `toml:"backend" json:"backend" validate:"required,oneof=ipset nft nftables"`
	// Name is the kernel-side set name.
	Name string `toml:"name" json:"name" validate:"required,set_name"`
	// Type is "ip" for single addresses or "net" for CIDR networks.
	Type items.Kind `toml:"type" json:"type" validate:"required,oneof=ip net"`
	// IPVersion is the IP version of the set members (4 or 6, default: 4).
	IPVersion IPFamily `toml:"ip-version,omitempty" json:"ip_version,omitempty" validate:"omitempty,oneof=4 6"`
	// KernelOpts are extra creation options passed verbatim to the backend.
	KernelOpts []string `toml:"kernel-opts" json:"kernel_opts" validate:"dive,kernel_opt"`
	// Source is the file with the desired members, one per line. Relative paths resolve against the config directory.
	Source string `toml:"source" json:"source" validate:"required"`
	// Family is the nftables table family (nft backend only, default: ip).
	Family string `toml:"family,omitempty" json:"family,omitempty" validate:"omitempty,oneof=ip ip6 inet arp bridge netdev"`
	// Table is the nftables table holding the set (nft backend only).
	Table string `toml:"table,omitempty" json:"table,omitempty" validate:"omitempty,set_name"`
}

func (c *Config) GetConfigDir() string {
	return filepath.Dir(c._absConfigFilePath)
}

// GetCommandTimeout returns the per-invocation timeout, zero meaning none.
func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.CommandTimeoutSec) * time.Second
}

// GetAbsSourcePath resolves the definition source against the config directory.
func (c *Config) GetAbsSourcePath(def *SetDefinition) string {
	if c._absConfigFilePath == "" {
		return filepath.Clean(def.Source)
	}
	return utils.GetAbsolutePath(def.Source, c.GetConfigDir())
}

// FilterIPSets returns the definitions whose names are listed, each once and in
// the order the names are given. An empty list returns every definition.
func (c *Config) FilterIPSets(names []string) ([]*SetDefinition, error) {
	if len(names) == 0 {
		return c.IPSets, nil
	}

	var result []*SetDefinition
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		found := false
		for _, def := range c.IPSets {
			if def.Name == name {
				result = append(result, def)
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("ipset %q is not defined in configuration", name)
		}
	}
	return result, nil
}

func (d *SetDefinition) IsIPSet() bool {
	return d.Backend.Normalized() == BackendIPSet
}

func (d *SetDefinition) IsNFT() bool {
	return d.Backend.Normalized() == BackendNFT
}

// GetIPVersion returns the configured IP version, defaulting to IPv4.
func (d *SetDefinition) GetIPVersion() IPFamily {
	if d.IPVersion == 0 {
		return Ipv4
	}
	return d.IPVersion
}

// GetFamily returns the nftables family, defaulting to "ip".
func (d *SetDefinition) GetFamily() string {
	if d.Family == "" {
		return DefaultNFTFamily
	}
	return d.Family
}

// TempName returns the scratch set name used during the ipset swap.
func (d *SetDefinition) TempName(suffix string) string {
	return d.Name + suffix
}

func (d *SetDefinition) String() string {
	if d.IsNFT() {
		return fmt.Sprintf("nft set %s %s %s (%s)", d.GetFamily(), d.Table, d.Name, d.Type)
	}
	return fmt.Sprintf("ipset %s (%s, IPv%d)", d.Name, d.Type, d.GetIPVersion())
}
