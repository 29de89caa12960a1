// Package config handles configuration file parsing and validation for fw-ipsets.
//
// The configuration is a TOML file with a temp-suffix and an ordered list of
// set definitions:
//
//	temp-suffix = "_tmp"
//
//	[[ipsets]]
//	backend = "ipset"
//	name = "blocklist"
//	type = "net"
//	kernel-opts = ["maxelem", "131072"]
//	source = "lists/blocklist.txt"
//
//	[[ipsets]]
//	backend = "nft"
//	family = "inet"
//	table = "filter"
//	name = "allowed_hosts"
//	type = "ip"
//	kernel-opts = []
//	source = "/etc/fw-ipsets/allowed.txt"
//
// ValidateConfig checks field formats and the backend-specific invariants
// (family/table only for nft, table required for nft, ipset names with the
// temp suffix fitting the kernel limit). ApplyDefaults fills family and
// ip-version afterwards.
package config
