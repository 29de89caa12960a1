// Package networking implements the kernel set backends for fw-ipsets.
//
// Two backends satisfy domain.SetBackend:
//
//   - IPSetBackend: ipset hash:ip / hash:net sets, replaced atomically by
//     building a temp set and swapping it in with `ipset restore`.
//   - NFTablesBackend: named sets inside an nftables table, replaced with a
//     flush plus element adds applied by `nft -f`.
//
// Both read the live membership from the tools' JSON output and write their
// scripts to private temp files that are removed after each run. Tools are
// invoked through a CommandRunner so that tests can substitute a fake.
//
// # Self-check helpers
//
// The package also answers diagnostic questions over netlink and iptables:
// whether a set or nftables table exists (IPSetExists, LookupNFTSet) and which
// iptables rules reference an ipset (FindIPTablesReferences).
//
// # Example Usage
//
//	runner := networking.NewExecRunner(30 * time.Second)
//	backend := networking.NewIPSetBackend(runner, "_tmp")
//
//	if err := backend.EnsureTarget(ctx, def); err != nil {
//		return err
//	}
//	current, err := backend.ReadCurrent(ctx, def)
package networking
