// Package lists reads the desired membership of a set from its source file.
//
// A source file holds one address or CIDR network per line. Blank lines and
// '#' comments are ignored; every other line must parse as an item of the
// set's kind, otherwise reading fails with a parse error that names the file,
// the line number and the raw text.
//
//	desired, err := lists.ReadSource("/etc/fw-ipsets/blocklist.txt", items.Network, config.Ipv4)
package lists
