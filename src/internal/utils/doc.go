// Package utils provides small file helpers shared across fw-ipsets:
// closing with a warning, path resolution relative to the config directory,
// and private temp files for backend scripts.
package utils
