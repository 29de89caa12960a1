// Package domain defines core interfaces for dependency injection and abstraction.
//
// This package contains the fundamental interfaces that enable loose coupling between
// the reconciliation logic and the kernel subsystems that store the sets.
package domain

import (
	"context"

	"github.com/maksimkurb/fw-ipsets/src/internal/config"
	"github.com/maksimkurb/fw-ipsets/src/internal/items"
)

// SetBackend defines the operations any kernel set backend must provide.
//
// Implementations exist for ipset and nftables. This interface allows
// testing the reconciler without invoking the real tools or requiring root.
type SetBackend interface {
	// EnsureTarget idempotently creates the kernel-side set with a type
	// compatible with the definition's kind. An existing set is not an error.
	EnsureTarget(ctx context.Context, def *config.SetDefinition) error

	// ReadCurrent returns the live membership of the kernel-side set.
	ReadCurrent(ctx context.Context, def *config.SetDefinition) (items.Set, error)

	// ReplaceAll makes the kernel-side membership exactly equal to desired.
	ReplaceAll(ctx context.Context, def *config.SetDefinition, desired items.Set) error
}
