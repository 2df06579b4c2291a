// Package core holds the neutral, provider-independent building blocks of an
// analysis run: role-based conversation content with ordered heterogeneous
// parts, the per-run mutable state accumulator, and the append-only reasoning
// trace streamed to observers.
package core
