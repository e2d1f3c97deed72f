// Package testutil contains helpers shared by tests: a fluent builder for
// agent states and stub tools with predictable behavior. Not intended for
// production usage.
package testutil
