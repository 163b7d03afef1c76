// Package aggregates implements the outcome write paths declared in
// internal/domain/aggregates.
//
// Each aggregate owns a fixed set of tables and runs every write in one
// transaction from its TxRunner, composing the table repos in
// internal/data/repos inside it. Errors leave through MapError so callers only
// ever see domain error codes.
package aggregates
