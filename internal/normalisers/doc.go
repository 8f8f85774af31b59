// Package normalisers provides the DocumentParser and the per-format
// Normaliser implementations it dispatches to. Each normaliser turns the
// bytes of one format into headed sections of chunks.
//
// Normalisers are registered with the Registry at startup.
package normalisers
