// Package normalisers turns storefront text into comparable values.
//
//   - quantity: locale-aware price and package-size parsing
//   - pricing: unit price derivation with advertised-label fallback
//   - listing: RawListing to NormalizedListing mapping
//
// Everything here is pure and never fails: text that cannot be parsed
// yields undetermined values rather than errors.
package normalisers
