// Package domain defines the core business entities for Baratazo.
//
// This package is part of the hexagonal architecture's innermost layer.
// It defines the fundamental types that flow through the pipeline:
//
//   - RawListing: One product card as extracted from a storefront
//   - NormalizedListing: A listing with canonical quantities and unit prices
//   - Product, Category, ProductCategoryLink: The persisted catalog
//   - CategoryRef: A crawl target discovered on a storefront
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. All other packages depend on
// domain, never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library, shopspring/decimal, google/uuid, x/text
//   - Cannot Import: Any internal/ package
package domain
