// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - BrowserSession: Drives one rendered storefront page
//   - SessionFactory: Opens browser sessions from an explicit config
//   - SourceAdapter: Knows one retailer's navigation and card layout
//   - ListingNormaliser: Turns raw cards into comparable listings
//   - CatalogStore: Catalog persistence with per-store atomic replace
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, retailer, or normaliser package
package driven
