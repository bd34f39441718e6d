package driven

import "github.com/AlbertoRQ/Baratazo/internal/core/domain"

// ListingNormaliser turns raw storefront cards into comparable listings.
// Normalisation never fails; unparseable fields are left undetermined.
type ListingNormaliser interface {
	Normalise(store string, raw domain.RawListing) domain.NormalizedListing
}
