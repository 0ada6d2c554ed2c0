package listing

import "github.com/quantumauth-io/nft-checkout/internal/nft"

type listingState struct {
	allListingsApproved   bool
	allListingsPending    bool
	allListingsDefined    bool
	allCollectionsPending bool
	anySigning            bool
	anyFailures           bool
	anyRejections         bool
	anyPaused             bool
}

func stateOf(collections []nft.CollectionRow, rows []nft.ListingRow) listingState {
	s := listingState{
		allListingsApproved:   len(rows) > 0,
		allListingsPending:    len(rows) > 0,
		allListingsDefined:    len(rows) > 0,
		allCollectionsPending: len(collections) > 0,
	}
	seen := func(status nft.ListingStatus) {
		switch status {
		case nft.ListingSigning:
			s.anySigning = true
		case nft.ListingFailed:
			s.anyFailures = true
		case nft.ListingRejected:
			s.anyRejections = true
		case nft.ListingPaused:
			s.anyPaused = true
		}
	}
	for _, c := range collections {
		if c.Status != nft.ListingPending {
			s.allCollectionsPending = false
		}
		seen(c.Status)
	}
	for _, r := range rows {
		if r.Status != nft.ListingApproved {
			s.allListingsApproved = false
		}
		if r.Status != nft.ListingPending {
			s.allListingsPending = false
		}
		if r.Status != nft.ListingDefined {
			s.allListingsDefined = false
		}
		seen(r.Status)
	}
	return s
}

// AggregateStatus is the page-level status of a listing batch. previous
// is the status shown before this update; a batch that is Paused does
// not flip to Failed.
func AggregateStatus(collections []nft.CollectionRow, rows []nft.ListingRow, previous nft.ListingStatus) nft.ListingStatus {
	s := stateOf(collections, rows)
	switch {
	case s.allListingsApproved:
		return nft.ListingApproved
	case s.anyPaused && !s.anyFailures && !s.anySigning && !s.anyRejections:
		return nft.ListingContinue
	case s.anyPaused:
		return nft.ListingPaused
	case s.anySigning:
		return nft.ListingSigning
	case s.allListingsPending || (s.allCollectionsPending && s.allListingsDefined):
		return nft.ListingPending
	case s.anyFailures && previous != nft.ListingPaused:
		return nft.ListingFailed
	default:
		if previous == "" {
			return nft.ListingDefined
		}
		return previous
	}
}
