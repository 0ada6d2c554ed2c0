package listing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantumauth-io/nft-checkout/internal/nft"
)

func rowsWith(statuses ...nft.ListingStatus) []nft.ListingRow {
	out := make([]nft.ListingRow, len(statuses))
	for i, s := range statuses {
		out[i] = nft.ListingRow{Status: s}
	}
	return out
}

func collectionsWith(statuses ...nft.ListingStatus) []nft.CollectionRow {
	out := make([]nft.CollectionRow, len(statuses))
	for i, s := range statuses {
		out[i] = nft.CollectionRow{Status: s}
	}
	return out
}

func TestAggregateStatus(t *testing.T) {
	tests := []struct {
		name        string
		collections []nft.CollectionRow
		rows        []nft.ListingRow
		previous    nft.ListingStatus
		want        nft.ListingStatus
	}{
		{"all approved", nil, rowsWith(nft.ListingApproved, nft.ListingApproved), "", nft.ListingApproved},
		{"paused only", nil, rowsWith(nft.ListingApproved, nft.ListingPaused), "", nft.ListingContinue},
		{"paused with rejection", nil, rowsWith(nft.ListingRejected, nft.ListingPaused), "", nft.ListingPaused},
		{"paused collection with failure", collectionsWith(nft.ListingPaused), rowsWith(nft.ListingFailed), "", nft.ListingPaused},
		{"signing", nil, rowsWith(nft.ListingApproved, nft.ListingSigning, nft.ListingDefined), "", nft.ListingSigning},
		{"all pending", nil, rowsWith(nft.ListingPending, nft.ListingPending), "", nft.ListingPending},
		{"collections pending rows defined", collectionsWith(nft.ListingPending), rowsWith(nft.ListingDefined), "", nft.ListingPending},
		{"failure", nil, rowsWith(nft.ListingApproved, nft.ListingFailed), "", nft.ListingFailed},
		{"failure after pause keeps paused", nil, rowsWith(nft.ListingApproved, nft.ListingFailed), nft.ListingPaused, nft.ListingPaused},
		{"nothing yet", nil, rowsWith(nft.ListingDefined), "", nft.ListingDefined},
		{"empty", nil, nil, "", nft.ListingDefined},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, AggregateStatus(tt.collections, tt.rows, tt.previous))
		})
	}
}
