package listing

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quantumauth-io/nft-checkout/internal/ethwallet/wtypes"
	"github.com/quantumauth-io/nft-checkout/internal/nft"
	"github.com/quantumauth-io/nft-checkout/internal/txexec"
)

func TestLister_ListRowStateMachine(t *testing.T) {
	w := newWallet(t)
	poster := &mockPoster{}
	poster.On("PostOrder", mock.Anything, nft.MarketplaceX2Y2, mock.Anything).Return("x-1", nil)

	var seen []nft.ListingStatus
	l := NewLister(w, []Marketplace{NewX2Y2(poster)}, WithObservers(func(r nft.ListingRow) {
		seen = append(seen, r.Status)
	}, nil))

	row := l.ListRow(context.Background(), testRow(nft.MarketplaceX2Y2, "1"))
	require.Equal(t, nft.ListingApproved, row.Status)
	require.Equal(t, "x-1", row.OrderID)
	require.Equal(t, []nft.ListingStatus{nft.ListingSigning, nft.ListingPending, nft.ListingApproved}, seen)
}

func TestLister_RejectionPausesRemainingRows(t *testing.T) {
	l := NewLister(rejectingWallet{addr: common.HexToAddress("0x01")}, []Marketplace{NewX2Y2(nil)})

	rows := l.ListAll(context.Background(), []nft.ListingRow{
		testRow(nft.MarketplaceX2Y2, "1"),
		testRow(nft.MarketplaceX2Y2, "2"),
		testRow(nft.MarketplaceX2Y2, "3"),
	})
	require.Equal(t, nft.ListingRejected, rows[0].Status)
	require.Equal(t, nft.ListingPaused, rows[1].Status)
	require.Equal(t, nft.ListingPaused, rows[2].Status)
	require.Equal(t, nft.ListingPaused, AggregateStatus(nil, rows, ""))
}

func TestLister_FailureDoesNotStopBatch(t *testing.T) {
	w := newWallet(t)
	poster := &mockPoster{}
	poster.On("PostOrder", mock.Anything, nft.MarketplaceX2Y2, mock.Anything).Return("", errors.New("boom")).Once()
	poster.On("PostOrder", mock.Anything, nft.MarketplaceX2Y2, mock.Anything).Return("x-2", nil).Once()

	l := NewLister(w, []Marketplace{NewX2Y2(poster)})
	rows := l.ListAll(context.Background(), []nft.ListingRow{
		testRow(nft.MarketplaceX2Y2, "1"),
		testRow(nft.MarketplaceX2Y2, "2"),
		testRow(nft.MarketplaceFoundation, "3"),
	})
	require.Equal(t, nft.ListingFailed, rows[0].Status)
	require.Equal(t, nft.ListingApproved, rows[1].Status)
	require.Equal(t, nft.ListingFailed, rows[2].Status)
	require.Equal(t, nft.ListingFailed, AggregateStatus(nil, rows, ""))
}

func TestLister_ContinueSkipsApprovedRows(t *testing.T) {
	w := newWallet(t)
	poster := &mockPoster{}
	poster.On("PostOrder", mock.Anything, nft.MarketplaceX2Y2, mock.Anything).Return("x-3", nil).Once()

	done := testRow(nft.MarketplaceX2Y2, "1")
	done.Status = nft.ListingApproved
	done.OrderID = "x-0"
	paused := testRow(nft.MarketplaceX2Y2, "2")
	paused.Status = nft.ListingPaused

	rows := NewLister(w, []Marketplace{NewX2Y2(poster)}).ListAll(context.Background(), []nft.ListingRow{done, paused})
	require.Equal(t, "x-0", rows[0].OrderID)
	require.Equal(t, nft.ListingApproved, rows[1].Status)
	require.Equal(t, "x-3", rows[1].OrderID)
	poster.AssertExpectations(t)
}

func TestLister_CancelledContextPauses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows := NewLister(newWallet(t), []Marketplace{NewX2Y2(nil)}).ListAll(ctx, []nft.ListingRow{testRow(nft.MarketplaceX2Y2, "1")})
	require.Equal(t, nft.ListingPaused, rows[0].Status)
}

func approvedResult(t *testing.T, approved bool) []byte {
	t.Helper()
	out, err := approvalABI.Methods["isApprovedForAll"].Outputs.Pack(approved)
	require.NoError(t, err)
	return out
}

func TestLister_RunApprovesCollectionsFirst(t *testing.T) {
	w := newWallet(t)
	caller := &mockCaller{}
	caller.On("CallContract", mock.Anything, mock.Anything, mock.Anything).Return(approvedResult(t, false), nil).Once()

	tx := &mockTransactor{}
	tx.On("Transact", mock.Anything, mock.MatchedBy(func(c txexec.Call) bool {
		return c.To == common.HexToAddress(testCollection) && len(c.Data) > 0
	})).Return(&types.Receipt{Status: types.ReceiptStatusSuccessful}, nil).Once()

	poster := &mockPoster{}
	poster.On("PostOrder", mock.Anything, nft.MarketplaceX2Y2, mock.Anything).Return("x-1", nil).Twice()

	l := NewLister(w, []Marketplace{NewX2Y2(poster)}, WithApprovals(NewApprovalChecker(caller), tx))
	res, err := l.Run(context.Background(), []nft.ListingRow{
		testRow(nft.MarketplaceX2Y2, "1"),
		testRow(nft.MarketplaceX2Y2, "2"),
	})
	require.NoError(t, err)
	require.Len(t, res.Collections, 1)
	require.Equal(t, nft.ListingApproved, res.Collections[0].Status)
	require.Equal(t, nft.ListingApproved, res.Status)

	caller.AssertExpectations(t)
	tx.AssertExpectations(t)
	poster.AssertExpectations(t)
}

func TestLister_RunRejectedApprovalPausesRows(t *testing.T) {
	caller := &mockCaller{}
	caller.On("CallContract", mock.Anything, mock.Anything, mock.Anything).Return(approvedResult(t, false), nil)

	tx := &mockTransactor{}
	tx.On("Transact", mock.Anything, mock.Anything).Return(nil, wtypes.ErrUserRejected).Once()

	l := NewLister(newWallet(t), []Marketplace{NewX2Y2(nil)}, WithApprovals(NewApprovalChecker(caller), tx))
	res, err := l.Run(context.Background(), []nft.ListingRow{testRow(nft.MarketplaceX2Y2, "1")})
	require.NoError(t, err)
	require.Equal(t, nft.ListingRejected, res.Collections[0].Status)
	require.Equal(t, nft.ListingPaused, res.Rows[0].Status)
	require.Equal(t, nft.ListingPaused, res.Status)
}

func TestApprovalChecker_SkipsApprovedAndDuplicates(t *testing.T) {
	owner := common.HexToAddress("0x00000000000000000000000000000000000000d1")
	caller := &mockCaller{}
	caller.On("CallContract", mock.Anything, mock.MatchedBy(func(msg ethereum.CallMsg) bool {
		return msg.To != nil && *msg.To == common.HexToAddress(testCollection)
	}), (*big.Int)(nil)).Return(approvedResult(t, true), nil).Once()

	out, err := NewApprovalChecker(caller).RequiringApproval(context.Background(), owner, []nft.ListingRow{
		testRow(nft.MarketplaceLooksRare, "1"),
		testRow(nft.MarketplaceLooksRare, "2"),
	})
	require.NoError(t, err)
	require.Empty(t, out)
	caller.AssertExpectations(t)
}

func TestSeaportCounter(t *testing.T) {
	packed, err := counterABI.Methods["getCounter"].Outputs.Pack(big.NewInt(12))
	require.NoError(t, err)
	caller := &mockCaller{}
	caller.On("CallContract", mock.Anything, mock.Anything, mock.Anything).Return(packed, nil)

	c, err := NewSeaportCounter(caller).Counter(context.Background(), common.HexToAddress("0x01"))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(12), c)
}

type mockOwnership struct{ mock.Mock }

func (m *mockOwnership) Owns(ctx context.Context, owner common.Address, a nft.Asset) (bool, error) {
	args := m.Called(ctx, owner, a.TokenID)
	return args.Bool(0), args.Error(1)
}

func TestLister_OwnershipCheckedBeforeSigning(t *testing.T) {
	w := newWallet(t)
	poster := &mockPoster{}
	poster.On("PostOrder", mock.Anything, nft.MarketplaceX2Y2, mock.Anything).Return("x-2", nil).Once()
	owns := &mockOwnership{}
	owns.On("Owns", mock.Anything, w.Address(), "1").Return(false, nil)
	owns.On("Owns", mock.Anything, w.Address(), "2").Return(true, nil)

	var seen []nft.ListingStatus
	l := NewLister(w, []Marketplace{NewX2Y2(poster)},
		WithOwnership(owns),
		WithObservers(func(r nft.ListingRow) {
			if r.Asset.TokenID == "1" {
				seen = append(seen, r.Status)
			}
		}, nil),
	)
	rows := l.ListAll(context.Background(), []nft.ListingRow{
		testRow(nft.MarketplaceX2Y2, "1"),
		testRow(nft.MarketplaceX2Y2, "2"),
	})

	require.Equal(t, nft.ListingFailed, rows[0].Status)
	require.Equal(t, nft.ListingApproved, rows[1].Status)
	// never reached Signing
	require.Equal(t, []nft.ListingStatus{nft.ListingFailed}, seen)
	poster.AssertNumberOfCalls(t, "PostOrder", 1)
	owns.AssertExpectations(t)
}
