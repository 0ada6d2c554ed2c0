package listing

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/nft-checkout/internal/ethwallet/wtypes"
	"github.com/quantumauth-io/nft-checkout/internal/nft"
	"github.com/quantumauth-io/nft-checkout/internal/txexec"
)

// Transactor sends an approval transaction and waits for it to be mined.
type Transactor interface {
	Transact(ctx context.Context, call txexec.Call) (*types.Receipt, error)
}

// OwnershipChecker is implemented by *assets.Manager.
type OwnershipChecker interface {
	Owns(ctx context.Context, owner common.Address, a nft.Asset) (bool, error)
}

type Lister struct {
	wallet     wtypes.Wallet
	markets    map[nft.Marketplace]Marketplace
	approvals  *ApprovalChecker
	tx         Transactor
	ownership  OwnershipChecker
	onRow      func(nft.ListingRow)
	onApproval func(nft.CollectionRow)
}

type Option func(*Lister)

// WithApprovals makes Run check and send collection approvals before
// listing.
func WithApprovals(checker *ApprovalChecker, tx Transactor) Option {
	return func(l *Lister) {
		l.approvals = checker
		l.tx = tx
	}
}

// WithOwnership fails rows whose token the signer does not hold before
// anything is signed.
func WithOwnership(o OwnershipChecker) Option {
	return func(l *Lister) { l.ownership = o }
}

// WithObservers registers callbacks for every row and collection status
// change.
func WithObservers(onRow func(nft.ListingRow), onApproval func(nft.CollectionRow)) Option {
	return func(l *Lister) {
		l.onRow = onRow
		l.onApproval = onApproval
	}
}

func NewLister(w wtypes.Wallet, markets []Marketplace, opts ...Option) *Lister {
	l := &Lister{wallet: w, markets: make(map[nft.Marketplace]Marketplace, len(markets))}
	for _, m := range markets {
		l.markets[m.Name()] = m
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type Result struct {
	Collections []nft.CollectionRow `json:"collections"`
	Rows        []nft.ListingRow    `json:"rows"`
	Status      nft.ListingStatus   `json:"status"`
}

// Run approves the collections that need it, then lists every row.
// Rows whose collection approval did not go through are paused.
func (l *Lister) Run(ctx context.Context, rows []nft.ListingRow) (Result, error) {
	if l.wallet == nil {
		return Result{}, txexec.ErrMissingSigner
	}
	rows = resetForRetry(rows)
	var collections []nft.CollectionRow

	if l.approvals != nil && l.tx != nil {
		needed, err := l.approvals.RequiringApproval(ctx, l.wallet.Address(), rows)
		if err != nil {
			return Result{}, err
		}
		blocked := map[string]bool{}
		halted := false
		for _, c := range needed {
			if halted {
				c.Status = nft.ListingPaused
			} else {
				c = l.ApproveCollection(ctx, c)
				halted = c.Status == nft.ListingRejected
			}
			if c.Status != nft.ListingApproved {
				blocked[approvalKey(c.Address, c.Marketplace)] = true
			}
			collections = append(collections, c)
		}
		for i := range rows {
			if blocked[approvalKey(rows[i].Asset.Address, rows[i].Marketplace)] {
				l.setRow(&rows[i], nft.ListingPaused)
			}
		}
	}

	rows = l.listRows(ctx, rows)
	status := AggregateStatus(collections, rows, "")
	log.Info("listing run finished", "rows", len(rows), "collections", len(collections), "status", status)
	return Result{Collections: collections, Rows: rows, Status: status}, nil
}

// ListAll lists rows one after another. Approved rows are skipped and
// rows left Paused, Rejected or Failed by an earlier run are retried. A
// wallet rejection or a cancelled ctx pauses every row after it.
func (l *Lister) ListAll(ctx context.Context, rows []nft.ListingRow) []nft.ListingRow {
	return l.listRows(ctx, resetForRetry(rows))
}

func resetForRetry(rows []nft.ListingRow) []nft.ListingRow {
	out := append([]nft.ListingRow(nil), rows...)
	for i := range out {
		if out[i].Status != nft.ListingApproved {
			out[i].Status = nft.ListingDefined
		}
	}
	return out
}

func (l *Lister) listRows(ctx context.Context, rows []nft.ListingRow) []nft.ListingRow {
	halted := false
	for i := range rows {
		switch {
		case rows[i].Status == nft.ListingApproved || rows[i].Status == nft.ListingPaused:
			continue
		case halted || ctx.Err() != nil:
			l.setRow(&rows[i], nft.ListingPaused)
			continue
		}
		rows[i] = l.ListRow(ctx, rows[i])
		halted = rows[i].Status == nft.ListingRejected
	}
	return rows
}

// ListRow drives one row through Signing and Pending to Approved,
// Rejected (the wallet declined) or Failed.
func (l *Lister) ListRow(ctx context.Context, row nft.ListingRow) nft.ListingRow {
	fail := func(err error) nft.ListingRow {
		status := nft.ListingFailed
		if wtypes.IsUserRejection(err) {
			status = nft.ListingRejected
		}
		l.setRow(&row, status)
		log.Warn("listing not created",
			"marketplace", row.Marketplace,
			"asset", row.Asset.Key(),
			"status", status,
			"error", err,
		)
		return row
	}

	if l.wallet == nil {
		return fail(txexec.ErrMissingSigner)
	}
	market, ok := l.markets[row.Marketplace]
	if !ok {
		return fail(errors.Wrapf(ErrUnsupportedMarketplace, "%q", row.Marketplace))
	}
	if l.ownership != nil {
		owned, err := l.ownership.Owns(ctx, l.wallet.Address(), row.Asset)
		if err != nil {
			return fail(errors.Wrap(err, "ownership"))
		}
		if !owned {
			return fail(errors.Wrapf(ErrNotOwned, "%s", row.Asset.Key()))
		}
	}

	l.setRow(&row, nft.ListingSigning)
	order, err := market.BuildOrder(ctx, row, l.wallet.Address())
	if err != nil {
		return fail(err)
	}
	signed, err := market.Sign(ctx, order, l.wallet)
	if err != nil {
		return fail(err)
	}

	l.setRow(&row, nft.ListingPending)
	id, err := market.Submit(ctx, signed)
	if err != nil {
		return fail(err)
	}

	row.OrderID = id
	l.setRow(&row, nft.ListingApproved)
	log.Info("listing created", "marketplace", row.Marketplace, "asset", row.Asset.Key(), "order_id", id)
	return row
}

// ApproveCollection sends setApprovalForAll for the venue's operator.
func (l *Lister) ApproveCollection(ctx context.Context, c nft.CollectionRow) nft.CollectionRow {
	fail := func(err error) nft.CollectionRow {
		status := nft.ListingFailed
		if wtypes.IsUserRejection(err) {
			status = nft.ListingRejected
		}
		l.setCollection(&c, status)
		log.Warn("collection approval failed", "collection", c.Address, "marketplace", c.Marketplace, "error", err)
		return c
	}

	if l.tx == nil {
		return fail(errors.New("listing: no transactor for approvals"))
	}
	operator, ok := Operator(c.Marketplace, c.TokenType)
	if !ok {
		return fail(errors.Wrapf(ErrUnsupportedMarketplace, "%q", c.Marketplace))
	}
	if !common.IsHexAddress(c.Address) {
		return fail(errors.Wrapf(ErrInvalidRow, "collection %q", c.Address))
	}
	data, err := ApprovalCalldata(operator)
	if err != nil {
		return fail(err)
	}

	l.setCollection(&c, nft.ListingSigning)
	receipt, err := l.tx.Transact(ctx, txexec.Call{To: common.HexToAddress(c.Address), Data: data})
	if err != nil {
		return fail(err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fail(errors.Newf("approval reverted in %s", receipt.TxHash.Hex()))
	}
	l.setCollection(&c, nft.ListingApproved)
	return c
}

func (l *Lister) setRow(row *nft.ListingRow, status nft.ListingStatus) {
	row.Status = status
	if l.onRow != nil {
		l.onRow(*row)
	}
}

func (l *Lister) setCollection(c *nft.CollectionRow, status nft.ListingStatus) {
	c.Status = status
	if l.onApproval != nil {
		l.onApproval(*c)
	}
}

func approvalKey(address string, m nft.Marketplace) string {
	return strings.ToLower(address) + "|" + string(m)
}
