// Package txexec submits the router's composed purchase transaction and
// works out from the receipt which NFTs were actually bought.
//
// The router contract runs each marketplace leg on its own and gives no
// atomicity across legs: a mined transaction may buy some assets and
// refund the rest. The outcome is therefore always a purchased /
// not-purchased split read from the receipt logs, never a single
// success flag.
package txexec

import (
	"context"
	"math/big"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/nft-checkout/internal/ethwallet/wtypes"
	"github.com/quantumauth-io/nft-checkout/internal/nft"
)

var (
	ErrMissingSigner    = errors.New("txexec: no signer")
	ErrMissingRouteData = errors.New("txexec: route has no transaction data")
)

type TxState string

const (
	TxNew        TxState = "NEW"
	TxSigning    TxState = "SIGNING"
	TxConfirming TxState = "CONFIRMING"
	TxSuccess    TxState = "SUCCESS"
	TxFailed     TxState = "FAILED"
	TxDenied     TxState = "DENIED"
	TxInvalid    TxState = "INVALID"
)

// Backend is the part of ethclient.Client the executor needs.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Call is a transaction to send: the router's to/data/value, or any other
// contract call.
type Call struct {
	To    common.Address
	Data  []byte
	Value *big.Int
}

type Outcome struct {
	State        TxState
	TxHash       common.Hash
	Receipt      *types.Receipt
	Purchased    []nft.Asset
	NotPurchased []nft.Asset
	Refund       *big.Int
	Err          error
}

type Executor struct {
	backend      Backend
	wallet       wtypes.Wallet
	chainID      *big.Int
	pollInterval time.Duration
	maxPoll      time.Duration
}

type Option func(*Executor)

func WithChainID(id *big.Int) Option {
	return func(e *Executor) { e.chainID = id }
}

// WithPollInterval sets the initial and maximum receipt polling delay.
func WithPollInterval(initial, max time.Duration) Option {
	return func(e *Executor) {
		e.pollInterval = initial
		e.maxPoll = max
	}
}

func NewExecutor(backend Backend, wallet wtypes.Wallet, opts ...Option) *Executor {
	e := &Executor{
		backend:      backend,
		wallet:       wallet,
		pollInterval: 750 * time.Millisecond,
		maxPoll:      3 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Executor) Signer() (common.Address, bool) {
	if e == nil || e.wallet == nil {
		return common.Address{}, false
	}
	return e.wallet.Address(), true
}

// Purchase sends the route transaction for assets and classifies what it
// bought. onState, if set, sees every state transition. The returned error
// is only set for precondition failures; wallet rejection and submission
// errors end in TxDenied / TxInvalid on the outcome.
func (e *Executor) Purchase(ctx context.Context, call Call, assets []nft.Asset, onState func(TxState)) (*Outcome, error) {
	if e.wallet == nil {
		return nil, ErrMissingSigner
	}
	if call.To == (common.Address{}) || len(call.Data) == 0 {
		return nil, ErrMissingRouteData
	}

	out := &Outcome{State: TxNew}
	set := func(s TxState) {
		out.State = s
		if onState != nil {
			onState(s)
		}
	}
	fail := func(err error) (*Outcome, error) {
		out.Err = err
		if wtypes.IsUserRejection(err) {
			set(TxDenied)
		} else {
			set(TxInvalid)
		}
		log.Warn("purchase not submitted", "state", out.State, "error", err)
		return out, nil
	}

	set(TxSigning)
	signed, err := e.sign(ctx, call)
	if err != nil {
		return fail(err)
	}
	if err := e.backend.SendTransaction(ctx, signed); err != nil {
		return fail(errors.Wrap(err, "send transaction"))
	}

	out.TxHash = signed.Hash()
	set(TxConfirming)
	log.Info("purchase submitted", "tx", out.TxHash.Hex(), "assets", len(assets))

	receipt, err := e.WaitMined(ctx, out.TxHash)
	if err != nil {
		return fail(errors.Wrap(err, "wait for receipt"))
	}
	out.Receipt = receipt
	out.Purchased, out.NotPurchased = Split(receipt, e.wallet.Address(), assets)
	out.Refund = RefundTotal(out.NotPurchased)

	if receipt.Status == types.ReceiptStatusSuccessful {
		set(TxSuccess)
	} else {
		set(TxFailed)
	}
	log.Info("purchase mined",
		"tx", out.TxHash.Hex(),
		"state", out.State,
		"purchased", len(out.Purchased),
		"not_purchased", len(out.NotPurchased),
	)
	return out, nil
}

// Transact signs and sends call, then waits for its receipt.
func (e *Executor) Transact(ctx context.Context, call Call) (*types.Receipt, error) {
	if e.wallet == nil {
		return nil, ErrMissingSigner
	}
	signed, err := e.sign(ctx, call)
	if err != nil {
		return nil, err
	}
	if err := e.backend.SendTransaction(ctx, signed); err != nil {
		return nil, errors.Wrap(err, "send transaction")
	}
	return e.WaitMined(ctx, signed.Hash())
}

// WaitMined polls for the receipt of txHash with a growing delay until it
// is mined or ctx ends.
func (e *Executor) WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	delay := e.pollInterval
	for {
		receipt, err := e.backend.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
			if delay < e.maxPoll {
				delay += e.pollInterval / 3
			}
		}
	}
}

func (e *Executor) sign(ctx context.Context, call Call) (*types.Transaction, error) {
	chainID, err := e.chain(ctx)
	if err != nil {
		return nil, err
	}
	from := e.wallet.Address()

	value := call.Value
	if value == nil {
		value = new(big.Int)
	}
	to := call.To

	estimate, err := e.backend.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Value: value, Data: call.Data})
	if err != nil {
		return nil, errors.Wrap(err, "estimate gas")
	}
	gasLimit := estimate * 105 / 100

	nonce, err := e.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, errors.Wrap(err, "nonce")
	}

	var tx *types.Transaction
	if tip, feeCap, ok := e.suggest1559(ctx); ok {
		tx = types.NewTx(&types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gasLimit,
			To:        &to,
			Value:     value,
			Data:      call.Data,
		})
	} else {
		gasPrice, err := e.backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "gas price")
		}
		tx = types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			To:       &to,
			Value:    value,
			Gas:      gasLimit,
			GasPrice: gasPrice,
			Data:     call.Data,
		})
	}

	signer := types.LatestSignerForChainID(chainID)
	sig, err := e.wallet.SignHash(ctx, signer.Hash(tx).Bytes())
	if err != nil {
		return nil, errors.Wrap(err, "sign")
	}
	signed, err := tx.WithSignature(signer, sig)
	if err != nil {
		return nil, errors.Wrap(err, "with signature")
	}
	return signed, nil
}

// suggest1559 uses base fee * 2 + tip as the fee cap; ok is false on
// chains without a base fee.
func (e *Executor) suggest1559(ctx context.Context) (tip, feeCap *big.Int, ok bool) {
	head, err := e.backend.HeaderByNumber(ctx, nil)
	if err != nil || head == nil || head.BaseFee == nil {
		return nil, nil, false
	}
	tip, err = e.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, nil, false
	}
	feeCap = new(big.Int).Mul(head.BaseFee, big.NewInt(2))
	return tip, feeCap.Add(feeCap, tip), true
}

func (e *Executor) chain(ctx context.Context) (*big.Int, error) {
	if e.chainID != nil {
		return e.chainID, nil
	}
	id, err := e.backend.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "chain id")
	}
	e.chainID = id
	return id, nil
}
