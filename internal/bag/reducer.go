package bag

import (
	"math/big"

	"github.com/quantumauth-io/nft-checkout/internal/nft"
)

// State is the bag aggregate. Revision increases whenever the set of items
// changes through add, remove or clear, so a caller holding an older
// revision knows its view is stale.
type State struct {
	Items                    []nft.BagItem `json:"items"`
	Locked                   bool          `json:"locked"`
	Status                   nft.BagStatus `json:"status"`
	Expanded                 bool          `json:"expanded"`
	DidOpenUnavailableAssets bool          `json:"didOpenUnavailableAssets"`
	Revision                 uint64        `json:"revision"`
}

func NewState() State {
	return State{Status: nft.BagStatusAddingToBag}
}

func (s State) Clone() State {
	out := s
	out.Items = nft.CloneItems(s.Items)
	return out
}

// Action is a bag mutation. The set of actions is closed.
type Action interface {
	isAction()
}

type AddAssets struct{ Assets []nft.Asset }

type RemoveAssets struct{ Assets []nft.Asset }

// SetItems replaces the items wholesale, typically with reconciled ones.
type SetItems struct{ Items []nft.BagItem }

type SetStatus struct{ Status nft.BagStatus }

type Lock struct{}

type Unlock struct{}

// ReviewAsset marks an item as reviewed after a price change, or drops it.
type ReviewAsset struct {
	Asset nft.Asset
	Keep  bool
}

// ResetAfterPurchase removes purchased items and returns the bag to an
// editable state holding whatever was not bought.
type ResetAfterPurchase struct{ Purchased []nft.Asset }

type MarkUnavailableSeen struct{}

type ToggleExpanded struct{}

type Clear struct{}

func (AddAssets) isAction()           {}
func (RemoveAssets) isAction()        {}
func (SetItems) isAction()            {}
func (SetStatus) isAction()           {}
func (Lock) isAction()                {}
func (Unlock) isAction()              {}
func (ReviewAsset) isAction()         {}
func (ResetAfterPurchase) isAction()  {}
func (MarkUnavailableSeen) isAction() {}
func (ToggleExpanded) isAction()      {}
func (Clear) isAction()               {}

// Reduce applies action to state and returns the next state. It never
// mutates its input. Adding or removing while the bag is locked is a no-op.
func Reduce(state State, action Action) State {
	next := state.Clone()

	switch a := action.(type) {
	case AddAssets:
		if next.Locked {
			return state
		}
		present := make(map[string]bool, len(next.Items))
		for _, it := range next.Items {
			present[it.Asset.Key()] = true
		}
		added := false
		for _, asset := range a.Assets {
			if present[asset.Key()] {
				continue
			}
			present[asset.Key()] = true
			next.Items = append(next.Items, nft.BagItem{Asset: asset.Clone(), Status: nft.BagItemAddedToBag})
			added = true
		}
		if !added {
			return state
		}
		next.Items = Recalculate(next.Items)
		next.Status = nft.BagStatusAddingToBag
		next.Revision++

	case RemoveAssets:
		if next.Locked {
			return state
		}
		drop := make(map[string]bool, len(a.Assets))
		for _, asset := range a.Assets {
			drop[asset.Key()] = true
		}
		kept := next.Items[:0]
		for _, it := range next.Items {
			if !drop[it.Asset.Key()] {
				kept = append(kept, it)
			}
		}
		if len(kept) == len(state.Items) {
			return state
		}
		next.Items = Recalculate(kept)
		next.Status = nft.BagStatusAddingToBag
		next.Revision++

	case SetItems:
		next.Items = nft.CloneItems(a.Items)

	case SetStatus:
		next.Status = a.Status

	case Lock:
		next.Locked = true

	case Unlock:
		next.Locked = false

	case ReviewAsset:
		key := a.Asset.Key()
		kept := next.Items[:0]
		for _, it := range next.Items {
			if it.Asset.Key() != key {
				kept = append(kept, it)
				continue
			}
			if !a.Keep {
				continue
			}
			if it.UpdatedPriceInfo != nil {
				it.Asset.PriceInfo = *it.UpdatedPriceInfo
				it.UpdatedPriceInfo = nil
			}
			it.Status = nft.BagItemReviewed
			kept = append(kept, it)
		}
		next.Items = kept
		if !a.Keep {
			next.Revision++
		}

	case ResetAfterPurchase:
		bought := make(map[string]bool, len(a.Purchased))
		for _, asset := range a.Purchased {
			bought[asset.Key()] = true
		}
		kept := next.Items[:0]
		for _, it := range next.Items {
			if bought[it.Asset.Key()] {
				continue
			}
			it.Status = nft.BagItemAddedToBag
			it.IsUnavailable = false
			it.UpdatedPriceInfo = nil
			kept = append(kept, it)
		}
		next.Items = Recalculate(kept)
		next.Locked = false
		next.Status = nft.BagStatusAddingToBag
		next.DidOpenUnavailableAssets = false
		next.Revision++

	case MarkUnavailableSeen:
		next.DidOpenUnavailableAssets = true

	case ToggleExpanded:
		next.Expanded = !next.Expanded

	case Clear:
		if next.Locked {
			return state
		}
		next.Items = nil
		next.Status = nft.BagStatusAddingToBag
		next.Revision++
	}

	return next
}

func clone(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
