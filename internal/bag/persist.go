package bag

import (
	"os"

	"github.com/cockroachdb/errors"

	"github.com/quantumauth-io/nft-checkout/internal/constants"
	"github.com/quantumauth-io/nft-checkout/internal/nft"
	"github.com/quantumauth-io/nft-checkout/internal/securefile"
)

type storedBag struct {
	Schema int           `json:"schema"`
	Items  []nft.BagItem `json:"items"`
}

// Persister keeps the bag items in a JSON file. Lock state and checkout
// status are not persisted: a restored bag is unlocked and editable.
type Persister struct {
	path string
}

// NewPersister resolves bag.json under the user config directory.
func NewPersister() (*Persister, error) {
	path, err := securefile.ResolvePath(constants.AppName, constants.BagFile)
	if err != nil {
		return nil, err
	}
	return &Persister{path: path}, nil
}

func NewPersisterAt(path string) *Persister {
	return &Persister{path: path}
}

func (p *Persister) Path() string { return p.path }

// Load returns an empty bag when no file exists yet.
func (p *Persister) Load() (State, error) {
	st := NewState()

	stored, err := securefile.ReadJSON[storedBag](p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return st, nil
		}
		return st, errors.Wrapf(err, "bag: load %s", p.path)
	}
	if stored.Schema != constants.SchemaV1 {
		return st, errors.Newf("bag: unsupported schema %d", stored.Schema)
	}

	items := make([]nft.BagItem, 0, len(stored.Items))
	for _, it := range stored.Items {
		it.Status = nft.BagItemAddedToBag
		it.IsUnavailable = false
		it.UpdatedPriceInfo = nil
		items = append(items, it)
	}
	st.Items = Recalculate(items)
	return st, nil
}

func (p *Persister) Save(st State) error {
	return securefile.WriteJSON(p.path, storedBag{
		Schema: constants.SchemaV1,
		Items:  st.Items,
	})
}
