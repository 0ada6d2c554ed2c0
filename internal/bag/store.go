package bag

import (
	"sync"

	"github.com/google/uuid"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/nft-checkout/internal/nft"
)

// Store owns the bag state. All mutation goes through Dispatch, which runs
// the reducer under a lock and notifies subscribers with a snapshot.
type Store struct {
	mu        sync.Mutex
	state     State
	subs      map[int]chan State
	nextSub   int
	persister *Persister
}

type Option func(*Store)

// WithPersister saves the state after every dispatch and seeds the store
// from the persisted bag.
func WithPersister(p *Persister) Option {
	return func(s *Store) { s.persister = p }
}

func WithState(st State) Option {
	return func(s *Store) { s.state = st.Clone() }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		state: NewState(),
		subs:  map[int]chan State{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.persister != nil {
		loaded, err := s.persister.Load()
		if err != nil {
			log.Warn("bag: could not load persisted bag", "path", s.persister.Path(), "error", err)
		} else {
			s.state = loaded
		}
	}
	return s
}

// State returns a deep copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *Store) Dispatch(action Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(action)
}

// DispatchIfCurrent applies action only when the bag is still at revision.
// It reports whether the action was applied.
func (s *Store) DispatchIfCurrent(revision uint64, action Action) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Revision != revision {
		return s.state.Clone(), false
	}
	return s.applyLocked(action), true
}

// AddAssets gives each new asset a bag-item id and adds it.
func (s *Store) AddAssets(assets ...nft.Asset) State {
	withIDs := make([]nft.Asset, len(assets))
	for i, a := range assets {
		a = a.Clone()
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		withIDs[i] = a
	}
	return s.Dispatch(AddAssets{Assets: withIDs})
}

func (s *Store) RemoveAssets(assets ...nft.Asset) State {
	return s.Dispatch(RemoveAssets{Assets: assets})
}

// Subscribe returns a channel receiving a snapshot after every dispatch.
// A slow subscriber only ever sees the latest snapshot; older undelivered
// ones are dropped. cancel closes the channel.
func (s *Store) Subscribe(buffer int) (<-chan State, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan State, buffer)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Store) applyLocked(action Action) State {
	s.state = Reduce(s.state, action)

	if s.persister != nil {
		if err := s.persister.Save(s.state); err != nil {
			log.Warn("bag: persist failed", "path", s.persister.Path(), "error", err)
		}
	}

	for _, ch := range s.subs {
		publish(ch, s.state.Clone())
	}
	return s.state.Clone()
}

func publish(ch chan State, snap State) {
	for {
		select {
		case ch <- snap:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
