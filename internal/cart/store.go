package cart

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Durable storage keys
const (
	KeyCartItems       = "cartItems"
	KeyShippingAddress = "shippingAddress"
	KeyPaymentMethod   = "paymentMethod"
)

// Store is the single cart instance of a client session. Every persisted
// action is written to storage before the new state becomes visible.
type Store struct {
	mu          sync.Mutex
	state       State
	storage     Storage
	subscribers map[int]func(State)
	nextID      int
}

// New creates a store rehydrated from storage, falling back to defaults for
// every key that is absent.
func New(storage Storage) (*Store, error) {
	state, err := load(storage)
	if err != nil {
		return nil, err
	}
	return &Store{
		state:       state,
		storage:     storage,
		subscribers: make(map[int]func(State)),
	}, nil
}

// State returns a snapshot of the current cart
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Dispatch applies an action. If persisting fails the state is left unchanged.
func (s *Store) Dispatch(a Action) error {
	s.mu.Lock()
	next := Reduce(s.state, a)
	if a.persists() {
		if err := save(s.storage, next); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.state = next
	subs := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next.clone())
	}
	return nil
}

// Subscribe registers fn to run after every dispatch. The returned func removes it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func load(storage Storage) (State, error) {
	state := DefaultState()

	if err := loadKey(storage, KeyCartItems, &state.Lines); err != nil {
		return State{}, err
	}
	if state.Lines == nil {
		state.Lines = []Line{}
	}
	if err := loadKey(storage, KeyShippingAddress, &state.ShippingAddress); err != nil {
		return State{}, err
	}
	if err := loadKey(storage, KeyPaymentMethod, &state.PaymentMethod); err != nil {
		return State{}, err
	}
	if state.PaymentMethod == "" {
		state.PaymentMethod = DefaultPaymentMethod
	}
	return state, nil
}

func loadKey(storage Storage, key string, v any) error {
	data, ok, err := storage.Load(key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func save(storage Storage, state State) error {
	values := map[string]any{
		KeyCartItems:       state.Lines,
		KeyShippingAddress: state.ShippingAddress,
		KeyPaymentMethod:   state.PaymentMethod,
	}
	encoded := make(map[string][]byte, len(values))
	for key, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		encoded[key] = data
	}
	if err := storage.Save(encoded); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}
