package store

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/drummonds/bandgap/config"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// Store owns the application state. Construct one at startup with New,
// hand it to the views and Close it at shutdown.
type Store struct {
	apiURL string
	client *http.Client

	// notifyMu orders commits so subscribers see states in commit order
	notifyMu sync.Mutex
	mu       sync.RWMutex
	state    State

	subMu       sync.Mutex
	subscribers map[int]func(State)
	nextSubID   int
}

// Option configures a Store
type Option func(*Store)

// WithHTTPClient replaces the HTTP client used by the actions
func WithHTTPClient(client *http.Client) Option {
	return func(s *Store) {
		if client != nil {
			s.client = client
		}
	}
}

// New creates a store. The API URL is chosen once, here, from cfg.
func New(cfg config.StoreConfig, opts ...Option) *Store {
	s := &Store{
		apiURL: strings.TrimSuffix(cfg.APIURL(), "/"),
		client: &http.Client{},
		state: State{
			Predictions: emptyPredictions(),
		},
		subscribers: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	Logger.Info("Store created", "apiURL", s.apiURL, "mode", cfg.Mode)
	return s
}

// APIURL returns the base URL selected at construction
func (s *Store) APIURL() string {
	return s.apiURL
}

// Close drops every subscriber and idle connection
func (s *Store) Close() {
	s.subMu.Lock()
	s.subscribers = make(map[int]func(State))
	s.subMu.Unlock()
	s.client.CloseIdleConnections()
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Subscribe registers fn to be called with a snapshot after every mutation.
// Snapshots arrive in commit order. fn runs before the mutator returns and
// must not call a mutator itself. The returned function removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subscribers, id)
	}
}

// SetPredictions replaces the predictions wholesale
func (s *Store) SetPredictions(predictions Predictions) {
	s.commit(func(st *State) { st.Predictions = predictions.clone() })
}

// SetAPIStatus replaces the API status string
func (s *Store) SetAPIStatus(status string) {
	s.commit(func(st *State) { st.APIStatus = status })
}

// SetProcessing replaces the processing flag
func (s *Store) SetProcessing(isProcessing bool) {
	s.commit(func(st *State) { st.IsProcessing = isProcessing })
}

// SetError replaces the error message, an empty string clears it
func (s *Store) SetError(message string) {
	s.commit(func(st *State) { st.Error = message })
}

// commit applies one mutation and notifies subscribers before the next
// commit can start
func (s *Store) commit(mutate func(*State)) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	mutate(&s.state)
	snapshot := s.state.clone()
	s.mu.Unlock()

	s.subMu.Lock()
	subscribers := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
}
