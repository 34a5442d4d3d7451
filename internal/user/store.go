package user

import "sync"

// Store keeps one account per session id, seeded lazily from a template.
type Store struct {
	Seed func() Account

	mu       sync.Mutex
	accounts map[string]*Account
}

// NewStore returns a store whose accounts start as DemoAccount.
func NewStore() *Store {
	return &Store{Seed: DemoAccount, accounts: make(map[string]*Account)}
}

// Get returns a copy of the session's account.
func (s *Store) Get(sessionID string) Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accountLocked(sessionID).clone()
}

// Update applies fn to the session's account under the store lock. The
// account is left untouched when fn fails.
func (s *Store) Update(sessionID string, fn func(*Account) error) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.accountLocked(sessionID)
	next := current.clone()
	if err := fn(&next); err != nil {
		return current.clone(), err
	}
	*current = next
	return next.clone(), nil
}

// Forget drops the session's account.
func (s *Store) Forget(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accounts, sessionID)
}

func (s *Store) accountLocked(sessionID string) *Account {
	if s.accounts == nil {
		s.accounts = make(map[string]*Account)
	}
	acc, ok := s.accounts[sessionID]
	if !ok {
		seed := s.Seed
		if seed == nil {
			seed = DemoAccount
		}
		a := seed()
		acc = &a
		s.accounts[sessionID] = acc
	}
	return acc
}
