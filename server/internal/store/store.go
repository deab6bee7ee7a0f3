// Package store is the in-memory state of the development backend: accounts,
// rotating refresh tokens, posts and store catalogues.
package store

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/devilmonastery/shopfeed/internal/api"
	"github.com/devilmonastery/shopfeed/internal/pkg/idgen"
	"github.com/devilmonastery/shopfeed/internal/pkg/textutil"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrBadCode            = errors.New("verification code does not match")
	ErrRefreshInvalid     = errors.New("refresh token malformed or expired")
	ErrRefreshNotFound    = errors.New("refresh token not found")
	ErrRefreshReused      = errors.New("refresh token already used")
	ErrRefreshUserMissing = errors.New("refresh token owner no longer exists")
)

// User is an account
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	StoreID      string
	Verified     bool
	VerifyCode   string
	CreatedAt    time.Time
}

// Public returns the wire view of the user
func (u *User) Public() *api.User {
	return &api.User{ID: u.ID, Name: u.Name, Email: u.Email, Verified: u.Verified}
}

type refreshRecord struct {
	userID    string
	family    string // all rotations descending from one sign-in
	expiresAt time.Time
	used      bool
}

// Store holds all backend state behind one lock
type Store struct {
	mu       sync.RWMutex
	users    map[string]*User // by id
	byEmail  map[string]string
	refresh  map[string]*refreshRecord
	posts    map[string]*api.Post
	products map[string][]api.Product // by store id

	refreshLifetime time.Duration
	now             func() time.Time
}

// New creates an empty store issuing refresh tokens valid for refreshLifetime
func New(refreshLifetime time.Duration) *Store {
	return &Store{
		users:           make(map[string]*User),
		byEmail:         make(map[string]string),
		refresh:         make(map[string]*refreshRecord),
		posts:           make(map[string]*api.Post),
		products:        make(map[string][]api.Product),
		refreshLifetime: refreshLifetime,
		now:             time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser registers an account with a fresh verification code
func (s *Store) CreateUser(email, name, passwordHash, storeID string) (*User, error) {
	email = normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return nil, ErrEmailTaken
	}

	code, err := verificationCode()
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = email
	}
	if storeID == "" {
		storeID = "store-" + idgen.GenerateID()
	}

	u := &User{
		ID:           idgen.GenerateID(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		StoreID:      storeID,
		VerifyCode:   code,
		CreatedAt:    s.now(),
	}
	s.users[u.ID] = u
	s.byEmail[email] = u.ID
	if _, ok := s.products[storeID]; !ok {
		s.products[storeID] = []api.Product{}
	}

	copied := *u
	return &copied, nil
}

// UserByEmail looks up an account
func (s *Store) UserByEmail(email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *s.users[id]
	return &copied, nil
}

// UserByID looks up an account
func (s *Store) UserByID(id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

// DeleteUser removes an account. Its refresh tokens stay behind and are
// rejected as orphaned on next use.
func (s *Store) DeleteUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byEmail, u.Email)
	delete(s.users, id)
	return nil
}

// Verify marks the email as verified when code matches
func (s *Store) Verify(email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return ErrNotFound
	}
	u := s.users[id]
	if u.Verified {
		return nil
	}
	if code == "" || code != u.VerifyCode {
		return ErrBadCode
	}
	u.Verified = true
	u.VerifyCode = ""
	return nil
}

// IssueRefresh starts a new refresh token family for userID
func (s *Store) IssueRefresh(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(userID, uuid.NewString())
}

func (s *Store) issueLocked(userID, family string) string {
	token := uuid.NewString()
	s.refresh[token] = &refreshRecord{
		userID:    userID,
		family:    family,
		expiresAt: s.now().Add(s.refreshLifetime),
	}
	return token
}

// RotateRefresh spends token and returns its owner with the next token of
// the family. Refresh tokens are single use: presenting a spent token revokes
// the whole family.
func (s *Store) RotateRefresh(token string) (*User, string, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, "", ErrRefreshInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.refresh[token]
	if !ok {
		return nil, "", ErrRefreshNotFound
	}

	if rec.used {
		s.revokeFamilyLocked(rec.family)
		return nil, "", ErrRefreshReused
	}

	if s.now().After(rec.expiresAt) {
		delete(s.refresh, token)
		return nil, "", ErrRefreshInvalid
	}

	u, ok := s.users[rec.userID]
	if !ok {
		s.revokeFamilyLocked(rec.family)
		return nil, "", ErrRefreshUserMissing
	}

	rec.used = true
	next := s.issueLocked(rec.userID, rec.family)

	copied := *u
	return &copied, next, nil
}

func (s *Store) revokeFamilyLocked(family string) {
	for token, rec := range s.refresh {
		if rec.family == family {
			delete(s.refresh, token)
		}
	}
}

// CreatePost adds a post authored by author
func (s *Store) CreatePost(author *User, body string) api.Post {
	p := api.Post{
		ID:        idgen.GenerateID(),
		AuthorID:  author.ID,
		Author:    author.Name,
		Body:      body,
		Tags:      textutil.PostTags(body),
		CreatedAt: s.now().UTC().Format(time.RFC3339),
	}

	s.mu.Lock()
	s.posts[p.ID] = &p
	s.mu.Unlock()
	return p
}

// Post returns one post
func (s *Store) Post(id string) (api.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return api.Post{}, ErrNotFound
	}
	return *p, nil
}

// DeletePost removes a post
func (s *Store) DeletePost(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

// ListPosts returns up to limit posts, newest first. A non-empty tag keeps
// only posts carrying it.
func (s *Store) ListPosts(limit int, tag string) []api.Post {
	tag = textutil.NormalizeTag(tag)

	s.mu.RLock()
	out := make([]api.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if tag != "" && !slices.Contains(p.Tags, tag) {
			continue
		}
		out = append(out, *p)
	}
	s.mu.RUnlock()

	// Snowflake ids sort by creation time; compare numerically via length first
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].ID, out[j].ID
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a > b
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// AddProduct lists a product in a store, creating the store if needed
func (s *Store) AddProduct(storeID, name string, price int64) api.Product {
	p := api.Product{
		ID:      idgen.GenerateID(),
		StoreID: storeID,
		Name:    name,
		Price:   price,
	}

	s.mu.Lock()
	s.products[storeID] = append(s.products[storeID], p)
	s.mu.Unlock()
	return p
}

// EnsureStore registers an empty catalogue for storeID
func (s *Store) EnsureStore(storeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[storeID]; !ok {
		s.products[storeID] = []api.Product{}
	}
}

// Products returns the catalogue of storeID
func (s *Store) Products(storeID string) ([]api.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products, ok := s.products[storeID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]api.Product(nil), products...), nil
}

// verificationCode returns a random six digit code
func verificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
