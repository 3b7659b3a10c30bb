package devserver

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound means the record does not exist.
	ErrNotFound = errors.New("devserver: not found")
	// ErrInvalidCredentials means the email/password pair did not match.
	ErrInvalidCredentials = errors.New("devserver: invalid credentials")
	// ErrRevoked means the refresh credential was revoked.
	ErrRevoked = errors.New("devserver: credential revoked")
)

// User is a backend user record.
type User struct {
	UID                string
	Email              string
	Role               string
	DisplayName        string
	City               string
	Country            string
	ProfilURL          string
	VerificationStatus string
	AdsSaved           []string
	Online             bool
	LastSeen           time.Time

	passwordHash      string
	refreshCredential string
	refreshRevoked    bool
}

// Notification is one feed entry.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// Post is a classified ad record.
type Post struct {
	ID       string `json:"id"`
	UserID   string `json:"userID"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Status   string `json:"status"`
	Sold     bool   `json:"sold"`
	Views    int    `json:"views"`
	Clicks   int    `json:"clicks"`
	Shares   int    `json:"shares"`
}

// Store is the dev stack's in-memory database. Everything is lost on
// restart, which is the point.
type Store struct {
	mu            sync.Mutex
	users         map[string]*User // uid -> user
	byEmail       map[string]string
	byRefresh     map[string]string
	posts         map[string]*Post
	notifications map[string][]*Notification // uid -> feed
	resetTokens   map[string]string          // token -> email
	emailCodes    map[string]string          // uid -> code
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:         make(map[string]*User),
		byEmail:       make(map[string]string),
		byRefresh:     make(map[string]string),
		posts:         make(map[string]*Post),
		notifications: make(map[string][]*Notification),
		resetTokens:   make(map[string]string),
		emailCodes:    make(map[string]string),
	}
}

// CreateUser registers a user with a hashed password and a fresh refresh
// credential.
func (s *Store) CreateUser(email, password, role string) (*User, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	refresh, err := randomToken()
	if err != nil {
		return nil, err
	}

	u := &User{
		UID:                uuid.NewString(),
		Email:              email,
		Role:               role,
		VerificationStatus: "verified",
		passwordHash:       hash,
		refreshCredential:  refresh,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[email]; exists {
		return nil, errors.New("devserver: email already registered")
	}
	s.users[u.UID] = u
	s.byEmail[email] = u.UID
	s.byRefresh[refresh] = u.UID
	return cloneUser(u), nil
}

// Authenticate checks an email/password pair.
func (s *Store) Authenticate(email, password string) (*User, error) {
	s.mu.Lock()
	uid, ok := s.byEmail[email]
	var u *User
	if ok {
		u = s.users[uid]
	}
	s.mu.Unlock()

	if u == nil || !verifyPassword(password, u.passwordHash) {
		return nil, ErrInvalidCredentials
	}
	return cloneUser(u), nil
}

// UserByUID returns the user record.
func (s *Store) UserByUID(uid string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[uid]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

// UserByRefresh resolves a refresh credential, honoring revocation.
func (s *Store) UserByRefresh(refresh string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uid, ok := s.byRefresh[refresh]
	if !ok {
		return nil, ErrNotFound
	}
	u := s.users[uid]
	if u.refreshRevoked {
		return nil, ErrRevoked
	}
	return cloneUser(u), nil
}

// RefreshCredential returns the user's current refresh credential.
func (s *Store) RefreshCredential(uid string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[uid]
	if !ok || u.refreshRevoked {
		return "", false
	}
	return u.refreshCredential, true
}

// RevokeRefresh invalidates the user's refresh credential.
func (s *Store) RevokeRefresh(uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[uid]
	if !ok {
		return ErrNotFound
	}
	u.refreshRevoked = true
	return nil
}

// SetOnline updates presence.
func (s *Store) SetOnline(uid string, online bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[uid]
	if !ok {
		return ErrNotFound
	}
	u.Online = online
	u.LastSeen = at
	return nil
}

// UpdatePassword replaces the user's password by email.
func (s *Store) UpdatePassword(email, newPassword string) error {
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	uid, ok := s.byEmail[email]
	if !ok {
		return ErrNotFound
	}
	s.users[uid].passwordHash = hash
	return nil
}

// UpdateEmail changes the user's address.
func (s *Store) UpdateEmail(uid, newEmail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[uid]
	if !ok {
		return ErrNotFound
	}
	if _, taken := s.byEmail[newEmail]; taken {
		return errors.New("devserver: email already registered")
	}
	delete(s.byEmail, u.Email)
	u.Email = newEmail
	s.byEmail[newEmail] = uid
	return nil
}

// ToggleFavorite flips a post in the user's saved list and returns it.
func (s *Store) ToggleFavorite(uid, postID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[uid]
	if !ok {
		return nil, ErrNotFound
	}
	for i, id := range u.AdsSaved {
		if id == postID {
			u.AdsSaved = append(u.AdsSaved[:i], u.AdsSaved[i+1:]...)
			return append([]string(nil), u.AdsSaved...), nil
		}
	}
	u.AdsSaved = append(u.AdsSaved, postID)
	return append([]string(nil), u.AdsSaved...), nil
}

// AddNotification appends to the user's feed.
func (s *Store) AddNotification(uid, title, body string) (*Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[uid]; !ok {
		return nil, ErrNotFound
	}
	n := &Notification{
		ID:        uuid.NewString(),
		Title:     title,
		Body:      body,
		CreatedAt: time.Now(),
	}
	s.notifications[uid] = append(s.notifications[uid], n)
	return n, nil
}

// UnreadNotifications returns the user's unread feed entries.
func (s *Store) UnreadNotifications(uid string) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var unread []Notification
	for _, n := range s.notifications[uid] {
		if !n.Read {
			unread = append(unread, *n)
		}
	}
	return unread
}

// MarkNotificationRead flags one entry as read.
func (s *Store) MarkNotificationRead(uid, notifID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications[uid] {
		if n.ID == notifID {
			n.Read = true
			return nil
		}
	}
	return ErrNotFound
}

// AddPost inserts a post.
func (s *Store) AddPost(userID, title, category string) *Post {
	p := &Post{
		ID:       uuid.NewString(),
		UserID:   userID,
		Title:    title,
		Category: category,
		Status:   "active",
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[p.ID] = p
	return clonePost(p)
}

// PostByID returns a post.
func (s *Store) PostByID(id string) (*Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePost(p), nil
}

// UpdatePost applies title/category edits on behalf of its owner.
func (s *Store) UpdatePost(id, userID, title, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok || p.UserID != userID {
		return ErrNotFound
	}
	if title != "" {
		p.Title = title
	}
	if category != "" {
		p.Category = category
	}
	return nil
}

// DeletePost removes the owner's post.
func (s *Store) DeletePost(id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok || p.UserID != userID {
		return ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

// MarkSold flags the owner's post as sold.
func (s *Store) MarkSold(id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok || p.UserID != userID {
		return ErrNotFound
	}
	p.Sold = true
	p.Status = "sold"
	return nil
}

// Increment bumps one of the engagement counters.
func (s *Store) Increment(id, metric string) (*Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	switch metric {
	case "view":
		p.Views++
	case "click":
		p.Clicks++
	case "share":
		p.Shares++
	default:
		return nil, ErrNotFound
	}
	return clonePost(p), nil
}

// CreateResetToken issues a password reset token for the email.
func (s *Store) CreateResetToken(email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[email]; !ok {
		return "", ErrNotFound
	}
	token, err := randomToken()
	if err != nil {
		return "", err
	}
	s.resetTokens[token] = email
	return token, nil
}

// ConsumeResetToken validates a reset token. consume removes it.
func (s *Store) ConsumeResetToken(token string, consume bool) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.resetTokens[token]
	if ok && consume {
		delete(s.resetTokens, token)
	}
	return email, ok
}

// SetEmailCode records a verification code for an address change.
func (s *Store) SetEmailCode(uid, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emailCodes[uid] = code
}

// CheckEmailCode consumes the code if it matches.
func (s *Store) CheckEmailCode(uid, code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailCodes[uid] != code || code == "" {
		return false
	}
	delete(s.emailCodes, uid)
	return true
}

// timeNow is swappable in tests.
var timeNow = time.Now

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func cloneUser(u *User) *User {
	c := *u
	c.AdsSaved = append([]string(nil), u.AdsSaved...)
	return &c
}

func clonePost(p *Post) *Post {
	c := *p
	return &c
}
