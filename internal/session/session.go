// Package session owns the authenticated identity of the client: the stored
// token, the derived claims and the shared isLoggedIn/isAdmin flags.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/flyeazy/flyeazy-client/internal/apperr"
	"github.com/flyeazy/flyeazy-client/internal/gateway"
	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/flyeazy/flyeazy-client/internal/storage"
	"github.com/flyeazy/flyeazy-client/internal/validation"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// State is the read side of the session that services and the navigation
// guard depend on.
type State interface {
	IsLoggedIn() bool
	IsAdmin() bool
	Claims() *models.Session
	GetSessionOrFail() (*models.Session, error)
	Subscribe() (<-chan FlagChange, func())
}

// FlagChange is published whenever isLoggedIn or isAdmin changes
type FlagChange struct {
	IsLoggedIn bool
	IsAdmin    bool
	// Expired is set when the change was caused by detecting an expired token
	Expired bool
}

// Store implements State on top of persistent storage and the user endpoints
type Store struct {
	api   gateway.Requester
	store storage.Store
	log   *zap.Logger
	now   func() time.Time

	// AutoLogin chains Register into Login when the register response carries no token
	AutoLogin bool

	mu       sync.RWMutex
	loggedIn bool
	admin    bool
	claims   *models.Session
	lastErr  string
	subs     map[int]chan FlagChange
	nextSub  int
}

var _ State = (*Store)(nil)

// New creates a session store and rehydrates the flags from storage without
// any network call.
func New(api gateway.Requester, store storage.Store, log *zap.Logger) *Store {
	s := &Store{
		api:   api,
		store: store,
		log:   log.With(zap.String("component", "session")),
		now:   time.Now,
		subs:  make(map[int]chan FlagChange),
	}
	s.loggedIn, s.admin = s.persistedFlags()
	return s
}

// WithClock overrides the time source used for expiry checks
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedIn
}

func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admin
}

// Claims returns the session established by the last login or successful
// validation, or nil.
func (s *Store) Claims() *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.claims == nil {
		return nil
	}
	c := *s.claims
	return &c
}

// Err returns the message of the last failed login or register
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Subscribe returns a channel of flag changes and a function to stop the
// subscription. Slow subscribers miss intermediate changes, never the latest.
func (s *Store) Subscribe() (<-chan FlagChange, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan FlagChange, 1)
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Login posts credentials and establishes the session. On failure the flags
// are cleared and the message is kept in Err.
func (s *Store) Login(ctx context.Context, email, password string) (*models.Session, error) {
	const op = "login"
	req := models.LoginRequest{Email: email, Password: password}
	if err := validation.Check(op, req); err != nil {
		return nil, s.fail(err)
	}

	resp, err := s.api.Request(ctx, "/user/login", http.MethodPost, req, false)
	if err != nil {
		s.log.Warn("Login failed", zap.String("email", email), zap.Error(err))
		return nil, s.fail(err)
	}

	auth, err := gateway.Decode[models.AuthResponse](resp)
	if err != nil {
		return nil, s.fail(apperr.Wrap(apperr.KindNetwork, op, fmt.Errorf("invalid login response: %w", err)))
	}
	if auth.Data.Token == "" {
		msg := auth.Error
		if msg == "" {
			msg = "login response did not contain a token"
		}
		return nil, s.fail(apperr.New(apperr.KindNetwork, op, "%s", msg))
	}

	if auth.Data.User.Email == "" {
		auth.Data.User.Email = email
	}
	sess, err := s.establish(auth.Data.Token, auth.Data.User)
	if err != nil {
		return nil, s.fail(err)
	}

	s.log.Info("User logged in", zap.String("userId", sess.UserID), zap.Bool("isAdmin", sess.IsAdmin))
	return sess, nil
}

// Register creates an account. When the response carries a token the session
// is established directly; otherwise, if AutoLogin is set, Login is called.
// A nil session with a nil error means the account exists but nobody is
// logged in yet.
func (s *Store) Register(ctx context.Context, req models.RegisterRequest) (*models.Session, error) {
	const op = "register"
	if err := validation.Check(op, req); err != nil {
		return nil, s.fail(err)
	}

	resp, err := s.api.Request(ctx, "/user/register", http.MethodPost, req, false)
	if err != nil {
		s.log.Warn("Registration failed", zap.String("email", req.Email), zap.Error(err))
		return nil, s.fail(err)
	}

	if resp.JSON {
		if auth, err := gateway.Decode[models.AuthResponse](resp); err == nil && auth.Data.Token != "" {
			if auth.Data.User.Email == "" {
				auth.Data.User.Email = req.Email
			}
			sess, err := s.establish(auth.Data.Token, auth.Data.User)
			if err != nil {
				return nil, s.fail(err)
			}
			s.log.Info("User registered", zap.String("userId", sess.UserID))
			return sess, nil
		}
	}

	s.log.Info("User registered", zap.String("email", req.Email))
	if s.AutoLogin {
		return s.Login(ctx, req.Email, req.Password)
	}
	return nil, nil
}

func (s *Store) establish(token string, user models.User) (*models.Session, error) {
	if user.ID == "" {
		return nil, apperr.New(apperr.KindNetwork, "login", "response did not contain a user id")
	}

	sess := &models.Session{
		Token:   token,
		UserID:  user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	}
	// Non-JWT tokens are accepted here; GetSessionOrFail rejects them later.
	if exp, err := expiry(token); err == nil && exp != nil {
		sess.ExpiresAt = *exp
	}

	for _, kv := range [][2]string{
		{storage.KeyToken, token},
		{storage.KeyUserID, user.ID},
		{storage.KeyUserEmail, user.Email},
		{storage.KeyIsAdmin, strconv.FormatBool(user.IsAdmin)},
		{storage.KeyIsLoggedIn, "true"},
	} {
		if err := s.store.Set(kv[0], kv[1]); err != nil {
			return nil, fmt.Errorf("failed to persist session: %w", err)
		}
	}

	s.mu.Lock()
	s.claims = sess
	s.lastErr = ""
	s.mu.Unlock()
	s.setFlags(true, user.IsAdmin, false)

	c := *sess
	return &c, nil
}

func (s *Store) fail(err error) error {
	s.mu.Lock()
	s.lastErr = apperr.Message(err)
	s.mu.Unlock()
	s.setFlags(false, false, false)
	return err
}

// GetSessionOrFail is the check every privileged operation runs first. It
// reads the persisted token and user id and validates the token's expiry.
// An expired token clears the session.
func (s *Store) GetSessionOrFail() (*models.Session, error) {
	const op = "session"
	token, _ := s.store.Get(storage.KeyToken)
	userID, _ := s.store.Get(storage.KeyUserID)
	if token == "" || userID == "" {
		return nil, &apperr.Error{Kind: apperr.KindAuthRequired, Op: op, Message: "Authentication required"}
	}

	exp, err := expiry(token)
	if err != nil {
		s.log.Debug("Token could not be decoded", zap.Error(err))
		return nil, &apperr.Error{Kind: apperr.KindInvalidToken, Op: op, Message: "Invalid token, please log in again", Err: err}
	}
	if exp == nil {
		return nil, &apperr.Error{Kind: apperr.KindInvalidToken, Op: op, Message: "Invalid token, please log in again"}
	}
	if !exp.After(s.now()) {
		s.log.Info("Session expired", zap.String("userId", userID), zap.Time("expiredAt", *exp))
		s.clear(true)
		return nil, &apperr.Error{Kind: apperr.KindSessionExpired, Op: op, Message: "Session expired, please log in again"}
	}

	email, _ := s.store.Get(storage.KeyUserEmail)
	isAdmin, _ := s.store.Get(storage.KeyIsAdmin)
	sess := &models.Session{
		Token:     token,
		UserID:    userID,
		Email:     email,
		IsAdmin:   isAdmin == "true",
		ExpiresAt: *exp,
	}

	s.mu.Lock()
	s.claims = sess
	s.mu.Unlock()

	c := *sess
	return &c, nil
}

// expiry decodes the token payload without verifying the signature; the
// client does not hold the signing key. A token without exp yields nil.
func expiry(token string) (*time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, err
	}
	if exp == nil {
		return nil, nil
	}
	t := exp.Time
	return &t, nil
}

// Logout clears the in-memory and persisted session
func (s *Store) Logout() {
	s.clear(false)
	s.log.Info("User logged out")
}

func (s *Store) clear(expired bool) {
	if err := s.store.Remove(
		storage.KeyToken,
		storage.KeyUserID,
		storage.KeyUserEmail,
		storage.KeyIsAdmin,
		storage.KeyIsLoggedIn,
	); err != nil {
		s.log.Error("Failed to clear persisted session", zap.Error(err))
	}
	s.mu.Lock()
	s.claims = nil
	s.mu.Unlock()
	s.setFlags(false, false, expired)
}

func (s *Store) setFlags(loggedIn, admin, expired bool) {
	s.mu.Lock()
	changed := s.loggedIn != loggedIn || s.admin != admin
	s.loggedIn = loggedIn
	s.admin = admin
	subs := make([]chan FlagChange, 0, len(s.subs))
	for _, ch := range s.subs {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	if !changed && !expired {
		return
	}
	change := FlagChange{IsLoggedIn: loggedIn, IsAdmin: admin, Expired: expired}
	for _, ch := range subs {
		publish(ch, change)
	}
}

// publish replaces any unread change with the latest one
func publish(ch chan FlagChange, change FlagChange) {
	for {
		select {
		case ch <- change:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (s *Store) persistedFlags() (loggedIn, admin bool) {
	l, _ := s.store.Get(storage.KeyIsLoggedIn)
	a, _ := s.store.Get(storage.KeyIsAdmin)
	return l == "true", l == "true" && a == "true"
}

// Rehydrate re-reads the persisted flags and notifies subscribers if they
// differ from the in-memory ones.
func (s *Store) Rehydrate() {
	loggedIn, admin := s.persistedFlags()
	if !loggedIn {
		s.mu.Lock()
		s.claims = nil
		s.mu.Unlock()
	}
	s.setFlags(loggedIn, admin, false)
}

// WatchStorage keeps the flags in sync with changes made by other processes
// when the storage backend supports watching. It blocks until ctx is done.
func (s *Store) WatchStorage(ctx context.Context) error {
	w, ok := s.store.(storage.Watcher)
	if !ok {
		<-ctx.Done()
		return nil
	}
	err := w.Watch(ctx, s.Rehydrate)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// FetchProfile loads the current user's profile
func (s *Store) FetchProfile(ctx context.Context) (*models.User, error) {
	sess, err := s.GetSessionOrFail()
	if err != nil {
		return nil, err
	}
	resp, err := s.api.Request(ctx, "/user/"+sess.UserID, http.MethodGet, nil, true)
	if err != nil {
		return nil, err
	}
	return decodeUser(resp)
}

// UpdateProfile sends patch to PUT /user/{id} and returns the updated profile
func (s *Store) UpdateProfile(ctx context.Context, patch map[string]any) (*models.User, error) {
	sess, err := s.GetSessionOrFail()
	if err != nil {
		return nil, err
	}
	resp, err := s.api.Request(ctx, "/user/"+sess.UserID, http.MethodPut, patch, true)
	if err != nil {
		return nil, err
	}
	if !resp.JSON {
		return s.FetchProfile(ctx)
	}
	return decodeUser(resp)
}

// decodeUser accepts either a bare user object or {"user": {...}}
func decodeUser(resp *gateway.Response) (*models.User, error) {
	var wrapped struct {
		User *models.User `json:"user"`
	}
	if err := resp.Decode(&wrapped); err == nil && wrapped.User != nil {
		return wrapped.User, nil
	}
	return gateway.Decode[models.User](resp)
}
