package navigation

import (
	"context"
	"testing"
	"time"

	"github.com/flyeazy/flyeazy-client/internal/apperr"
	"github.com/flyeazy/flyeazy-client/internal/session"
	"github.com/flyeazy/flyeazy-client/internal/storage"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var now = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func persistedSession(t *testing.T, exp time.Time, admin bool) *storage.MemoryStore {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": "u1",
		"exp":    exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(storage.KeyToken, token))
	require.NoError(t, store.Set(storage.KeyUserID, "u1"))
	require.NoError(t, store.Set(storage.KeyIsLoggedIn, "true"))
	if admin {
		require.NoError(t, store.Set(storage.KeyIsAdmin, "true"))
	} else {
		require.NoError(t, store.Set(storage.KeyIsAdmin, "false"))
	}
	return store
}

func newGuard(store storage.Store) (*Guard, *session.Store) {
	sess := session.New(nil, store, zap.NewNop()).WithClock(func() time.Time { return now })
	return New(sess, sess, zap.NewNop()), sess
}

func TestLookup(t *testing.T) {
	g, _ := newGuard(storage.NewMemoryStore())

	tests := []struct {
		path  string
		name  string
		found bool
	}{
		{"/", "home", true},
		{"/about", "about", true},
		{"/flights", "flights", true},
		{"/admin", "admin", true},
		{"/auth", "login", true},
		{"/bookings", "bookings", true},
		{"/checkin", "checkin", true},
		{"/nowhere", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rt, ok := g.Lookup(tt.path)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.name, rt.Name)
		})
	}
}

func TestNavigate_PublicRoutesNeedNoSession(t *testing.T) {
	g, _ := newGuard(storage.NewMemoryStore())

	for _, p := range []string{PathHome, PathAbout, PathAuth} {
		d := g.Navigate(p)
		assert.False(t, d.Redirected, p)
		assert.Equal(t, p, d.Route.Path)
	}
}

func TestNavigate_GuardedRoutes(t *testing.T) {
	tests := []struct {
		name       string
		store      func(t *testing.T) *storage.MemoryStore
		path       string
		wantPath   string
		wantKind   apperr.Kind
		wantNotice string
	}{
		{
			name:     "anonymous to flights",
			store:    func(*testing.T) *storage.MemoryStore { return storage.NewMemoryStore() },
			path:     PathFlights,
			wantPath: PathAuth,
			wantKind: apperr.KindAuthRequired,
		},
		{
			name:     "user to flights",
			store:    func(t *testing.T) *storage.MemoryStore { return persistedSession(t, now.Add(time.Hour), false) },
			path:     PathFlights,
			wantPath: PathFlights,
		},
		{
			name:     "user to admin",
			store:    func(t *testing.T) *storage.MemoryStore { return persistedSession(t, now.Add(time.Hour), false) },
			path:     PathAdmin,
			wantPath: PathAuth,
			wantKind: apperr.KindAccessDenied,
		},
		{
			name:     "admin to admin",
			store:    func(t *testing.T) *storage.MemoryStore { return persistedSession(t, now.Add(time.Hour), true) },
			path:     PathAdmin,
			wantPath: PathAdmin,
		},
		{
			name:       "expired admin to admin",
			store:      func(t *testing.T) *storage.MemoryStore { return persistedSession(t, now.Add(-time.Minute), true) },
			path:       PathAdmin,
			wantPath:   PathAuth,
			wantKind:   apperr.KindSessionExpired,
			wantNotice: NoticeSessionExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := newGuard(tt.store(t))
			d := g.Navigate(tt.path)

			assert.Equal(t, tt.wantPath, d.Route.Path)
			assert.Equal(t, tt.wantPath != tt.path, d.Redirected)
			assert.Equal(t, tt.wantNotice, d.Notice)
			if tt.wantKind != apperr.KindUnknown {
				assert.Equal(t, tt.wantKind, apperr.KindOf(d.Reason))
			} else {
				assert.NoError(t, d.Reason)
			}
			assert.Equal(t, d, g.Current())
		})
	}
}

func TestNavigate_ExpiredSessionClearsStorage(t *testing.T) {
	store := persistedSession(t, now.Add(-time.Second), false)
	g, sess := newGuard(store)

	d := g.Navigate(PathBookings)
	assert.Equal(t, PathAuth, d.Route.Path)
	assert.False(t, sess.IsLoggedIn())

	_, ok := store.Get(storage.KeyToken)
	assert.False(t, ok)
	_, ok = store.Get(storage.KeyIsLoggedIn)
	assert.False(t, ok)
}

func TestNavigate_UnknownPathFallsBackHome(t *testing.T) {
	g, _ := newGuard(storage.NewMemoryStore())
	d := g.Navigate("/missing")
	assert.True(t, d.Redirected)
	assert.Equal(t, PathHome, d.Route.Path)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(d.Reason))
}

func TestWatch_LogoutRedirectsGuardedView(t *testing.T) {
	store := persistedSession(t, now.Add(time.Hour), false)
	g, sess := newGuard(store)
	require.False(t, g.Navigate(PathFlights).Redirected)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	redirects := make(chan Decision, 1)
	g.Watch(ctx, func(d Decision) { redirects <- d })

	sess.Logout()

	select {
	case d := <-redirects:
		assert.Equal(t, PathAuth, d.Route.Path)
		assert.Equal(t, PathFlights, d.Requested)
		assert.Empty(t, d.Notice)
	case <-time.After(time.Second):
		t.Fatal("no redirect after logout")
	}
	assert.Equal(t, PathAuth, g.Current().Route.Path)
}

func TestWatch_ExpiryRedirectsWithNotice(t *testing.T) {
	store := persistedSession(t, now.Add(time.Hour), true)
	g, sess := newGuard(store)
	require.False(t, g.Navigate(PathAdmin).Redirected)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	redirects := make(chan Decision, 1)
	g.Watch(ctx, func(d Decision) { redirects <- d })

	// another operation notices the expiry
	sess.WithClock(func() time.Time { return now.Add(2 * time.Hour) })
	_, err := sess.GetSessionOrFail()
	require.Error(t, err)

	select {
	case d := <-redirects:
		assert.Equal(t, PathAuth, d.Route.Path)
		assert.Equal(t, NoticeSessionExpired, d.Notice)
	case <-time.After(time.Second):
		t.Fatal("no redirect after expiry")
	}
}

func TestWatch_PublicViewStays(t *testing.T) {
	store := persistedSession(t, now.Add(time.Hour), false)
	g, sess := newGuard(store)
	g.Navigate(PathAbout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	redirected := make(chan Decision, 1)
	g.Watch(ctx, func(d Decision) { redirected <- d })

	sess.Logout()

	select {
	case <-redirected:
		t.Fatal("public view must not redirect")
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, PathAbout, g.Current().Route.Path)
}
