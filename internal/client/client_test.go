package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seat-booking/internal/api"
	"github.com/iliyamo/seat-booking/internal/config"
	"github.com/iliyamo/seat-booking/internal/model"
	"github.com/iliyamo/seat-booking/internal/queue"
	"github.com/iliyamo/seat-booking/internal/registry"
	"github.com/iliyamo/seat-booking/internal/repository"
	"github.com/iliyamo/seat-booking/internal/router"
	"github.com/iliyamo/seat-booking/internal/service"
)

func newAPI(t *testing.T, seats int) *httptest.Server {
	t.Helper()
	e := echo.New()
	router.RegisterRoutes(e, router.Deps{
		Cfg:      config.Config{JWTSecret: "client-test", AccessTTLMin: 5, BcryptCost: 4},
		Users:    repository.NewMemoryUsers(),
		Sessions: repository.NewMemorySessions(),
		Alloc:    service.NewAllocator(registry.NewMemory(model.Layout(seats, 7)), queue.Noop{}, nil),
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func loggedIn(t *testing.T, c *Client, email string) *Session {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, c.Signup(ctx, api.SignupRequest{FirstName: "Ann", Email: email, Password: "secret1"}))
	sess, err := c.Login(ctx, email, "secret1")
	require.NoError(t, err)
	require.True(t, sess.Valid())
	require.Equal(t, email, sess.User.Email)
	return sess
}

func newClient(srv *httptest.Server) *Client {
	return New(srv.URL, WithHTTPClient(srv.Client()))
}

func TestClient_BookingRoundTrip(t *testing.T) {
	srv := newAPI(t, 10)
	ctx := context.Background()
	c := newClient(srv)
	ann := loggedIn(t, c, "ann@example.com")
	bob := loggedIn(t, c, "bob@example.com")

	res, err := c.Book(ctx, ann, 7)
	require.NoError(t, err)
	require.Len(t, res.Seats, 7)

	_, err = c.Book(ctx, bob, 4)
	require.Error(t, err)
	assert.True(t, IsInsufficientSeats(err), "%v", err)

	mine, err := c.MyBooking(ctx, ann)
	require.NoError(t, err)
	assert.Len(t, mine, 7)

	seat, err := c.Seat(ctx, bob, 7)
	require.NoError(t, err)
	assert.False(t, seat.Available())

	_, err = c.Seat(ctx, bob, 11)
	assert.True(t, IsNotFound(err), "%v", err)

	cancelled, err := c.Cancel(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, 7, cancelled.Released)

	res, err = c.Book(ctx, bob, 4)
	require.NoError(t, err)
	assert.Len(t, res.Seats, 4)
}

func TestClient_InvalidCountIsRejectedLocally(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	c := newClient(srv)
	sess := &Session{Token: "anything"}
	for _, n := range []int{0, 8, -3} {
		_, err := c.Book(context.Background(), sess, n)
		assert.True(t, IsInvalidCount(err), "n=%d: %v", n, err)
	}
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestClient_NoSessionSendsNothing(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	c := newClient(srv)
	ctx := context.Background()
	_, err := c.Seats(ctx, nil)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.True(t, IsUnauthorized(err))

	_, err = c.Book(ctx, &Session{}, 2)
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = c.Cancel(ctx, nil)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestClient_ErrorMapping(t *testing.T) {
	srv := newAPI(t, 10)
	ctx := context.Background()

	c := newClient(srv)
	_, err := c.Login(ctx, "nobody@example.com", "secret1")
	assert.True(t, IsInvalidCredentials(err), "%v", err)
	assert.False(t, IsUnauthorized(err))

	_, err = c.Seats(ctx, &Session{Token: "not-a-jwt"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, api.CodeUnauthorized, apiErr.Code)
	assert.True(t, IsUnauthorized(err))
}

func TestClient_LogoutForgetsToken(t *testing.T) {
	srv := newAPI(t, 10)
	ctx := context.Background()
	c := newClient(srv)
	sess := loggedIn(t, c, "ann@example.com")
	stale := *sess

	require.NoError(t, c.Logout(ctx, sess))
	assert.False(t, sess.Valid())

	_, err := c.Seats(ctx, sess)
	assert.ErrorIs(t, err, ErrNoSession)

	// a copy taken before logout is revoked server side
	_, err = c.Seats(ctx, &stale)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "%v", err)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestClient_Profile(t *testing.T) {
	srv := newAPI(t, 10)
	ctx := context.Background()
	c := newClient(srv)
	sess := loggedIn(t, c, "ann@example.com")

	u, err := c.UpdateProfile(ctx, sess, api.ProfileUpdate{FirstName: "Ann", LastName: "Lee", Email: "ann@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Lee", u.LastName)
	assert.Equal(t, "Lee", sess.User.LastName)

	u, err = c.Profile(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, "Lee", u.LastName)

	err = c.ResetPassword(ctx, sess, api.PasswordReset{CurrentPassword: "secret1", NewPassword: "secret2", ConfirmPassword: "nope"})
	var verr *api.ValidationError
	assert.True(t, errors.As(err, &verr), "%v", err)

	require.NoError(t, c.ResetPassword(ctx, sess, api.PasswordReset{CurrentPassword: "secret1", NewPassword: "secret2", ConfirmPassword: "secret2"}))
	_, err = c.Login(ctx, "ann@example.com", "secret2")
	require.NoError(t, err)
}

func TestClient_RetriesOnlyGET(t *testing.T) {
	var gets, posts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			if atomic.AddInt32(&gets, 1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"seats":[{"id":1,"seat_number":1,"row_number":1,"status":"available"}]}`))
			return
		}
		atomic.AddInt32(&posts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, WithHTTPClient(srv.Client()), WithRetry(3, time.Millisecond, 2*time.Millisecond))
	sess := &Session{Token: "t"}

	seats, err := c.Seats(context.Background(), sess)
	require.NoError(t, err)
	assert.Len(t, seats, 1)
	assert.EqualValues(t, 3, atomic.LoadInt32(&gets))

	_, err = c.Book(context.Background(), sess, 2)
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&posts))
}

func TestClient_LoginRevokesTokenWhenProfileFails(t *testing.T) {
	var logouts int32
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"token":"tok-1","expires_at":"2099-01-01T00:00:00Z","message":"Login successful"}`))
		case "/auth/logout":
			atomic.AddInt32(&logouts, 1)
			auth = r.Header.Get("Authorization")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"message":"Logged out"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, WithHTTPClient(srv.Client()), WithRetry(1, time.Millisecond, time.Millisecond))
	sess, err := c.Login(context.Background(), "ann@example.com", "secret1")
	require.Error(t, err)
	assert.Nil(t, sess)
	assert.EqualValues(t, 1, atomic.LoadInt32(&logouts))
	assert.Equal(t, "Bearer tok-1", auth)
}

func TestSessionStore(t *testing.T) {
	store, err := NewSessionStore(filepath.Join(t.TempDir(), "nested", "session.json"))
	require.NoError(t, err)

	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	want := &Session{
		Token:     "abc",
		ExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second),
		User:      api.User{ID: 4, FirstName: "Ann", Email: "ann@example.com"},
	}
	require.NoError(t, store.Save(want))
	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want.Token, got.Token)
	assert.Equal(t, want.User, got.User)
	assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt))
	assert.False(t, got.Expired(time.Now()))
	assert.True(t, got.Expired(time.Now().Add(2*time.Hour)))

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

// fakeSource counts calls and flags overlapping polls.
type fakeSource struct {
	mu       sync.Mutex
	calls    int
	inFlight int
	overlap  bool
	err      error
}

func (f *fakeSource) Seats(ctx context.Context, sess *Session) ([]api.Seat, error) {
	f.mu.Lock()
	f.calls++
	f.inFlight++
	if f.inFlight > 1 {
		f.overlap = true
	}
	n, err := f.calls, f.err
	f.mu.Unlock()

	time.Sleep(2 * time.Millisecond)

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return []api.Seat{{ID: uint64(n), Status: model.StatusAvailable}}, nil
}

func (f *fakeSource) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestPoller_FirstPollIsImmediate(t *testing.T) {
	src := &fakeSource{}
	updates := make(chan []api.Seat, 1)
	p := NewPoller(src, &Session{Token: "t"}, PollerConfig{
		Interval: time.Hour,
		OnUpdate: func(s []api.Seat) { updates <- s },
	})
	p.Start(context.Background())
	defer p.Stop()

	select {
	case seats := <-updates:
		assert.Len(t, seats, 1)
	case <-time.After(time.Second):
		t.Fatal("first poll did not happen before the first tick")
	}
	seats, at := p.Last()
	assert.Len(t, seats, 1)
	assert.False(t, at.IsZero())
}

func TestPoller_PollsOnInterval(t *testing.T) {
	src := &fakeSource{}
	p := NewPoller(src, &Session{Token: "t"}, PollerConfig{Interval: 10 * time.Millisecond})
	p.Start(context.Background())
	defer p.Stop()

	require.Eventually(t, func() bool { return src.count() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestPoller_ErrorsDoNotStopTheLoop(t *testing.T) {
	src := &fakeSource{err: errors.New("boom")}
	var errs int32
	p := NewPoller(src, &Session{Token: "t"}, PollerConfig{
		Interval: 10 * time.Millisecond,
		OnError:  func(error) { atomic.AddInt32(&errs, 1) },
	})
	p.Start(context.Background())
	defer p.Stop()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&errs) >= 3 }, time.Second, 5*time.Millisecond)
	seats, _ := p.Last()
	assert.Empty(t, seats)
}

func TestPoller_RefreshAndNoOverlap(t *testing.T) {
	src := &fakeSource{}
	p := NewPoller(src, &Session{Token: "t"}, PollerConfig{Interval: time.Hour})
	p.Start(context.Background())
	defer p.Stop()

	require.Eventually(t, func() bool { return src.count() == 1 }, time.Second, time.Millisecond)
	for i := 0; i < 10; i++ {
		p.Refresh()
	}
	require.Eventually(t, func() bool { return src.count() >= 2 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	// ten requests while one slot is buffered collapse to at most two polls
	assert.LessOrEqual(t, src.count(), 3)
	src.mu.Lock()
	assert.False(t, src.overlap)
	src.mu.Unlock()
}

func TestPoller_NoCallbacksAfterStop(t *testing.T) {
	src := &fakeSource{}
	var updates int32
	p := NewPoller(src, &Session{Token: "t"}, PollerConfig{
		Interval: 5 * time.Millisecond,
		OnUpdate: func([]api.Seat) { atomic.AddInt32(&updates, 1) },
	})
	p.Start(context.Background())
	require.Eventually(t, func() bool { return atomic.LoadInt32(&updates) >= 2 }, time.Second, time.Millisecond)

	p.Stop()
	after := atomic.LoadInt32(&updates)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&updates))

	// stopping twice is harmless
	p.Stop()
}
