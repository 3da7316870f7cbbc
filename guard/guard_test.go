package guard

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-agrisense/models"
	"go-agrisense/session"
)

var (
	loading   = session.Session{IsLoading: true}
	anonymous = session.Session{}
	signedIn  = session.Session{Identity: &models.User{ID: 1, Username: "amina"}}
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name string
		s    session.Session
		want Decision
	}{
		{"loading", loading, Pending},
		{"loading with identity", session.Session{IsLoading: true, Identity: signedIn.Identity}, Pending},
		{"anonymous", anonymous, Redirect},
		{"signed in", signedIn, Allow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.s))
			assert.Equal(t, tt.want, Decide(tt.s), "idempotent")
		})
	}
}

func TestViewGuardNeverRedirectsWhileLoading(t *testing.T) {
	var redirects []string
	g := NewViewGuard(func(to string) { redirects = append(redirects, to) })

	assert.Equal(t, Loading, g.Observe(loading))
	assert.Equal(t, Loading, g.Observe(loading))
	assert.Empty(t, redirects)
}

func TestViewGuardRedirectsOncePerTransition(t *testing.T) {
	var redirects []string
	g := NewViewGuard(func(to string) { redirects = append(redirects, to) })

	g.Observe(loading)
	assert.Equal(t, Redirected, g.Observe(anonymous))
	g.Observe(anonymous)
	assert.Equal(t, []string{LoginPath}, redirects)

	assert.Equal(t, Allowed, g.Observe(signedIn))
	g.Observe(anonymous)
	assert.Equal(t, []string{LoginPath, LoginPath}, redirects)
}

type stubAuth struct{}

func (stubAuth) Login(_ context.Context, c models.Credentials) (*models.AuthResponse, error) {
	return &models.AuthResponse{Token: "t", User: models.User{ID: 1, Username: c.Username}}, nil
}
func (stubAuth) Register(context.Context, models.RegisterRequest) (*models.AuthResponse, error) {
	return nil, nil
}
func (stubAuth) Logout(context.Context) error { return nil }
func (stubAuth) CurrentUser(context.Context) (*models.User, error) { return nil, nil }
func (stubAuth) SetToken(string) {}

func TestAttachFollowsStore(t *testing.T) {
	store := session.New(stubAuth{}, nil, nil)
	redirects := 0
	g := NewViewGuard(func(string) { redirects++ })

	detach := g.Attach(store)
	assert.Equal(t, Loading, g.State())

	store.Resolve(context.Background())
	assert.Equal(t, Redirected, g.State())
	assert.Equal(t, 1, redirects)

	_, err := store.Login(context.Background(), models.Credentials{Username: "amina", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, Allowed, g.State())

	detach()
	store.Logout(context.Background())
	assert.Equal(t, Allowed, g.State())
	assert.Equal(t, 1, redirects)
}

func TestViewGuardIgnoresStaleSnapshot(t *testing.T) {
	store := session.New(stubAuth{}, nil, nil)
	older, err := store.Resolve(context.Background())
	require.NoError(t, err)
	newer, err := store.Login(context.Background(), models.Credentials{Username: "amina", Password: "pw"})
	require.NoError(t, err)

	redirects := 0
	g := NewViewGuard(func(string) { redirects++ })
	assert.Equal(t, Allowed, g.Observe(newer))
	assert.Equal(t, Allowed, g.Observe(older))
	assert.Equal(t, Allowed, g.State())
	assert.Zero(t, redirects)
}

func TestAttachConvergesUnderConcurrentPublishes(t *testing.T) {
	store := session.New(stubAuth{}, nil, nil)
	g := NewViewGuard(nil)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_, _ = store.Login(context.Background(), models.Credentials{Username: "amina", Password: "pw"})
			store.Logout(context.Background())
		}
	}()
	var detach func()
	go func() {
		defer wg.Done()
		detach = g.Attach(store)
	}()
	wg.Wait()
	defer detach()
	assert.Equal(t, Redirected, g.State(), "last publish was a logout")

	_, err := store.Login(context.Background(), models.Credentials{Username: "amina", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, Allowed, g.State())
	store.Logout(context.Background())
	assert.Equal(t, Redirected, g.State())
}

func TestResolveRoutes(t *testing.T) {
	route, out, err := Resolve("/dashboard", signedIn)
	require.NoError(t, err)
	assert.Equal(t, "Dashboard", route.Title)
	assert.Equal(t, Allow, out.Decision)

	_, out, err = Resolve("/crop-prediction/", anonymous)
	require.NoError(t, err)
	assert.Equal(t, Redirect, out.Decision)
	assert.Equal(t, LoginPath, out.RedirectTo)

	_, out, err = Resolve("dashboard", loading)
	require.NoError(t, err)
	assert.Equal(t, Pending, out.Decision)

	_, out, err = Resolve("/login", anonymous)
	require.NoError(t, err)
	assert.Equal(t, Allow, out.Decision)

	route, out, err = Resolve("/", anonymous)
	require.NoError(t, err)
	assert.Equal(t, DashboardPath, route.Path)
	assert.Equal(t, DashboardPath, out.RedirectTo)

	_, _, err = Resolve("/nope", signedIn)
	assert.ErrorIs(t, err, ErrUnknownRoute)
}

func TestRoutes(t *testing.T) {
	protected := 0
	for _, r := range Routes() {
		if r.Protected {
			protected++
		}
	}
	assert.Len(t, Routes(), 4)
	assert.Equal(t, 2, protected)
}
