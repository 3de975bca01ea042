package gateway_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/mleroy-dev/bankdesk/gateway"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	token string
}

func (s *staticTokens) Token() (string, bool) {
	return s.token, s.token != ""
}

func TestClient_AuthorizationHeader(t *testing.T) {
	var gotAuth atomic.Value

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	t.Run("no token sends no header", func(t *testing.T) {
		c := gateway.New(srv.URL, &staticTokens{})
		require.NoError(t, c.Get(context.Background(), "/auth/me", nil))
		require.Equal(t, "", gotAuth.Load())
	})

	t.Run("token sends bearer header", func(t *testing.T) {
		c := gateway.New(srv.URL, &staticTokens{token: "abc"})
		require.NoError(t, c.Get(context.Background(), "/auth/me", nil))
		require.Equal(t, "Bearer abc", gotAuth.Load())
	})
}

func TestClient_RequestID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NotEmpty(t, r.Header.Get("X-Request-Id"))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := gateway.New(srv.URL, &staticTokens{})
	require.NoError(t, c.Get(context.Background(), "/", nil))
}

func TestClient_LogoutOn401(t *testing.T) {
	unauthorized := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Invalid or expired token."}`, http.StatusUnauthorized)
	}))
	defer unauthorized.Close()

	newClient := func(token string) (*gateway.Client, *int32) {
		var logouts int32
		c := gateway.New(unauthorized.URL, &staticTokens{token: token})
		c.SetLogoutHandler(func() { atomic.AddInt32(&logouts, 1) })
		return c, &logouts
	}

	t.Run("401 with token triggers handler exactly once", func(t *testing.T) {
		c, logouts := newClient("abc")
		err := c.Get(context.Background(), "/bank/accounts/all", nil)
		require.Error(t, err)
		require.True(t, gateway.IsUnauthorized(err))
		require.Equal(t, int32(1), atomic.LoadInt32(logouts))
	})

	t.Run("error still reaches the caller with the backend message", func(t *testing.T) {
		c, _ := newClient("abc")
		err := c.Get(context.Background(), "/bank/accounts/all", nil)
		require.Equal(t, "Invalid or expired token.", gateway.ErrorMessage(err))
	})

	t.Run("401 without token never triggers handler", func(t *testing.T) {
		c, logouts := newClient("")
		err := c.Get(context.Background(), "/bank/accounts/all", nil)
		require.Error(t, err)
		require.Equal(t, int32(0), atomic.LoadInt32(logouts))
	})

	t.Run("401 on the login call never triggers handler", func(t *testing.T) {
		c, logouts := newClient("stale")
		err := c.Post(context.Background(), "/auth/login", map[string]string{"email": "a@b.c"}, nil, gateway.WithoutLogoutOn401())
		require.Error(t, err)
		require.Equal(t, int32(0), atomic.LoadInt32(logouts))
	})
}

func TestClient_RequestFailure(t *testing.T) {
	// Point at a server that is already closed.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := gateway.New(srv.URL, &staticTokens{})
	err := c.Get(context.Background(), "/", nil)
	require.Error(t, err)

	var rf *gateway.RequestFailure
	require.ErrorAs(t, err, &rf)
}

func TestClient_LastHandlerRegistrationWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var first, second int32
	c := gateway.New(srv.URL, &staticTokens{token: "abc"})
	c.SetLogoutHandler(func() { atomic.AddInt32(&first, 1) })
	c.SetLogoutHandler(func() { atomic.AddInt32(&second, 1) })

	_ = c.Get(context.Background(), "/", nil)
	require.Equal(t, int32(0), atomic.LoadInt32(&first))
	require.Equal(t, int32(1), atomic.LoadInt32(&second))
}
