package auth

import (
	"errors"
	"net/http/httptest"
	"testing"

	"mercator-hq/wsrelay/pkg/config"
)

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name    string
		sources []Source
		header  map[string]string
		query   string
		want    string
		wantErr error
	}{
		{
			name:    "header",
			sources: DefaultSources,
			header:  map[string]string{"X-Token": "tok-1"},
			want:    "tok-1",
		},
		{
			name:    "query fallback",
			sources: DefaultSources,
			query:   "?token=tok-2",
			want:    "tok-2",
		},
		{
			name:    "header wins over query",
			sources: DefaultSources,
			header:  map[string]string{"X-Token": "tok-1"},
			query:   "?token=tok-2",
			want:    "tok-1",
		},
		{
			name:    "bearer scheme",
			sources: []Source{{Type: SourceHeader, Name: "Authorization", Scheme: "Bearer"}},
			header:  map[string]string{"Authorization": "Bearer tok-3"},
			want:    "tok-3",
		},
		{
			name:    "wrong scheme",
			sources: []Source{{Type: SourceHeader, Name: "Authorization", Scheme: "Bearer"}},
			header:  map[string]string{"Authorization": "Basic dXNlcg=="},
			wantErr: ErrMissingToken,
		},
		{
			name:    "nothing supplied",
			sources: DefaultSources,
			wantErr: ErrMissingToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/ws"+tt.query, nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}

			got, err := ExtractToken(req, tt.sources)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("token = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAuthenticator(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Users = []config.User{
		{Name: "alice", Token: "tok-alice"},
		{Name: "bob", Token: "tok-bob"},
	}
	store := config.NewStore(cfg, "")
	a := NewAuthenticator(store)

	t.Run("lookup", func(t *testing.T) {
		user, err := a.Lookup("tok-bob")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.Name != "bob" {
			t.Errorf("user = %q, want bob", user.Name)
		}
		if _, err := a.Lookup("tok-carol"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
		if _, err := a.Lookup(""); !errors.Is(err, ErrMissingToken) {
			t.Errorf("expected ErrMissingToken, got %v", err)
		}
	})

	t.Run("request", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/ws?token=tok-alice", nil)
		user, err := a.Authenticate(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.Name != "alice" {
			t.Errorf("user = %q, want alice", user.Name)
		}
	})

	t.Run("follows reload", func(t *testing.T) {
		next := config.DefaultConfig()
		next.Users = []config.User{{Name: "carol", Token: "tok-carol"}}
		store.Replace(next)

		if _, err := a.Lookup("tok-alice"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected removed user to be rejected, got %v", err)
		}
		if user, err := a.Lookup("tok-carol"); err != nil || user.Name != "carol" {
			t.Errorf("expected carol, got %+v, %v", user, err)
		}
	})
}
