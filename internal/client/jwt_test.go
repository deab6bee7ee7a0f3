package client

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/devilmonastery/shopfeed/internal/credstore"
)

func createTestToken(claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	// ParseUnverified ignores the signature
	tokenString, _ := token.SigningString()
	return tokenString + ".fake_signature"
}

func TestTokenTimes(t *testing.T) {
	iat := time.Now().Add(-10 * time.Minute).Truncate(time.Second)
	exp := time.Now().Add(5 * time.Minute).Truncate(time.Second)

	token := createTestToken(jwt.MapClaims{
		"sub": "user-1",
		"iat": float64(iat.Unix()),
		"exp": float64(exp.Unix()),
	})

	if got := IssuedAt(token); !got.Equal(iat) {
		t.Errorf("IssuedAt() = %v, want %v", got, iat)
	}
	if got := ExpiresAt(token); !got.Equal(exp) {
		t.Errorf("ExpiresAt() = %v, want %v", got, exp)
	}
	if IsTokenExpired(token) {
		t.Error("token should not be expired")
	}
}

func TestIsTokenExpired(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"expired", createTestToken(jwt.MapClaims{"exp": float64(time.Now().Add(-time.Hour).Unix())}), true},
		{"valid", createTestToken(jwt.MapClaims{"exp": float64(time.Now().Add(time.Hour).Unix())}), false},
		{"no exp claim", createTestToken(jwt.MapClaims{"sub": "user-1"}), false},
		{"opaque token", "A1", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTokenExpired(tt.token); got != tt.want {
				t.Errorf("IsTokenExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCredentialPresentSince(t *testing.T) {
	iat := time.Now().Add(-time.Minute).Truncate(time.Second)
	token := createTestToken(jwt.MapClaims{"iat": float64(iat.Unix())})

	store := credstore.NewMemoryStore()
	if err := store.SetPair(t.Context(), token, "R1"); err != nil {
		t.Fatalf("SetPair failed: %v", err)
	}
	creds := NewCredentials(store)

	cred, ok, err := creds.Get(t.Context(), KindAccess)
	if err != nil || !ok {
		t.Fatalf("Get(access) = %v, %v", ok, err)
	}
	if !cred.PresentSince.Equal(iat) {
		t.Errorf("PresentSince = %v, want %v", cred.PresentSince, iat)
	}

	refresh, ok, err := creds.Get(t.Context(), KindRefresh)
	if err != nil || !ok {
		t.Fatalf("Get(refresh) = %v, %v", ok, err)
	}
	if !refresh.PresentSince.IsZero() {
		t.Errorf("opaque refresh PresentSince = %v, want zero", refresh.PresentSince)
	}

	if _, ok, _ := creds.Get(t.Context(), KindStoreID); ok {
		t.Error("storeId should be absent")
	}
}
