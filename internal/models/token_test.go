package models

import (
	"testing"
	"time"
)

func TestAccessToken_IsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "not expired",
			expiresAt: time.Now().Add(1 * time.Hour),
			want:      false,
		},
		{
			name:      "already expired",
			expiresAt: time.Now().Add(-1 * time.Second),
			want:      true,
		},
		{
			name:      "zero time is expired",
			expiresAt: time.Time{},
			want:      true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := &AccessToken{ExpiresAt: tt.expiresAt}
			if got := tok.IsExpired(); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAuthorizationCode_IsExpired(t *testing.T) {
	code := &AuthorizationCode{ExpiresAt: time.Now().Add(10 * time.Minute)}
	if code.IsExpired() {
		t.Error("fresh code reported expired")
	}

	code.ExpiresAt = time.Now().Add(-1 * time.Second)
	if !code.IsExpired() {
		t.Error("stale code reported valid")
	}
}
