package auth

import (
	"testing"
	"time"

	"github.com/dalemusser/fypcollab/internal/domain/models"
)

func TestTokens_RoundTrip(t *testing.T) {
	tk, err := NewTokens("round-trip-secret-0123456789abcdef", time.Hour)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	raw, exp, err := tk.Issue("507f1f77bcf86cd799439011", models.RoleSupervisor)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Errorf("expiry should be in the future, got %v", exp)
	}

	claims, err := tk.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID != "507f1f77bcf86cd799439011" || claims.Role != models.RoleSupervisor {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if claims.ID == "" {
		t.Error("expected a token id")
	}
}

func TestTokens_Expired(t *testing.T) {
	tk, _ := NewTokens("expiry-secret-0123456789abcdef0123", time.Minute)
	past := time.Now().Add(-2 * time.Hour)
	tk.now = func() time.Time { return past }
	raw, _, err := tk.Issue("507f1f77bcf86cd799439011", models.RoleStudent)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tk.now = time.Now
	if _, err := tk.Parse(raw); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestTokens_WrongSecret(t *testing.T) {
	a, _ := NewTokens("secret-a-0123456789abcdef0123456789", time.Hour)
	b, _ := NewTokens("secret-b-0123456789abcdef0123456789", time.Hour)
	raw, _, _ := a.Issue("507f1f77bcf86cd799439011", models.RoleStudent)

	if _, err := b.Parse(raw); err == nil {
		t.Error("expected token signed with another secret to be rejected")
	}
}

func TestNewTokens_Validation(t *testing.T) {
	if _, err := NewTokens("", time.Hour); err == nil {
		t.Error("expected empty secret to fail")
	}
	if _, err := NewTokens("x", 0); err == nil {
		t.Error("expected zero ttl to fail")
	}
}
