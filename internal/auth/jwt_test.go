package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/erazemk/ewaste/internal/model"
)

var testUser = &model.User{ID: 7, Email: "asha@example.com", Name: "Asha", Role: model.RoleManager}

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"

	token, err := GenerateToken(secret, testUser)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 7 {
		t.Errorf("expected uid 7, got %d", claims.UserID)
	}
	if claims.Email != "asha@example.com" {
		t.Errorf("unexpected email %q", claims.Email)
	}
	if claims.Role != model.RoleManager {
		t.Errorf("expected role manager, got %q", claims.Role)
	}
	if claims.ID == "" {
		t.Error("expected a JTI")
	}
	if claims.Actor() != "Asha" {
		t.Errorf("expected actor Asha, got %q", claims.Actor())
	}
}

func TestTokensHaveDistinctJTI(t *testing.T) {
	a, _ := GenerateToken("s", testUser)
	b, _ := GenerateToken("s", testUser)
	ca, _ := ValidateToken("s", a)
	cb, _ := ValidateToken("s", b)
	if ca.ID == cb.ID {
		t.Error("expected distinct JTIs")
	}
}

func TestActorFallsBackToEmail(t *testing.T) {
	c := &Claims{Email: "x@example.com"}
	if c.Actor() != "x@example.com" {
		t.Errorf("unexpected actor %q", c.Actor())
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret1", testUser)

	_, err := ValidateToken("secret2", token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	if _, err := ValidateToken("secret", "not-a-token"); err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	claims := Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti",
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ValidateToken("s", signed); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestValidateTokenWrongIssuer(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti",
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s"))
	if _, err := ValidateToken("s", signed); err == nil {
		t.Error("expected error for foreign issuer")
	}
}

func TestTokenExpiry(t *testing.T) {
	token, _ := GenerateToken("test", testUser)
	claims, _ := ValidateToken("test", token)

	diff := time.Now().Add(TokenExpiry).Sub(claims.ExpiresAt.Time)
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("token expiry too far from expected: diff=%v", diff)
	}
}
