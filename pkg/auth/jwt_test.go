package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/opdemr/orderflow/internal/config"
	"github.com/opdemr/orderflow/internal/domain"
)

const testSecret = "test-secret-test-secret-test-secret!"

func testVerifier() *Verifier {
	return NewVerifier(config.JWTConfig{Secret: testSecret, Issuer: "clinic-auth"})
}

func signToken(t *testing.T, claims orderflowClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func validClaims(userID uuid.UUID) orderflowClaims {
	return orderflowClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    "clinic-auth",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: "dr.rao@clinic.example",
		Role:  "doctor",
	}
}

func TestValidateAccessToken(t *testing.T) {
	userID := uuid.New()
	token := signToken(t, validClaims(userID), testSecret)

	claims, err := testVerifier().ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("UserID = %s, want %s", claims.UserID, userID)
	}
	if claims.Role != domain.RoleDoctor {
		t.Errorf("Role = %s, want doctor", claims.Role)
	}
}

func TestValidateAccessTokenExpired(t *testing.T) {
	c := validClaims(uuid.New())
	c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	token := signToken(t, c, testSecret)

	_, err := testVerifier().ValidateAccessToken(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestValidateAccessTokenRejects(t *testing.T) {
	cases := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				return signToken(t, validClaims(uuid.New()), "some-other-secret")
			},
		},
		{
			name: "wrong issuer",
			token: func(t *testing.T) string {
				c := validClaims(uuid.New())
				c.Issuer = "somewhere-else"
				return signToken(t, c, testSecret)
			},
		},
		{
			name: "no expiry",
			token: func(t *testing.T) string {
				c := validClaims(uuid.New())
				c.ExpiresAt = nil
				return signToken(t, c, testSecret)
			},
		},
		{
			name: "unknown role",
			token: func(t *testing.T) string {
				c := validClaims(uuid.New())
				c.Role = "superuser"
				return signToken(t, c, testSecret)
			},
		},
		{
			name: "subject not a uuid",
			token: func(t *testing.T) string {
				c := validClaims(uuid.New())
				c.Subject = "user-42"
				return signToken(t, c, testSecret)
			},
		},
		{
			name: "garbage",
			token: func(t *testing.T) string {
				return "not.a.token"
			},
		},
	}

	for _, tc := range cases {
		if _, err := testVerifier().ValidateAccessToken(tc.token(t)); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("%s: err = %v, want ErrTokenInvalid", tc.name, err)
		}
	}
}
