package util

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, claims Claims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return s
}

func TestValidateJWTHMAC(t *testing.T) {
	tokenString := signedToken(t, Claims{
		Email: "student@example.com",
		Role:  RoleStudent,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, testSecret)

	claims, err := ValidateJWT(tokenString, testSecret)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Subject != "user-1" || claims.Role != RoleStudent {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestValidateJWTRejectsWrongSecret(t *testing.T) {
	tokenString := signedToken(t, Claims{
		Role:             RoleStudent,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}, "other-secret")

	if _, err := ValidateJWT(tokenString, testSecret); err == nil {
		t.Fatal("expected validation failure with wrong secret")
	}
}

func TestValidateJWTRejectsExpiredToken(t *testing.T) {
	tokenString := signedToken(t, Claims{
		Role:             RoleStudent,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))},
	}, testSecret)

	if _, err := ValidateJWT(tokenString, testSecret); err == nil {
		t.Fatal("expected validation failure for expired token")
	}
}

func TestValidateJWTRejectsUnsupportedAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: RoleStudent})
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing unsecured token: %v", err)
	}
	if _, err := ValidateJWT(tokenString, testSecret); err == nil {
		t.Fatal("expected validation failure for alg=none token")
	}
}
