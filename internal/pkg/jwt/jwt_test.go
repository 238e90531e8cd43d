package jwt

import (
	"errors"
	"testing"
)

const (
	testSecret  = "test-access-secret"
	otherSecret = "some-other-secret"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(42, "C-1001", "STUDENT", "CS", testSecret, 15)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	claims, err := ValidateAccessToken(token, testSecret)
	if err != nil {
		t.Fatalf("ValidateAccessToken() error = %v", err)
	}
	if claims.RecordID != 42 || claims.CardNumber != "C-1001" || claims.Role != "STUDENT" || claims.Department != "CS" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(42, "C-1001", "STUDENT", "CS", testSecret, 15)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if _, err := ValidateAccessToken(token, otherSecret); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("error = %v, want ErrTokenInvalid", err)
	}
}

func TestAccessTokenExpired(t *testing.T) {
	token, err := GenerateAccessToken(42, "C-1001", "STUDENT", "CS", testSecret, -1)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if _, err := ValidateAccessToken(token, testSecret); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("error = %v, want ErrTokenExpired", err)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	token, err := GenerateRefreshToken("tok-alice", "tid-1", testSecret, 7)
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}

	claims, err := ValidateRefreshToken(token, testSecret)
	if err != nil {
		t.Fatalf("ValidateRefreshToken() error = %v", err)
	}
	if claims.IdentityToken != "tok-alice" || claims.TokenID != "tid-1" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestRefreshTokenGarbage(t *testing.T) {
	if _, err := ValidateRefreshToken("not-a-jwt", testSecret); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("error = %v, want ErrTokenInvalid", err)
	}
}

// Access and refresh tokens are signed with different secrets; one must
// never validate as the other.
func TestTokenKindsDoNotCross(t *testing.T) {
	access, err := GenerateAccessToken(42, "C-1001", "STUDENT", "CS", testSecret, 15)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if _, err := ValidateRefreshToken(access, otherSecret); err == nil {
		t.Error("access token must not validate as a refresh token under another secret")
	}
}
