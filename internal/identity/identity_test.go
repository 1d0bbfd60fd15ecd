package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndVerify(t *testing.T) {
	v := NewVerifier("test-secret-0123456789", "eventhub")

	token, err := v.Issue(Identity{UID: "uid-1", Email: "a@example.com", Name: "Ada"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	id, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.UID != "uid-1" || id.Email != "a@example.com" || id.Name != "Ada" {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestVerifyRejects(t *testing.T) {
	v := NewVerifier("test-secret-0123456789", "")
	other := NewVerifier("another-secret-0123456", "")

	expired, err := v.Issue(Identity{UID: "uid-1"}, -time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	foreign, err := other.Issue(Identity{UID: "uid-1"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	noSubject, err := v.Issue(Identity{}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "uid-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{name: "empty", token: " ", want: ErrMissingToken},
		{name: "garbage", token: "not-a-jwt", want: ErrInvalidToken},
		{name: "expired", token: expired, want: ErrInvalidToken},
		{name: "wrong secret", token: foreign, want: ErrInvalidToken},
		{name: "no subject", token: noSubject, want: ErrInvalidToken},
		{name: "alg none", token: none, want: ErrInvalidToken},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if _, err := v.Verify(tc.token); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestContextRoundTrip(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("expected no identity on empty context")
	}
	ctx := WithIdentity(context.Background(), Identity{UID: "uid-9"})
	id, ok := FromContext(ctx)
	if !ok || id.UID != "uid-9" {
		t.Fatalf("unexpected identity %+v", id)
	}
}
