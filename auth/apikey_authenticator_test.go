package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestAPIKeyAuthenticator(t *testing.T) {
	a := NewAPIKeyAuthenticator([]string{"alpha", "", "  ", "beta"})
	if a.Len() != 2 {
		t.Fatalf("Len = %d", a.Len())
	}

	tests := []struct {
		name  string
		token string
		err   error
	}{
		{name: "bare key", token: "alpha"},
		{name: "bearer key", token: "Bearer beta"},
		{name: "padded", token: "  Bearer alpha "},
		{name: "unknown", token: "gamma", err: ErrAuthenticationFailed},
		{name: "empty", token: "", err: ErrInvalidToken},
		{name: "bearer only", token: "Bearer ", err: ErrInvalidToken},
		{name: "padded bearer only", token: "  Bearer  ", err: ErrInvalidToken},
		{name: "tab separated", token: "Bearer\tbeta"},
		{name: "bearer prefix in key", token: "Bearerbeta", err: ErrAuthenticationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := a.Authenticate(context.Background(), tt.token)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("error = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !strings.HasPrefix(id, "key-") || strings.Contains(id, "alpha") || strings.Contains(id, "beta") {
				t.Errorf("client id %q", id)
			}
		})
	}

	first, _ := a.Authenticate(context.Background(), "alpha")
	second, _ := a.Authenticate(context.Background(), "beta")
	if first == second {
		t.Error("different keys share a client id")
	}
}
