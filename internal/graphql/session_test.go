package graphql

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// mockClient implements Client with a replaceable function.
type mockClient struct {
	executeFunc func(ctx context.Context, query string, variables map[string]any) ([]byte, error)
}

func (m *mockClient) Execute(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
	return m.executeFunc(ctx, query, variables)
}

var _ Client = (*mockClient)(nil)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp":   exp.Unix(),
		"email": "ops@example.com",
	})
	s, err := tok.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func Test_tokenExpiry_Cases(t *testing.T) {
	exp := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		token string
		want  time.Time
	}{
		{name: "jwt with exp", token: signedToken(t, exp), want: exp},
		{name: "opaque token", token: "not-a-jwt", want: time.Time{}},
		{name: "empty", token: "", want: time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tokenExpiry(tt.token); !got.Equal(tt.want) {
				t.Errorf("tokenExpiry() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_Session_Authenticate_Cases(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		execErr   error
		wantToken string
		wantErr   string
	}{
		{
			name:      "token returned",
			response:  `{"tokenCreate":{"token":"abc","errors":[]}}`,
			wantToken: "abc",
		},
		{
			name:     "missing token field",
			response: `{"tokenCreate":{"errors":[]}}`,
			wantErr:  "no token",
		},
		{
			name:     "null payload",
			response: `{"tokenCreate":null}`,
			wantErr:  "empty tokenCreate",
		},
		{
			name:     "mutation errors",
			response: `{"tokenCreate":{"token":null,"errors":[{"field":"password","message":"Invalid","code":"INVALID_CREDENTIALS"}]}}`,
			wantErr:  "INVALID_CREDENTIALS",
		},
		{
			name:    "transport failure",
			execErr: errors.New("connection refused"),
			wantErr: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockClient{executeFunc: func(_ context.Context, query string, vars map[string]any) ([]byte, error) {
				if !strings.Contains(query, "tokenCreate") {
					t.Errorf("unexpected query %q", query)
				}
				if vars["email"] != "ops@example.com" {
					t.Errorf("email = %v", vars["email"])
				}
				if tt.execErr != nil {
					return nil, tt.execErr
				}
				return []byte(tt.response), nil
			}}

			s := NewSession(client, "ops@example.com", "pw")
			token, err := s.Authenticate(context.Background())
			if tt.wantErr != "" {
				if !errors.Is(err, ErrAuthentication) {
					t.Fatalf("err = %v, want ErrAuthentication", err)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("err = %q, want it to contain %q", err.Error(), tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if token != tt.wantToken {
				t.Errorf("token = %q, want %q", token, tt.wantToken)
			}
		})
	}
}

func Test_Session_Token_RefreshesExpired(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	tokens := []string{
		signedToken(t, now.Add(5*time.Minute)),
		signedToken(t, now.Add(2*time.Hour)),
	}
	var calls int
	client := &mockClient{executeFunc: func(context.Context, string, map[string]any) ([]byte, error) {
		tok := tokens[calls]
		calls++
		return []byte(`{"tokenCreate":{"token":"` + tok + `","errors":[]}}`), nil
	}}

	s := NewSession(client, "ops@example.com", "pw")
	s.now = func() time.Time { return now }

	first, err := s.Token(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if again, _ := s.Token(context.Background()); again != first || calls != 1 {
		t.Fatalf("valid token should be reused (calls=%d)", calls)
	}

	// Inside the skew window the token counts as expired.
	now = now.Add(5*time.Minute - expirySkew + time.Second)
	second, err := s.Token(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if second == first || calls != 2 {
		t.Errorf("expected re-authentication (calls=%d)", calls)
	}
}

func Test_Session_Token_OpaqueNeverExpires(t *testing.T) {
	var calls int
	client := &mockClient{executeFunc: func(context.Context, string, map[string]any) ([]byte, error) {
		calls++
		return []byte(`{"tokenCreate":{"token":"opaque","errors":[]}}`), nil
	}}
	s := NewSession(client, "ops@example.com", "pw")
	for i := 0; i < 3; i++ {
		if _, err := s.Token(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func Test_StaticToken(t *testing.T) {
	tok, err := StaticToken("abc").Token(context.Background())
	if err != nil || tok != "abc" {
		t.Errorf("Token() = %q, %v", tok, err)
	}
}
