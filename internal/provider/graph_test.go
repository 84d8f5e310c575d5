package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kursadbilgin/wasender/internal/domain"
)

func testRequest(t *testing.T) *domain.Request {
	t.Helper()

	sendCtx, err := domain.NewSendContext("+15551234567", "123456789012345", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	request, err := domain.BuildRequest(sendCtx, domain.NewTemplateMessage("hello_world", "en_US"), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return request
}

func TestGraphProviderSendSuccess(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth string
	var gotBody domain.Payload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messaging_product":"whatsapp","messages":[{"id":"wamid.abc123"}]}`))
	}))
	defer server.Close()

	p, err := NewGraphProvider(server.URL, "test-token")
	if err != nil {
		t.Fatalf("NewGraphProvider() error = %v", err)
	}

	resp, err := p.Send(context.Background(), testRequest(t))
	if err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}

	if resp.MessageID != "wamid.abc123" {
		t.Fatalf("MessageID = %q, want wamid.abc123", resp.MessageID)
	}
	if resp.HTTPStatus != http.StatusOK {
		t.Fatalf("HTTPStatus = %d, want 200", resp.HTTPStatus)
	}
	if gotPath != "/123456789012345/messages" {
		t.Fatalf("path = %q, want /123456789012345/messages", gotPath)
	}
	if gotAuth != "Bearer test-token" {
		t.Fatalf("authorization = %q, want Bearer test-token", gotAuth)
	}
	if gotBody.To != "+15551234567" {
		t.Fatalf("request.to = %q, want +15551234567", gotBody.To)
	}
	if gotBody.Type != "template" {
		t.Fatalf("request.type = %q, want template", gotBody.Type)
	}
}

func TestGraphProviderSendAPIError(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		statusCode int
		body       string
		wantCode   int
		wantClass  Classification
	}{
		{
			name:       "policy violation",
			statusCode: http.StatusForbidden,
			body:       `{"error":{"message":"policy violation","code":368}}`,
			wantCode:   368,
			wantClass:  PlatformEnforced,
		},
		{
			name:       "rate limit hit",
			statusCode: http.StatusBadRequest,
			body:       `{"error":{"message":"too many calls","code":4}}`,
			wantCode:   4,
			wantClass:  RateLimited,
		},
		{
			name:       "expired token",
			statusCode: http.StatusUnauthorized,
			body:       `{"error":{"message":"Session has expired","code":190,"error_subcode":463}}`,
			wantCode:   190,
			wantClass:  Transient,
		},
		{
			name:       "re-engagement window",
			statusCode: http.StatusBadRequest,
			body:       `{"error":{"message":"Re-engagement message","code":131047}}`,
			wantCode:   131047,
			wantClass:  DeveloperFixable,
		},
		{
			name:       "unparseable 500 body",
			statusCode: http.StatusInternalServerError,
			body:       "gateway exploded",
			wantCode:   0,
			wantClass:  Transient,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			p, err := NewGraphProvider(server.URL, "test-token")
			if err != nil {
				t.Fatalf("NewGraphProvider() error = %v", err)
			}

			_, err = p.Send(context.Background(), testRequest(t))
			if err == nil {
				t.Fatal("expected error")
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %T", err)
			}
			if apiErr.Code != tc.wantCode {
				t.Fatalf("Code = %d, want %d", apiErr.Code, tc.wantCode)
			}
			if apiErr.HTTPStatus != tc.statusCode {
				t.Fatalf("HTTPStatus = %d, want %d", apiErr.HTTPStatus, tc.statusCode)
			}
			if got := apiErr.Classification(); got != tc.wantClass {
				t.Fatalf("Classification() = %s, want %s", got, tc.wantClass)
			}
		})
	}
}

func TestGraphProviderSendTimeoutIsRetryable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.late"}]}`))
	}))
	defer server.Close()

	client := resty.New()
	client.SetTimeout(30 * time.Millisecond)

	p, err := NewGraphProviderWithClient(server.URL, "test-token", client)
	if err != nil {
		t.Fatalf("NewGraphProviderWithClient() error = %v", err)
	}

	_, err = p.Send(context.Background(), testRequest(t))
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !IsRetryable(err) {
		t.Fatalf("IsRetryable() = false, want true (err=%v)", err)
	}
}

func TestGraphProviderMissingCredential(t *testing.T) {
	t.Parallel()

	_, err := NewGraphProvider("https://example.com", "")
	if !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("error = %v, want ErrMissingCredential", err)
	}

	_, err = NewGraphProvider("https://example.com", "   ")
	if !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("error = %v, want ErrMissingCredential for blank token", err)
	}
}

func TestGraphProviderMalformedSuccessBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messages":[]}`))
	}))
	defer server.Close()

	p, err := NewGraphProvider(server.URL, "test-token")
	if err != nil {
		t.Fatalf("NewGraphProvider() error = %v", err)
	}

	_, err = p.Send(context.Background(), testRequest(t))
	if err == nil {
		t.Fatal("expected error for success body without message id")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
}
