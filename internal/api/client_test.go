package api

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/klosachat/internal/errors"
	"github.com/diogo/klosachat/internal/models"
)

const testEndpoint = "https://bot.example.com/chat"

// mockHTTPClient records requests and answers with doFunc
type mockHTTPClient struct {
	doFunc     func(req *http.Request) (*http.Response, error)
	requests   []*http.Request
	bodies     []string
	closeCalls int
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.requests = append(m.requests, req)
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		m.bodies = append(m.bodies, string(data))
	}
	return m.doFunc(req)
}

func (m *mockHTTPClient) CloseIdleConnections() {
	m.closeCalls++
}

func respond(status int, body string) func(req *http.Request) (*http.Response, error) {
	return func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader(body)),
		}, nil
	}
}

func newTestClient(t *testing.T, mock *mockHTTPClient) *Client {
	t.Helper()
	client, err := NewClient(testEndpoint, WithHTTPClient(mock))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestNewClient(t *testing.T) {
	t.Run("missing endpoint", func(t *testing.T) {
		_, err := NewClient("  ")
		if !errors.Is(err, apierrors.ErrMissingEndpoint) {
			t.Errorf("NewClient() error = %v, want ErrMissingEndpoint", err)
		}
	})

	t.Run("injected http client", func(t *testing.T) {
		mock := &mockHTTPClient{doFunc: respond(200, `{}`)}
		client, err := NewClient(" "+testEndpoint+" ", WithHTTPClient(mock), WithUserAgent("test-agent"))
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}
		if client.httpClient != mock {
			t.Error("Expected injected HTTP client to be used")
		}
		if client.Endpoint() != testEndpoint {
			t.Errorf("Endpoint() = %q, want trimmed endpoint", client.Endpoint())
		}
		if client.userAgent != "test-agent" {
			t.Errorf("userAgent = %q, want test-agent", client.userAgent)
		}
	})

	t.Run("default transport", func(t *testing.T) {
		client, err := NewClient(testEndpoint, WithTimeout(5))
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}
		defer client.Close()
		if client.httpClient == nil {
			t.Error("Expected a default HTTP client")
		}
		if client.timeoutSeconds != 5 {
			t.Errorf("timeoutSeconds = %d, want 5", client.timeoutSeconds)
		}
	})
}

func TestExchange_Success(t *testing.T) {
	mock := &mockHTTPClient{doFunc: respond(200, `{"message":"Hi there!"}`)}
	client := newTestClient(t, mock)

	history := []models.Message{models.UserMessage("Hello")}
	reply, err := client.Exchange(context.Background(), history)
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	if reply != "Hi there!" {
		t.Errorf("Exchange() = %q, want %q", reply, "Hi there!")
	}

	if len(mock.requests) != 1 {
		t.Fatalf("expected exactly one request, got %d", len(mock.requests))
	}
	req := mock.requests[0]
	if req.Method != http.MethodPost {
		t.Errorf("Method = %s, want POST", req.Method)
	}
	if req.URL.String() != testEndpoint {
		t.Errorf("URL = %s, want %s", req.URL, testEndpoint)
	}
	if ct := req.Header.Get("Content-Type"); ct != models.ContentTypeJSON {
		t.Errorf("Content-Type = %q", ct)
	}
	if ua := req.Header.Get("User-Agent"); ua != models.DefaultUserAgent {
		t.Errorf("User-Agent = %q", ua)
	}
}

func TestExchange_RequestCarriesFullHistory(t *testing.T) {
	mock := &mockHTTPClient{doFunc: respond(200, `{"message":"ok"}`)}
	client := newTestClient(t, mock)

	history := []models.Message{
		models.UserMessage("Hello"),
		models.AssistantMessage("Hi there!"),
		models.UserMessage("How are you?"),
	}
	if _, err := client.Exchange(context.Background(), history); err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}

	body := mock.bodies[0]
	field := gjson.Get(body, "message")
	if field.Type != gjson.String {
		t.Fatalf("request message field should be a string, body = %s", body)
	}

	decoded, err := models.DecodeHistory(field.String())
	if err != nil {
		t.Fatalf("DecodeHistory() error = %v", err)
	}
	if len(decoded) != len(history) {
		t.Fatalf("decoded %d messages, want %d", len(decoded), len(history))
	}
	for i := range history {
		if decoded[i] != history[i] {
			t.Errorf("message %d = %+v, want %+v", i, decoded[i], history[i])
		}
	}
}

func TestExchange_Failures(t *testing.T) {
	tests := []struct {
		name     string
		doFunc   func(req *http.Request) (*http.Response, error)
		kind     apierrors.ExchangeKind
		status   int
		bodyPart string
	}{
		{
			name: "network error",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return nil, errors.New("connection refused")
			},
			kind: apierrors.KindNetwork,
		},
		{
			name:     "server error",
			doFunc:   respond(500, "internal error"),
			kind:     apierrors.KindStatus,
			status:   500,
			bodyPart: "internal error",
		},
		{
			name:   "redirect status",
			doFunc: respond(302, ""),
			kind:   apierrors.KindStatus,
			status: 302,
		},
		{
			name:   "not json",
			doFunc: respond(200, "<html>oops</html>"),
			kind:   apierrors.KindDecode,
		},
		{
			name:   "json array",
			doFunc: respond(200, `["Hi"]`),
			kind:   apierrors.KindDecode,
		},
		{
			name:   "missing message field",
			doFunc: respond(200, `{"reply":"Hi"}`),
			kind:   apierrors.KindMissingField,
		},
		{
			name:   "null message field",
			doFunc: respond(200, `{"message":null}`),
			kind:   apierrors.KindMissingField,
		},
		{
			name:   "numeric message field",
			doFunc: respond(200, `{"message":42}`),
			kind:   apierrors.KindMissingField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockHTTPClient{doFunc: tt.doFunc}
			client := newTestClient(t, mock)

			reply, err := client.Exchange(context.Background(), []models.Message{models.UserMessage("Ping")})
			if err == nil {
				t.Fatalf("Exchange() = %q, want error", reply)
			}
			if !errors.Is(err, apierrors.ErrExchangeFailed) {
				t.Errorf("error %v should match ErrExchangeFailed", err)
			}

			var exErr *apierrors.ExchangeError
			if !errors.As(err, &exErr) {
				t.Fatalf("error should be *ExchangeError, got %T", err)
			}
			if exErr.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", exErr.Kind, tt.kind)
			}
			if exErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", exErr.StatusCode, tt.status)
			}
			if exErr.Endpoint != testEndpoint {
				t.Errorf("Endpoint = %q", exErr.Endpoint)
			}
			if tt.bodyPart != "" && !strings.Contains(exErr.Body, tt.bodyPart) {
				t.Errorf("Body = %q, want it to contain %q", exErr.Body, tt.bodyPart)
			}
		})
	}
}

func TestExchange_EmptyReplyIsValid(t *testing.T) {
	mock := &mockHTTPClient{doFunc: respond(201, `{"message":""}`)}
	client := newTestClient(t, mock)

	reply, err := client.Exchange(context.Background(), []models.Message{models.UserMessage("Hi")})
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	if reply != "" {
		t.Errorf("Exchange() = %q, want empty string", reply)
	}
}

func TestExchange_PassesContext(t *testing.T) {
	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "marker")

	mock := &mockHTTPClient{doFunc: func(req *http.Request) (*http.Response, error) {
		if req.Context().Value(ctxKey{}) != "marker" {
			t.Error("request should carry the caller's context")
		}
		return respond(200, `{"message":"ok"}`)(req)
	}}
	client := newTestClient(t, mock)

	if _, err := client.Exchange(ctx, []models.Message{models.UserMessage("Hi")}); err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
}

func TestClient_Close(t *testing.T) {
	mock := &mockHTTPClient{doFunc: respond(200, `{"message":"ok"}`)}
	client := newTestClient(t, mock)

	client.Close()
	client.Close()

	if !client.IsClosed() {
		t.Error("IsClosed() = false after Close")
	}
	if mock.closeCalls != 1 {
		t.Errorf("CloseIdleConnections called %d times, want 1", mock.closeCalls)
	}

	_, err := client.Exchange(context.Background(), []models.Message{models.UserMessage("Hi")})
	if !apierrors.IsNetworkError(err) {
		t.Errorf("Exchange() after Close error = %v, want network error", err)
	}
	if len(mock.requests) != 0 {
		t.Error("no request should be sent after Close")
	}
}

func TestParseReply(t *testing.T) {
	reply, err := parseReply(testEndpoint, []byte(`{"message":"<b>bold</b>","extra":1}`))
	if err != nil {
		t.Fatalf("parseReply() error = %v", err)
	}
	if reply != "<b>bold</b>" {
		t.Errorf("parseReply() = %q, markup should be returned verbatim", reply)
	}
}
