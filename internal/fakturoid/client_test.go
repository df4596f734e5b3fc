package fakturoid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Options{
		BaseURL: server.URL,
		Account: "acme",
		Email:   "billing@acme.test",
		APIKey:  "secret-key",
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)

	return client, server
}

// ---------------------------------------------------------------------------
// Constructor
// ---------------------------------------------------------------------------

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"missing account", Options{Email: "a@b.c", APIKey: "k"}},
		{"missing email", Options{Account: "acme", APIKey: "k"}},
		{"missing api key", Options{Account: "acme", Email: "a@b.c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.opts)
			assert.ErrorIs(t, err, ErrInvalidOptions)
		})
	}
}

func TestNewClient_Defaults(t *testing.T) {
	client, err := NewClient(Options{Account: "acme", Email: "a@b.c", APIKey: "k"})
	require.NoError(t, err)

	assert.Equal(t, "https://app.fakturoid.cz/api/v2/accounts/acme", client.AccountURL())
	assert.Equal(t, "iDoklad2Fakturoid (a@b.c)", client.userAgent)
	assert.Equal(t, DefaultTimeout, client.httpClient.Timeout)
	assert.Nil(t, client.limiter)
}

// ---------------------------------------------------------------------------
// ListSubjects
// ---------------------------------------------------------------------------

func TestListSubjects_Success(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/accounts/acme/subjects.json", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "billing@acme.test", user)
		assert.Equal(t, "secret-key", pass)
		assert.Equal(t, "iDoklad2Fakturoid (billing@acme.test)", r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"id": 11, "name": "Alpha s.r.o.", "registration_no": "12345678", "vat_no": "CZ12345678"},
			{"id": 12, "name": "Beta a.s.", "registration_no": null}
		]`)
	})

	subjects, err := client.ListSubjects(context.Background())
	require.NoError(t, err)
	require.Len(t, subjects, 2)

	assert.Equal(t, Subject{ID: 11, Name: "Alpha s.r.o.", RegistrationNo: "12345678", VatNo: "CZ12345678"}, subjects[0])
	assert.Equal(t, int64(12), subjects[1].ID)
	assert.Empty(t, subjects[1].RegistrationNo)
}

func TestListSubjects_FollowsNextLink(t *testing.T) {
	var calls atomic.Int32

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Query().Get("page") {
		case "":
			w.Header().Set("Link", fmt.Sprintf(`<%s/accounts/acme/subjects.json?page=2>; rel="next"`, "http://"+r.Host))
			fmt.Fprint(w, `[{"id": 1, "registration_no": "1"}]`)
		case "2":
			w.Header().Set("Link", `<http://x/subjects.json?page=1>; rel="first", <http://x/subjects.json?page=2>; rel="last"`)
			fmt.Fprint(w, `[{"id": 2, "registration_no": "2"}]`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	})

	subjects, err := client.ListSubjects(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
	require.Len(t, subjects, 2)
	assert.Equal(t, int64(1), subjects[0].ID)
	assert.Equal(t, int64(2), subjects[1].ID)
}

func TestListSubjects_SingleRequestWithoutLink(t *testing.T) {
	var calls atomic.Int32

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `[{"id": 1, "registration_no": "1"}]`)
	})

	_, err := client.ListSubjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestListSubjects_UnexpectedStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"unauthorized"}`)
	})

	_, err := client.ListSubjects(context.Background())
	require.Error(t, err)

	var reqErr *RequestFailedError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "GET", reqErr.Method)
	assert.Equal(t, "/subjects.json", reqErr.Path)
	assert.Equal(t, http.StatusUnauthorized, reqErr.StatusCode)
	assert.Equal(t, `{"error":"unauthorized"}`, reqErr.Body)
	assert.Equal(t, "GET /subjects.json failed with code 401\n\n{\"error\":\"unauthorized\"}", reqErr.Error())
}

func TestListSubjects_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	client, err := NewClient(Options{
		BaseURL: server.URL,
		Account: "acme",
		Email:   "a@b.c",
		APIKey:  "k",
		Timeout: 50 * time.Millisecond,
	})
	require.NoError(t, err)

	_, err = client.ListSubjects(context.Background())
	require.Error(t, err)

	var reqErr *RequestFailedError
	assert.False(t, errors.As(err, &reqErr))
}

// ---------------------------------------------------------------------------
// CreateInvoice
// ---------------------------------------------------------------------------

func TestCreateInvoice_Success(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/accounts/acme/invoices.json", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		var body map[string]any
		assert.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, "2016-0001", body["number"])
		assert.Equal(t, float64(11), body["subject_id"])
		assert.Equal(t, "en", body["language"])
		assert.Equal(t, "bank", body["payment_method"])
		lines, _ := body["lines"].([]any)
		assert.Len(t, lines, 1)

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id": 501, "number": "2016-0001", "total": "1210.0", "currency": "CZK", "html_url": "https://app.fakturoid.cz/acme/invoices/501"}`)
	})

	created, err := client.CreateInvoice(context.Background(), &Invoice{
		Number:        "2016-0001",
		SubjectID:     11,
		PaymentMethod: "bank",
		Language:      "en",
		Lines: []InvoiceLine{
			{Name: "Consulting", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1000), VatRate: decimal.NewFromInt(21)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(501), created.ID)
	assert.Equal(t, "2016-0001", created.Number)
	assert.True(t, created.Total.Equal(decimal.NewFromInt(1210)))
	assert.Equal(t, "CZK", created.Currency)
	assert.Equal(t, "https://app.fakturoid.cz/acme/invoices/501", created.HTMLURL)
}

func TestCreateInvoice_UnexpectedStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"errors":{"number":["already taken"]}}`)
	})

	_, err := client.CreateInvoice(context.Background(), &Invoice{Number: "1"})

	var reqErr *RequestFailedError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "POST", reqErr.Method)
	assert.Equal(t, "/invoices.json", reqErr.Path)
	assert.Equal(t, http.StatusUnprocessableEntity, reqErr.StatusCode)
	assert.Contains(t, reqErr.Body, "already taken")
}

func TestCreateInvoice_CancelledContext(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusCreated)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.CreateInvoice(ctx, &Invoice{Number: "1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), calls.Load())
}

// ---------------------------------------------------------------------------
// Link header parsing
// ---------------------------------------------------------------------------

func TestHasNextPage(t *testing.T) {
	tests := []struct {
		name  string
		links []string
		want  bool
	}{
		{"no header", nil, false},
		{"next only", []string{`<https://x/subjects.json?page=2>; rel="next"`}, true},
		{"combined", []string{`<https://x?page=1>; rel="prev", <https://x?page=3>; rel="next"`}, true},
		{"last only", []string{`<https://x?page=3>; rel="last"`}, false},
		{"multiple headers", []string{`<https://x?page=1>; rel="first"`, `<https://x?page=2>; rel="next"`}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			for _, l := range tt.links {
				header.Add("Link", l)
			}
			assert.Equal(t, tt.want, hasNextPage(header))
		})
	}
}
