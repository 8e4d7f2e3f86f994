package remote_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veloshop-client/internal/domain"
	"veloshop-client/internal/repository/remote"
)

func newTestClient(srv *httptest.Server, token string) *remote.Client {
	return remote.NewClient(srv.URL, 2*time.Second, 0, 0, func() string { return token })
}

func TestCartFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/cart", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"items": [
				{"productId":"p1","name":"Mug","price":12.5,"salePrice":null,"image":"/m.jpg","quantity":2,"slug":"mug"},
				{"productId":"p2","name":"Cap","price":20,"salePrice":15,"image":"/c.jpg","quantity":1,"slug":"cap"}
			],
			"itemCount": 3,
			"totalPrice": 40
		}`))
	}))
	defer srv.Close()

	gw := remote.NewCartGateway(newTestClient(srv, "tok-123"))
	cart, err := gw.Fetch(t.Context())
	require.NoError(t, err)

	require.Len(t, cart.Lines, 2)
	assert.Equal(t, "p1", cart.Lines[0].ProductID)
	assert.True(t, cart.Lines[0].EffectiveUnitPrice().Equal(decimal.RequireFromString("12.5")))
	require.NotNil(t, cart.Lines[1].SalePrice)
	assert.True(t, cart.Lines[1].EffectiveUnitPrice().Equal(decimal.NewFromInt(15)))
	assert.Equal(t, 3, cart.ItemCount())
	assert.True(t, cart.TotalPrice().Equal(decimal.NewFromInt(40)))
}

func TestCartAddItem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cart/add", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "p1", body["productId"])
		assert.EqualValues(t, 2, body["quantity"])

		_, _ = w.Write([]byte(`{
			"success": true,
			"message": "Item added to cart",
			"cart": {
				"items": [{"productId":"p1","name":"Mug","price":12.5,"salePrice":null,"image":"","quantity":2,"slug":"mug"}],
				"itemCount": 2,
				"totalPrice": 25
			}
		}`))
	}))
	defer srv.Close()

	gw := remote.NewCartGateway(newTestClient(srv, "tok"))
	cart, err := gw.AddItem(t.Context(), "p1", 2)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 2, cart.Lines[0].Quantity)
}

func TestCartAddItemValidatesBeforeIO(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	gw := remote.NewCartGateway(newTestClient(srv, "tok"))

	_, err := gw.AddItem(t.Context(), "", 1)
	assert.True(t, domain.IsValidation(err))

	_, err = gw.AddItem(t.Context(), "p1", 0)
	assert.True(t, domain.IsValidation(err))

	assert.False(t, called)
}

func TestCartStatusErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{name: "bad request", status: http.StatusBadRequest, check: domain.IsValidation},
		{name: "unauthorized", status: http.StatusUnauthorized, check: domain.IsPermissionDenied},
		{name: "forbidden", status: http.StatusForbidden, check: domain.IsPermissionDenied},
		{name: "not found", status: http.StatusNotFound, check: domain.IsNotFound},
		{name: "server error", status: http.StatusInternalServerError, check: domain.IsTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			}))
			defer srv.Close()

			gw := remote.NewCartGateway(newTestClient(srv, "tok"))
			_, err := gw.UpdateItem(t.Context(), "p1", 3)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error type: %v", err)
		})
	}
}

func TestCartTransportErrorCarriesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	gw := remote.NewCartGateway(newTestClient(srv, "tok"))
	err := gw.Clear(t.Context())
	require.Error(t, err)

	var te *domain.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusBadGateway, te.Status)
}

func TestCartMalformedResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `<html>offline</html>`},
		{name: "missing cart payload", body: `{"success":true,"message":"ok"}`},
		{name: "missing items array", body: `{"success":true,"cart":{"itemCount":0,"totalPrice":0}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			gw := remote.NewCartGateway(newTestClient(srv, "tok"))
			_, err := gw.AddItem(t.Context(), "p1", 1)
			require.Error(t, err)
			assert.True(t, domain.IsSerialization(err), "unexpected error type: %v", err)
		})
	}
}

func TestCartConnectionFailureIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	gw := remote.NewCartGateway(newTestClient(srv, "tok"))
	_, err := gw.Fetch(t.Context())
	require.Error(t, err)
	assert.True(t, domain.IsTransport(err))
}
