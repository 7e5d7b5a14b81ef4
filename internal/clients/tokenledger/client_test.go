package tokenledger

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/escrow/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", "USDM", "escrow", zerolog.Nop())
}

func TestPull(t *testing.T) {
	var got transferRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/transfers/pull", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, client.Pull("alice", 1000000))
	assert.Equal(t, transferRequest{Asset: "USDM", From: "alice", To: "escrow", Amount: 1000000}, got)
}

func TestPush(t *testing.T) {
	var got transferRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/transfers/push", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, client.Push("alice", 750000000))
	assert.Equal(t, transferRequest{Asset: "USDM", From: "escrow", To: "alice", Amount: 750000000}, got)
}

func TestPushAsset(t *testing.T) {
	var got transferRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, client.PushAsset("EURM", "seller", 42))
	assert.Equal(t, "EURM", got.Asset)
	assert.Equal(t, "escrow", got.From)
	assert.Equal(t, "seller", got.To)
}

func TestBalanceOf(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/balances/escrow", r.URL.Path)
		assert.Equal(t, "USDM", r.URL.Query().Get("asset"))
		_ = json.NewEncoder(w).Encode(balanceResponse{
			Holder: "escrow", Asset: "USDM", Balance: 1000000249,
		})
	})

	balance, err := client.BalanceOf("escrow")
	require.NoError(t, err)
	assert.Equal(t, int64(1000000249), balance)
}

func TestErrorCodeMapping(t *testing.T) {
	tests := []struct {
		code     string
		expected error
	}{
		{"INSUFFICIENT_ALLOWANCE", domain.ErrInsufficientAllowance},
		{"INSUFFICIENT_BALANCE", domain.ErrInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_ = json.NewEncoder(w).Encode(errorResponse{Error: "rejected", Code: tt.code})
			})

			err := client.Pull("alice", 1)
			assert.True(t, errors.Is(err, tt.expected))
		})
	}
}

func TestUnknownErrorIsOpaque(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(errorResponse{Error: "boom", Code: "INTERNAL"})
	})

	err := client.Push("alice", 1)
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrInsufficientAllowance))
	assert.Contains(t, err.Error(), "500")
}
