package firefly

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTx() Transaction {
	id := int64(3)
	return Transaction{
		Type:          TypeDeposit,
		Date:          "2026-01-05",
		Amount:        decimal.RequireFromString("42.00"),
		Description:   "Invoice 123",
		DestinationID: &id,
		Reference:     "E2E-REF-42",
	}
}

func TestAccounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/accounts", r.URL.Path)
		assert.Equal(t, "asset", r.URL.Query().Get("type"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"data": [
			{"id": "3", "attributes": {"name": "Checking", "iban": "DE89370400440532013000"}},
			{"id": "7", "attributes": {"name": "Savings", "iban": ""}}
		]}`)
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "secret")
	accounts, err := c.Accounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, int64(3), accounts[0].ID)
	assert.Equal(t, "Checking", accounts[0].Name)
	assert.Equal(t, "DE89370400440532013000", accounts[0].IBAN)
}

func TestAccounts_NonNumericID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data": [{"id": "abc", "attributes": {}}]}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "t").Accounts(context.Background())
	assert.Error(t, err)
}

func TestImport_New(t *testing.T) {
	var got storeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/transactions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"data": {"id": "99"}}`)
	}))
	defer srv.Close()

	outcome, err := New(srv.URL, "secret").Import(context.Background(), sampleTx())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNew, outcome)

	assert.True(t, got.ApplyRules)
	assert.True(t, got.ErrorIfDuplicateHash)
	require.Len(t, got.Transactions, 1)
	assert.Equal(t, TypeDeposit, got.Transactions[0].Type)
	assert.Equal(t, "42", got.Transactions[0].Amount.String())
}

func TestImport_WirePayload(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &raw))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "secret").Import(context.Background(), sampleTx())
	require.NoError(t, err)

	txs := raw["transactions"].([]any)
	tx := txs[0].(map[string]any)
	// Amount crosses the wire as a string, reference is present even when
	// empty, absent sides are omitted.
	assert.Equal(t, "42", tx["amount"])
	assert.Contains(t, tx, "sepa_ct_id")
	assert.NotContains(t, tx, "source_id")
	assert.Equal(t, float64(3), tx["destination_id"])
}

func TestImport_Duplicate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"message": "Duplicate of transaction #123."}`)
	}))
	defer srv.Close()

	outcome, err := New(srv.URL, "secret").Import(context.Background(), sampleTx())
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
}

func TestImport_Rejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"message": "The source account is invalid."}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "secret").Import(context.Background(), sampleTx())
	require.Error(t, err)

	var ledgerErr *LedgerError
	require.ErrorAs(t, err, &ledgerErr)
	assert.Equal(t, "The source account is invalid.", ledgerErr.Message)
	require.NotNil(t, ledgerErr.Tx)
	assert.Equal(t, "Invoice 123", ledgerErr.Tx.Description)
}

func TestLedgerError_ShowsTransaction(t *testing.T) {
	tx := sampleTx()
	rejection := &LedgerError{Message: "The source account is invalid.", Tx: &tx}

	// The operator must be able to see which record was refused, even when
	// the error arrives wrapped by the submission loop.
	wrapped := fmt.Errorf("submitting transaction 2 of 3: %w", rejection)
	assert.Contains(t, wrapped.Error(), "Invoice 123")
	assert.Contains(t, wrapped.Error(), "42")
	assert.Contains(t, wrapped.Error(), "deposit")
	assert.Contains(t, wrapped.Error(), "The source account is invalid.")

	bare := &LedgerError{Message: "Missing amount."}
	assert.Equal(t, "ledger rejected transaction: Missing amount.", bare.Error())
}

func TestImport_MalformedErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `<html>gateway error</html>`)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "secret").Import(context.Background(), sampleTx())
	require.Error(t, err)

	var ledgerErr *LedgerError
	assert.False(t, errors.As(err, &ledgerErr), "malformed responses are transport errors, not ledger rejections")
}

func TestImport_Unreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", "secret")
	_, err := c.Import(context.Background(), sampleTx())
	require.Error(t, err)

	var ledgerErr *LedgerError
	assert.False(t, errors.As(err, &ledgerErr))
}
