// Package firefly is a client for the slice of the Firefly III REST API the
// importer needs: listing asset accounts and creating transactions with the
// server-side duplicate-hash detection turned on.
package firefly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the ledger-side direction encoding.
type TransactionType string

const (
	TypeDeposit    TransactionType = "deposit"
	TypeWithdrawal TransactionType = "withdrawal"
)

// Transaction is the canonical, direction-resolved record submitted to the
// ledger. Exactly one of id or name/iban identifies each side: the local
// asset account always by id, the counterparty always by name and IBAN.
type Transaction struct {
	Type            TransactionType `json:"type"`
	Date            string          `json:"date"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	SourceID        *int64          `json:"source_id,omitempty"`
	SourceName      *string         `json:"source_name,omitempty"`
	SourceIBAN      *string         `json:"source_iban,omitempty"`
	DestinationID   *int64          `json:"destination_id,omitempty"`
	DestinationName *string         `json:"destination_name,omitempty"`
	DestinationIBAN *string         `json:"destination_iban,omitempty"`
	// Reference is always serialized: the API treats an empty and an
	// absent sepa_ct_id differently.
	Reference string  `json:"sepa_ct_id"`
	Notes     *string `json:"notes,omitempty"`
}

// String gives the one-line rendering used when a transaction has to be
// shown to the operator, e.g. in a rejection message.
func (t Transaction) String() string {
	return fmt.Sprintf("%s %s %s %q", t.Date, t.Type, t.Amount, t.Description)
}

// Account is a Firefly III asset account.
type Account struct {
	ID   int64
	Name string
	IBAN string
}

// Outcome of a submission. Duplicate is a normal result, not an error.
type Outcome int

const (
	OutcomeNew Outcome = iota
	OutcomeDuplicate
)

// LedgerError is a non-duplicate rejection. The transaction is attached
// because the API reports nothing that would correlate the rejection back
// to it.
type LedgerError struct {
	Message string
	Tx      *Transaction
}

func (e *LedgerError) Error() string {
	if e.Tx == nil {
		return "ledger rejected transaction: " + e.Message
	}
	return fmt.Sprintf("ledger rejected transaction %s: %s", e.Tx, e.Message)
}

// Client talks to one Firefly III instance.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a client. A trailing slash on baseURL is tolerated.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Accounts lists the instance's asset accounts.
func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/accounts?type=asset", nil)
	if err != nil {
		return nil, fmt.Errorf("listing ledger accounts: %w", err)
	}

	var payload struct {
		Data []struct {
			ID         string `json:"id"`
			Attributes struct {
				Name string `json:"name"`
				IBAN string `json:"iban"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding ledger accounts: %w", err)
	}

	accounts := make([]Account, 0, len(payload.Data))
	for _, d := range payload.Data {
		id, err := strconv.ParseInt(d.ID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ledger account id %q is not numeric: %w", d.ID, err)
		}
		accounts = append(accounts, Account{ID: id, Name: d.Attributes.Name, IBAN: d.Attributes.IBAN})
	}
	return accounts, nil
}

type storeRequest struct {
	ApplyRules           bool          `json:"apply_rules"`
	ErrorIfDuplicateHash bool          `json:"error_if_duplicate_hash"`
	Transactions         []Transaction `json:"transactions"`
}

// Import submits one transaction, with rule application and duplicate-hash
// detection requested from the server. A rejection whose message starts
// with "Duplicate" is OutcomeDuplicate; any other rejection is a
// *LedgerError.
func (c *Client) Import(ctx context.Context, tx Transaction) (Outcome, error) {
	payload, err := json.Marshal(storeRequest{
		ApplyRules:           true,
		ErrorIfDuplicateHash: true,
		Transactions:         []Transaction{tx},
	})
	if err != nil {
		return OutcomeNew, fmt.Errorf("encoding transaction: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/transactions", bytes.NewReader(payload))
	if err != nil {
		return OutcomeNew, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return OutcomeNew, fmt.Errorf("submitting transaction: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return OutcomeNew, fmt.Errorf("reading ledger response: %w", err)
	}
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return OutcomeNew, nil
	}

	var apiErr struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Message == "" {
		return OutcomeNew, fmt.Errorf("ledger returned %s: %s", res.Status, strings.TrimSpace(string(body)))
	}
	if strings.HasPrefix(apiErr.Message, "Duplicate") {
		return OutcomeDuplicate, nil
	}
	return OutcomeNew, &LedgerError{Message: apiErr.Message, Tx: &tx}
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %s", res.Status, strings.TrimSpace(string(data)))
	}
	return data, nil
}
