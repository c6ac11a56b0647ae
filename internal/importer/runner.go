package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bankfeed-dev/bankfeed/internal/config"
	"github.com/bankfeed-dev/bankfeed/internal/firefly"
	"github.com/bankfeed-dev/bankfeed/internal/model"
)

var (
	// ErrLedgerAccountMissing means the configured ledger account id does
	// not exist on the instance.
	ErrLedgerAccountMissing = errors.New("ledger account not found")

	// ErrIBANMismatch means the configured ledger account belongs to a
	// different IBAN than the bank profile. Importing would land the
	// transactions in the wrong account, so the run stops before any
	// fetch or submit.
	ErrIBANMismatch = errors.New("ledger account IBAN does not match the bank IBAN")

	// ErrAborted means the operator declined the confirmation prompt.
	ErrAborted = errors.New("import aborted by operator")
)

// Ledger is the slice of the ledger API the runner needs.
type Ledger interface {
	Accounts(ctx context.Context) ([]firefly.Account, error)
	Import(ctx context.Context, tx firefly.Transaction) (firefly.Outcome, error)
}

// Fetcher acquires the raw transactions for one profile, from whichever
// path (statement file or live session) the caller wired up.
type Fetcher func(ctx context.Context, profile config.Account, from, to time.Time) ([]model.Transaction, error)

// Events lets the caller render progress and answer the pre-import
// confirmation. A nil Events proceeds silently.
type Events interface {
	// AccountResolved fires once the ledger-side account has been
	// verified against the profile.
	AccountResolved(profile config.Account, account firefly.Account)
	// Confirm is asked once per account before anything is submitted.
	// Returning false aborts the whole run.
	Confirm(count int, first, last time.Time) (bool, error)
	// Submitted fires after each transaction.
	Submitted(done, total int)
}

// Result tallies one account's import.
type Result struct {
	Total     int
	New       int
	Duplicate int
}

// AccountResult pairs a profile with its outcome.
type AccountResult struct {
	Profile config.Account
	Result  Result
	Err     error
}

// Runner drives the per-account import pipeline. All collaborators are
// injected; the runner itself does no I/O beyond them.
type Runner struct {
	NewLedger func(profile config.Account) Ledger
	Fetch     Fetcher
	Events    Events
}

// RunAccount imports one profile: resolve and verify the ledger account,
// acquire transactions, filter non-monetary lines, confirm, then submit
// sequentially in fetched order. The first submission error aborts the
// remainder for this account; the partial tally is still returned.
func (r *Runner) RunAccount(ctx context.Context, profile config.Account, from, to time.Time) (Result, error) {
	ledger := r.NewLedger(profile)

	account, err := resolveLedgerAccount(ctx, ledger, profile)
	if err != nil {
		return Result{}, err
	}
	r.events().AccountResolved(profile, account)

	txs, err := r.Fetch(ctx, profile, from, to)
	if err != nil {
		return Result{}, fmt.Errorf("fetching transactions: %w", err)
	}

	txs = dropNonMonetary(txs)
	if len(txs) == 0 {
		return Result{}, nil
	}

	first := txs[0].ValueDate
	last := txs[len(txs)-1].ValueDate
	ok, err := r.events().Confirm(len(txs), first, last)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, ErrAborted
	}

	result := Result{Total: len(txs)}
	for i, tx := range txs {
		outcome, err := ledger.Import(ctx, Normalize(tx, profile.FireflyAccountID))
		if err != nil {
			return result, fmt.Errorf("submitting transaction %d of %d: %w", i+1, len(txs), err)
		}
		if outcome == firefly.OutcomeDuplicate {
			result.Duplicate++
		} else {
			result.New++
		}
		r.events().Submitted(i+1, len(txs))
	}
	return result, nil
}

// RunAll imports every profile in order. A failing profile is recorded and
// the loop moves on; only an operator abort stops the batch.
func (r *Runner) RunAll(ctx context.Context, profiles []config.Account, from, to time.Time) []AccountResult {
	results := make([]AccountResult, 0, len(profiles))
	for _, p := range profiles {
		res, err := r.RunAccount(ctx, p, from, to)
		results = append(results, AccountResult{Profile: p, Result: res, Err: err})
		if errors.Is(err, ErrAborted) {
			break
		}
	}
	return results
}

// resolveLedgerAccount finds the configured asset account and guards
// against a profile pointing at the wrong one.
func resolveLedgerAccount(ctx context.Context, ledger Ledger, profile config.Account) (firefly.Account, error) {
	accounts, err := ledger.Accounts(ctx)
	if err != nil {
		return firefly.Account{}, fmt.Errorf("listing ledger accounts: %w", err)
	}
	for _, a := range accounts {
		if a.ID != profile.FireflyAccountID {
			continue
		}
		if a.IBAN != profile.BankIBAN {
			return firefly.Account{}, fmt.Errorf("%w: ledger account %d has IBAN %q, profile %q has %q",
				ErrIBANMismatch, a.ID, a.IBAN, profile.Name, profile.BankIBAN)
		}
		return a, nil
	}
	return firefly.Account{}, fmt.Errorf("%w: no asset account with id %d", ErrLedgerAccountMissing, profile.FireflyAccountID)
}

// dropNonMonetary removes zero-amount statement lines (balance notes,
// fee summaries).
func dropNonMonetary(txs []model.Transaction) []model.Transaction {
	out := txs[:0]
	for _, tx := range txs {
		if tx.Amount.IsZero() {
			continue
		}
		out = append(out, tx)
	}
	return out
}

type noopEvents struct{}

func (noopEvents) AccountResolved(config.Account, firefly.Account) {}
func (noopEvents) Confirm(int, time.Time, time.Time) (bool, error) { return true, nil }
func (noopEvents) Submitted(int, int)                              {}

func (r *Runner) events() Events {
	if r.Events == nil {
		return noopEvents{}
	}
	return r.Events
}
