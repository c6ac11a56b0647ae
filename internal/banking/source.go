package banking

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

var (
	// ErrAccountNotFound means the configured IBAN matches none of the
	// session's accounts.
	ErrAccountNotFound = errors.New("bank account not found")

	// ErrAmbiguousAccount means several accounts are available and
	// nothing selects between them.
	ErrAmbiguousAccount = errors.New("ambiguous bank account selection")

	// ErrChallenge means the challenge round-trip failed: no way to ask
	// for a code, a malformed code, or a second challenge after the
	// first was answered.
	ErrChallenge = errors.New("challenge failed")
)

var numericCode = regexp.MustCompile(`^[0-9]+$`)

// Source produces bank transactions from either a statement file or a live
// session. Both paths yield the same flattened sequence: statements in
// source order, transactions in statement order.
type Source struct {
	// Decoder parses statement files for FromFile.
	Decoder StatementDecoder

	// PromptCode asks the operator for a one-time code. Nil means
	// challenges cannot be answered.
	PromptCode func(prompt string) (string, error)

	// PickAccount lets the operator choose between accounts when no
	// IBAN narrows the list down. Nil escalates ambiguity as an error.
	PickAccount func(accounts []Account) (int, error)
}

// FromFile decodes every statement in the file and flattens the result.
func (s *Source) FromFile(path string) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening statement file: %w", err)
	}
	defer f.Close()

	stmts, err := s.Decoder.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return Flatten(stmts), nil
}

// Fetch resolves the target account on the session and fetches its
// transactions for the date range, running at most one challenge
// round-trip.
func (s *Source) Fetch(ctx context.Context, session SessionClient, iban string, from, to time.Time) ([]model.Transaction, error) {
	accounts, err := session.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing bank accounts: %w", err)
	}

	account, err := s.resolveAccount(accounts, iban)
	if err != nil {
		return nil, err
	}

	stmts, err := session.Statements(ctx, account, from, to)
	var challenge *ChallengeRequired
	if errors.As(err, &challenge) {
		stmts, err = s.answerChallenge(ctx, session, challenge)
	}
	if err != nil {
		return nil, err
	}
	return Flatten(stmts), nil
}

// answerChallenge runs the single permitted challenge round-trip. A second
// challenge from the bank is a hard failure, never a retry loop.
func (s *Source) answerChallenge(ctx context.Context, session SessionClient, challenge *ChallengeRequired) ([]model.Statement, error) {
	if s.PromptCode == nil {
		return nil, fmt.Errorf("%w: bank asked for a code but no prompt is available in this mode", ErrChallenge)
	}
	code, err := s.PromptCode(challenge.Prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChallenge, err)
	}
	code = strings.TrimSpace(code)
	if !numericCode.MatchString(code) {
		return nil, fmt.Errorf("%w: code must be numeric and non-empty", ErrChallenge)
	}

	stmts, err := session.CompleteChallenge(ctx, challenge.Continuation, code)
	var again *ChallengeRequired
	if errors.As(err, &again) {
		return nil, fmt.Errorf("%w: bank issued a second challenge", ErrChallenge)
	}
	return stmts, err
}

func (s *Source) resolveAccount(accounts []Account, iban string) (Account, error) {
	if iban != "" {
		for _, a := range accounts {
			if a.IBAN == iban {
				return a, nil
			}
		}
		available := make([]string, len(accounts))
		for i, a := range accounts {
			available[i] = a.IBAN
		}
		return Account{}, fmt.Errorf("%w: no account with IBAN %q, available: %s",
			ErrAccountNotFound, iban, strings.Join(available, ", "))
	}

	switch len(accounts) {
	case 0:
		return Account{}, fmt.Errorf("%w: session lists no accounts", ErrAccountNotFound)
	case 1:
		return accounts[0], nil
	}

	if s.PickAccount == nil {
		return Account{}, fmt.Errorf("%w: %d accounts available and no IBAN configured",
			ErrAmbiguousAccount, len(accounts))
	}
	i, err := s.PickAccount(accounts)
	if err != nil {
		return Account{}, err
	}
	if i < 0 || i >= len(accounts) {
		return Account{}, fmt.Errorf("%w: selection %d out of range", ErrAmbiguousAccount, i)
	}
	return accounts[i], nil
}

// Flatten joins statements into one transaction sequence, preserving
// statement order and transaction order within each statement.
func Flatten(stmts []model.Statement) []model.Transaction {
	var out []model.Transaction
	for _, st := range stmts {
		out = append(out, st.Transactions...)
	}
	return out
}
