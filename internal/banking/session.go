// Package banking acquires raw bank transactions, either from a live
// authenticated session or from a statement file, and hands them to the
// import pipeline as one flattened, source-ordered sequence.
package banking

import (
	"context"
	"io"
	"time"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

// Account identifies one account reachable through a banking session.
type Account struct {
	IBAN string
	Name string
}

// SessionClient is an authenticated dialog with a bank. Implementations
// wrap the underlying wire protocol; callers only see accounts, statements
// and the optional challenge round-trip.
type SessionClient interface {
	// Accounts lists the accounts the session may read statements for.
	Accounts(ctx context.Context) ([]Account, error)

	// Statements fetches all statements for the date range. It may fail
	// with *ChallengeRequired when the bank demands a one-time code
	// before releasing the data.
	Statements(ctx context.Context, account Account, from, to time.Time) ([]model.Statement, error)

	// CompleteChallenge resumes a fetch that was interrupted by
	// ChallengeRequired, submitting the operator's one-time code.
	CompleteChallenge(ctx context.Context, continuation any, code string) ([]model.Statement, error)
}

// ChallengeRequired signals that the bank wants a one-time code (TAN)
// before it releases statements. Continuation is opaque to everything but
// the session client that produced it.
type ChallengeRequired struct {
	Prompt       string
	Continuation any
}

func (e *ChallengeRequired) Error() string {
	return "bank requires a challenge: " + e.Prompt
}

// StatementDecoder parses a statement file into statements.
type StatementDecoder interface {
	Decode(r io.Reader) ([]model.Statement, error)
}
