package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single statement line as delivered by a bank, before
// normalization. Amount keeps whatever sign convention the source uses;
// IsCredit is authoritative for direction and must not be derived from the
// sign.
type Transaction struct {
	ValueDate   time.Time
	Amount      decimal.Decimal
	IsCredit    bool
	Description string // raw remittance text
	Remittance  Remittance
}

// Statement is a bank-issued batch of transactions for one account over a
// period.
type Statement struct {
	Transactions []Transaction
}

// Remittance holds the machine-readable sub-fields of a remittance line.
// Empty strings mean the decoder could not extract the field. Raw always
// carries the undecoded text.
type Remittance struct {
	Name               string // counterparty name
	IBAN               string // counterparty IBAN, unvalidated
	BIC                string
	EndToEndRef        string
	DivergingPrincipal string
	Text               string // human-readable payment reference
	Raw                string
}
