// Package importer drives the import pipeline: normalize raw bank
// transactions into canonical ledger transactions and submit them, account
// by account, against the ledger's duplicate detection.
package importer

import (
	"strings"

	"github.com/bankfeed-dev/bankfeed/internal/firefly"
	"github.com/bankfeed-dev/bankfeed/internal/iban"
	"github.com/bankfeed-dev/bankfeed/internal/model"
)

// side is one end of a ledger transaction: the local asset account (always
// by id) or the counterparty (always by name and IBAN). Keeping both
// representations in one place enforces that split for every direction.
type side struct {
	id   *int64
	name *string
	iban *string
}

func localSide(accountID int64) side {
	return side{id: &accountID}
}

func counterpartySide(r model.Remittance) side {
	var s side
	if r.Name != "" {
		name := r.Name
		s.name = &name
	}
	// A malformed bank-supplied IBAN must never reach the ledger.
	if r.IBAN != "" && iban.Valid(r.IBAN) {
		ib := r.IBAN
		s.iban = &ib
	}
	return s
}

// Normalize converts a bank transaction into the canonical ledger shape.
// It never fails: missing fields degrade to nulls, and the description
// falls back to "-" because the ledger rejects empty descriptions.
func Normalize(tx model.Transaction, accountID int64) firefly.Transaction {
	local := localSide(accountID)
	counterparty := counterpartySide(tx.Remittance)

	// IsCredit decides direction; the amount sign does not.
	source, dest := local, counterparty
	kind := firefly.TypeWithdrawal
	if tx.IsCredit {
		source, dest = counterparty, local
		kind = firefly.TypeDeposit
	}

	out := firefly.Transaction{
		Type:            kind,
		Date:            tx.ValueDate.Format("2006-01-02"),
		Amount:          tx.Amount.Abs(),
		Description:     description(tx.Remittance),
		SourceID:        source.id,
		SourceName:      source.name,
		SourceIBAN:      source.iban,
		DestinationID:   dest.id,
		DestinationName: dest.name,
		DestinationIBAN: dest.iban,
		Reference:       strings.TrimSpace(tx.Remittance.EndToEndRef),
	}
	if tx.Remittance.DivergingPrincipal != "" {
		notes := tx.Remittance.DivergingPrincipal
		out.Notes = &notes
	}
	return out
}

func description(r model.Remittance) string {
	if text := strings.TrimSpace(r.Text); text != "" {
		return text
	}
	if raw := strings.TrimSpace(r.Raw); raw != "" {
		return raw
	}
	return "-"
}
