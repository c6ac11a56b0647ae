// Package ofx adapts OFX data (statement files and Direct Connect
// sessions) to the banking contracts, using aclindsa/ofxgo for the wire
// format.
package ofx

import (
	"fmt"
	"io"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/bankfeed-dev/bankfeed/internal/model"
	"github.com/bankfeed-dev/bankfeed/internal/sepa"
)

// Decoder parses OFX statement files, both SGML (1.x) and XML (2.x)
// flavors.
type Decoder struct{}

// Decode implements banking.StatementDecoder.
func (Decoder) Decode(r io.Reader) ([]model.Statement, error) {
	resp, err := ofxgo.ParseResponse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing OFX: %w", err)
	}
	return statementsFromResponse(resp)
}

// statementsFromResponse converts every bank and credit card statement in
// the response, in response order.
func statementsFromResponse(resp *ofxgo.Response) ([]model.Statement, error) {
	var out []model.Statement
	for _, msg := range append(resp.Bank, resp.CreditCard...) {
		var txns []ofxgo.Transaction
		switch stmt := msg.(type) {
		case *ofxgo.StatementResponse:
			if stmt.BankTranList != nil {
				txns = stmt.BankTranList.Transactions
			}
		case *ofxgo.CCStatementResponse:
			if stmt.BankTranList != nil {
				txns = stmt.BankTranList.Transactions
			}
		default:
			continue
		}

		var st model.Statement
		for _, t := range txns {
			converted, err := convertTransaction(t)
			if err != nil {
				return nil, err
			}
			st.Transactions = append(st.Transactions, converted)
		}
		out = append(out, st)
	}
	return out, nil
}

func convertTransaction(t ofxgo.Transaction) (model.Transaction, error) {
	amount, err := decimal.NewFromString(t.TrnAmt.String())
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", t.TrnAmt.String(), err)
	}

	raw := strings.TrimSpace(string(t.Memo))
	rem := sepa.Decode(raw)
	if rem.Name == "" {
		// The payee element is the only counterparty name OFX carries
		// when the memo has no structured tags.
		rem.Name = strings.TrimSpace(string(t.Name))
	}

	return model.Transaction{
		ValueDate:   t.DtPosted.Time,
		Amount:      amount,
		IsCredit:    amount.Sign() > 0,
		Description: raw,
		Remittance:  rem,
	}, nil
}
