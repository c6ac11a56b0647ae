package ofx

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Statements(t *testing.T) {
	f, err := os.Open("../../testdata/statement.ofx")
	require.NoError(t, err)
	defer f.Close()

	stmts, err := Decoder{}.Decode(f)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	require.Len(t, stmts[0].Transactions, 3)
	require.Len(t, stmts[1].Transactions, 1)
}

func TestDecode_CreditTransaction(t *testing.T) {
	f, err := os.Open("../../testdata/statement.ofx")
	require.NoError(t, err)
	defer f.Close()

	stmts, err := Decoder{}.Decode(f)
	require.NoError(t, err)

	credit := stmts[0].Transactions[0]
	assert.True(t, credit.IsCredit)
	assert.Equal(t, "42", credit.Amount.String())
	assert.Equal(t, 2026, credit.ValueDate.Year())
	assert.Equal(t, 1, int(credit.ValueDate.Month()))
	assert.Equal(t, 5, credit.ValueDate.Day())
	assert.Equal(t, "Invoice 123", credit.Remittance.Text)
	assert.Equal(t, "E2E-REF-42", credit.Remittance.EndToEndRef)
	assert.Equal(t, "ACME GMBH", credit.Remittance.Name)
}

func TestDecode_DebitFallsBackToPayeeName(t *testing.T) {
	f, err := os.Open("../../testdata/statement.ofx")
	require.NoError(t, err)
	defer f.Close()

	stmts, err := Decoder{}.Decode(f)
	require.NoError(t, err)

	debit := stmts[0].Transactions[1]
	assert.False(t, debit.IsCredit)
	assert.Equal(t, "-13.37", debit.Amount.String())
	assert.Equal(t, "REWE MARKT", debit.Remittance.Name)
	assert.Empty(t, debit.Remittance.Text)
	assert.Equal(t, "KARTENZAHLUNG 11.01.2026", debit.Description)
}

func TestDecode_ZeroAmountKept(t *testing.T) {
	// Non-monetary lines are filtered by the import pipeline, not the
	// decoder.
	f, err := os.Open("../../testdata/statement.ofx")
	require.NoError(t, err)
	defer f.Close()

	stmts, err := Decoder{}.Decode(f)
	require.NoError(t, err)

	info := stmts[0].Transactions[2]
	assert.True(t, info.Amount.IsZero())
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decoder{}.Decode(strings.NewReader("not an ofx document"))
	assert.Error(t, err)
}
