package tally

import (
	"encoding/xml"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShashankBhutiya/TallyAI/internal/model"
)

func pinnedEncoder() *Encoder {
	enc := NewEncoder("Acme & Co", 2024)
	enc.newGUID = func() string { return "PINNED-GUID" }
	enc.voucherDate = func() time.Time { return time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC) }
	return enc
}

func testItems() []model.LineItem {
	return []model.LineItem{
		{Name: "Widget", Quantity: 3, Unit: "pcs", NetPrice: decimal.RequireFromString("10")},
		{Name: "Gizmo", Quantity: 2, Unit: "box", NetPrice: decimal.RequireFromString("5.50")},
	}
}

func TestCreateLedger(t *testing.T) {
	doc, err := pinnedEncoder().CreateLedger(Ledger{Name: "New Fresh Ledger"})
	require.NoError(t, err)
	out := string(doc)

	assert.Contains(t, out, "<TALLYREQUEST>Import Data</TALLYREQUEST>")
	assert.Contains(t, out, "<REPORTNAME>All Masters</REPORTNAME>")
	assert.Contains(t, out, "<SVCURRENTCOMPANY>Acme &amp; Co</SVCURRENTCOMPANY>")
	assert.Contains(t, out, "<NAME>New Fresh Ledger</NAME>")
	assert.Contains(t, out, "<PARENT>Sundry Debtors</PARENT>")
	assert.Contains(t, out, "<AFFECTSSTOCK>No</AFFECTSSTOCK>")
	assert.Contains(t, out, "<ISBILLWISEON>Yes</ISBILLWISEON>")
	assert.Contains(t, out, "<ISREVENUE>No</ISREVENUE>")
	assert.Contains(t, out, "<OPENINGBALANCE>0</OPENINGBALANCE>")
}

func TestVouchers_Balanced(t *testing.T) {
	doc, err := pinnedEncoder().Vouchers(testItems(), "Party", "")
	require.NoError(t, err)

	var env envelope
	require.NoError(t, xml.Unmarshal(doc, &env))

	msgs := env.Body.ImportData.Data.Messages
	require.Len(t, msgs, 2)
	for _, m := range msgs {
		require.NotNil(t, m.Voucher)
		require.Len(t, m.Voucher.Entries, 2)

		credit := decimal.RequireFromString(m.Voucher.Entries[0].Amount)
		debit := decimal.RequireFromString(m.Voucher.Entries[1].Amount)
		assert.True(t, credit.Equal(debit.Neg()), "entries must be exact negatives: %s vs %s", credit, debit)

		assert.Equal(t, "Party", m.Voucher.Entries[0].LedgerName)
		assert.Equal(t, "Yes", m.Voucher.Entries[0].IsDeemedPositive)
		assert.Equal(t, DefaultContraLedger, m.Voucher.Entries[1].LedgerName)
		assert.Equal(t, "No", m.Voucher.Entries[1].IsDeemedPositive)
	}
}

func TestVouchers_Fields(t *testing.T) {
	doc, err := pinnedEncoder().Vouchers(testItems(), "Party", "Bank")
	require.NoError(t, err)
	out := string(doc)

	assert.Contains(t, out, "<REPORTNAME>Vouchers</REPORTNAME>")
	assert.Contains(t, out, `VCHTYPE="Receipt"`)
	assert.Contains(t, out, `ACTION="Create"`)
	assert.Contains(t, out, "<VOUCHERNUMBER>INV-100</VOUCHERNUMBER>")
	assert.Contains(t, out, "<VOUCHERNUMBER>INV-101</VOUCHERNUMBER>")
	assert.Contains(t, out, "<DATE>20240401</DATE>")
	assert.Contains(t, out, "<NARRATION>Widget | Qty: 3 pcs | Rate: 10</NARRATION>")
	assert.Contains(t, out, "<PARTYLEDGERNAME>Party</PARTYLEDGERNAME>")
	assert.Contains(t, out, "<LEDGERNAME>Bank</LEDGERNAME>")
}

func TestVouchers_EscapesUserStrings(t *testing.T) {
	items := []model.LineItem{
		{Name: `<B&W> "Prints"`, Quantity: 1, Unit: "pcs", NetPrice: decimal.RequireFromString("2")},
	}

	doc, err := pinnedEncoder().Vouchers(items, "R&D Party", "")
	require.NoError(t, err)
	out := string(doc)

	assert.Contains(t, out, "&lt;B&amp;W&gt;")
	assert.Contains(t, out, "R&amp;D Party")
	assert.NotContains(t, out, "<B&W>")
}

func TestVouchers_PinnedEncodingIsDeterministic(t *testing.T) {
	enc := pinnedEncoder()
	a, err := enc.Vouchers(testItems(), "Party", "")
	require.NoError(t, err)
	b, err := enc.Vouchers(testItems(), "Party", "")
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestVouchers_FreshGUIDsPerRun(t *testing.T) {
	enc := NewEncoder("Acme", 2024)
	enc.voucherDate = func() time.Time { return time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC) }

	a, err := enc.Vouchers(testItems(), "Party", "")
	require.NoError(t, err)
	b, err := enc.Vouchers(testItems(), "Party", "")
	require.NoError(t, err)
	assert.NotEqual(t, string(a), string(b), "GUIDs must differ run to run")
}

func TestVoucherDate_Calendar(t *testing.T) {
	const fy = 2024
	start := time.Date(fy, time.April, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(fy+1, time.March, 31, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 1000; i++ {
		d := VoucherDate(fy)

		assert.False(t, d.Before(start), "date %s before fiscal year", d)
		assert.False(t, d.After(end), "date %s after fiscal year", d)

		switch d.Day() {
		case 1, 2:
		case 31:
			assert.Equal(t, time.March, d.Month(), "day 31 only allowed in March: %s", d)
			assert.Equal(t, fy+1, d.Year())
		default:
			t.Fatalf("impermissible day %d in %s", d.Day(), d)
		}
	}
}

func TestVouchers_Empty(t *testing.T) {
	doc, err := pinnedEncoder().Vouchers(nil, "Party", "")
	require.NoError(t, err)
	assert.Contains(t, string(doc), "<REQUESTDATA>")
	assert.NotContains(t, string(doc), "<VOUCHER")
}
