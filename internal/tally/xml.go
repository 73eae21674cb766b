// Package tally renders and posts Tally import-data XML. The encoder
// produces the two document shapes Tally's import protocol understands
// (ledger masters and receipt vouchers); the client handles transport.
package tally

import (
	"encoding/xml"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ShashankBhutiya/TallyAI/internal/model"
)

// Defaults applied when ledger parameters are left empty.
const (
	DefaultParentGroup  = "Sundry Debtors"
	DefaultContraLedger = "Cash"
)

const (
	reportMasters  = "All Masters"
	reportVouchers = "Vouchers"
	udfNamespace   = "TallyUDF"
	dateFormat     = "20060102"
)

// Ledger describes a ledger master to create or update. Tally treats the
// import as idempotent create-or-update keyed on the name.
type Ledger struct {
	Name           string
	Parent         string // default "Sundry Debtors"
	OpeningBalance decimal.Decimal
}

// Encoder renders Tally import-data documents for one company. All
// user-supplied strings go through encoding/xml, so reserved characters
// are always escaped.
type Encoder struct {
	company    string
	fiscalYear int

	// Hooks for deterministic tests; nil means real randomness.
	newGUID     func() string
	voucherDate func() time.Time
}

// NewEncoder creates an Encoder for company. fiscalYear is the calendar
// year in which the fiscal year begins (April fiscalYear to March
// fiscalYear+1).
func NewEncoder(company string, fiscalYear int) *Encoder {
	return &Encoder{company: company, fiscalYear: fiscalYear}
}

// CreateLedger renders the "All Masters" import document for l.
func (e *Encoder) CreateLedger(l Ledger) ([]byte, error) {
	if l.Parent == "" {
		l.Parent = DefaultParentGroup
	}

	env := e.envelope(reportMasters, []message{{
		UDF: udfNamespace,
		Ledger: &ledgerMaster{
			NameAttr:       l.Name,
			Name:           l.Name,
			Parent:         l.Parent,
			AffectsStock:   "No",
			IsBillwiseOn:   "Yes",
			IsRevenue:      "No",
			OpeningBalance: l.OpeningBalance.String(),
		},
	}})

	return xml.MarshalIndent(env, "", "  ")
}

// Vouchers renders the "Vouchers" import document: one Receipt voucher
// per item, in order. Each voucher carries a fresh uppercase GUID, a
// batch-scoped voucher number and two balancing ledger entries (party
// credited, contra debited by the item's net price).
func (e *Encoder) Vouchers(items []model.LineItem, partyLedger, contraLedger string) ([]byte, error) {
	if contraLedger == "" {
		contraLedger = DefaultContraLedger
	}

	msgs := make([]message, 0, len(items))
	for i, it := range items {
		dt := e.date().Format(dateFormat)
		msgs = append(msgs, message{
			UDF: udfNamespace,
			Voucher: &voucher{
				VchType:         "Receipt",
				Action:          "Create",
				GUID:            e.guid(),
				Date:            dt,
				EffectiveDate:   dt,
				VoucherNumber:   FormatVoucherNumber(i),
				VoucherTypeName: "Receipt",
				PersistedView:   "Accounting Voucher View",
				Narration:       narration(it),
				PartyLedgerName: partyLedger,
				Entries: []ledgerEntry{
					{LedgerName: partyLedger, IsDeemedPositive: "Yes", Amount: it.NetPrice.Neg().String()},
					{LedgerName: contraLedger, IsDeemedPositive: "No", Amount: it.NetPrice.String()},
				},
			},
		})
	}

	return xml.MarshalIndent(e.envelope(reportVouchers, msgs), "", "  ")
}

// VoucherDate picks a posting date Tally's educational mode accepts: the
// 1st or 2nd of any month within the fiscal year starting April of
// fiscalYear, or 31 March at the fiscal year end.
func VoucherDate(fiscalYear int) time.Time {
	m := time.April + time.Month(rand.IntN(12))
	year := fiscalYear
	if m > time.December {
		m -= 12
		year++
	}

	day := 1 + rand.IntN(2)
	if m == time.March && rand.IntN(3) == 2 {
		day = 31
	}
	return time.Date(year, m, day, 0, 0, 0, 0, time.UTC)
}

func (e *Encoder) guid() string {
	if e.newGUID != nil {
		return e.newGUID()
	}
	return strings.ToUpper(uuid.NewString())
}

func (e *Encoder) date() time.Time {
	if e.voucherDate != nil {
		return e.voucherDate()
	}
	return VoucherDate(e.fiscalYear)
}

func narration(it model.LineItem) string {
	return fmt.Sprintf("%s | Qty: %d %s | Rate: %s", it.Name, it.Quantity, it.Unit, it.NetPrice)
}

func (e *Encoder) envelope(report string, msgs []message) envelope {
	return envelope{
		Header: header{TallyRequest: "Import Data"},
		Body: body{
			ImportData: importData{
				Desc: requestDesc{
					ReportName: report,
					Static:     staticVariables{Company: e.company},
				},
				Data: requestData{Messages: msgs},
			},
		},
	}
}

// Wire structs for Tally's envelope dialect.

type envelope struct {
	XMLName xml.Name `xml:"ENVELOPE"`
	Header  header   `xml:"HEADER"`
	Body    body     `xml:"BODY"`
}

type header struct {
	TallyRequest string `xml:"TALLYREQUEST"`
}

type body struct {
	ImportData importData `xml:"IMPORTDATA"`
}

type importData struct {
	Desc requestDesc `xml:"REQUESTDESC"`
	Data requestData `xml:"REQUESTDATA"`
}

type requestDesc struct {
	ReportName string          `xml:"REPORTNAME"`
	Static     staticVariables `xml:"STATICVARIABLES"`
}

type staticVariables struct {
	Company string `xml:"SVCURRENTCOMPANY"`
}

type requestData struct {
	Messages []message `xml:"TALLYMESSAGE"`
}

type message struct {
	UDF     string        `xml:"xmlns:UDF,attr"`
	Ledger  *ledgerMaster `xml:"LEDGER"`
	Voucher *voucher      `xml:"VOUCHER"`
}

type ledgerMaster struct {
	NameAttr       string `xml:"NAME,attr"`
	ReservedName   string `xml:"RESERVEDNAME,attr"`
	Name           string `xml:"NAME"`
	Parent         string `xml:"PARENT"`
	AffectsStock   string `xml:"AFFECTSSTOCK"`
	IsBillwiseOn   string `xml:"ISBILLWISEON"`
	IsRevenue      string `xml:"ISREVENUE"`
	OpeningBalance string `xml:"OPENINGBALANCE"`
}

type voucher struct {
	VchType         string        `xml:"VCHTYPE,attr"`
	Action          string        `xml:"ACTION,attr"`
	GUID            string        `xml:"GUID,attr"`
	Date            string        `xml:"DATE"`
	EffectiveDate   string        `xml:"EFFECTIVEDATE"`
	VoucherNumber   string        `xml:"VOUCHERNUMBER"`
	VoucherTypeName string        `xml:"VOUCHERTYPENAME"`
	PersistedView   string        `xml:"PERSISTEDVIEW"`
	Narration       string        `xml:"NARRATION"`
	PartyLedgerName string        `xml:"PARTYLEDGERNAME"`
	Entries         []ledgerEntry `xml:"ALLLEDGERENTRIES.LIST"`
}

type ledgerEntry struct {
	LedgerName       string `xml:"LEDGERNAME"`
	IsDeemedPositive string `xml:"ISDEEMEDPOSITIVE"`
	Amount           string `xml:"AMOUNT"`
}
