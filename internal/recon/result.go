// Package recon decodes reconciliation payloads produced by the parsing service into a fixed
// set of variants. Payloads are shape-checked on ingress; anything that fails the check becomes
// an Unavailable result instead of leaking partial data into rendering.
package recon

// Kind identifies a reconciliation variant.
type Kind string

const (
	// KindITC2B3B compares ITC available in GSTR-2B with ITC claimed in GSTR-3B.
	KindITC2B3B Kind = "itc_2b_3b"
	// KindPurchaseVsGSTR3B compares purchase register ITC with GSTR-3B.
	KindPurchaseVsGSTR3B Kind = "purchase_vs_gstr3b_itc"
	// KindSalesVsGSTR1 compares sales register invoices with GSTR-1.
	KindSalesVsGSTR1 Kind = "sales_vs_gstr1"
	// KindUnavailable marks an absent or malformed payload.
	KindUnavailable Kind = "unavailable"
)

// Classification is the outcome of comparing one figure across two sources.
type Classification string

const (
	ClassMatch Classification = "match"
	ClassOver  Classification = "over"
	ClassUnder Classification = "under"
)

// RowClass classifies one invoice of an invoice-set comparison.
type RowClass string

const (
	RowPresentInAOnly RowClass = "present_in_a_only"
	RowPresentInBOnly RowClass = "present_in_b_only"
	RowValueMismatch  RowClass = "value_mismatch"
)

// Issue is an advisory attached to a reconciliation.
type Issue struct {
	Code    string `json:"code,omitempty"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// HeadLine is one tax head (igst, cgst, sgst, cess, total) compared across two sources.
// Difference is signed as reported by the service. Status is empty when the service did not
// classify the head.
type HeadLine struct {
	Head       string         `json:"head"`
	A          float64        `json:"a"`
	B          float64        `json:"b"`
	Difference float64        `json:"difference"`
	Status     Classification `json:"status,omitempty"`
}

// Source names one side of a comparison.
type Source struct {
	Label    string  `json:"label"`
	JobID    *string `json:"job_id,omitempty"`
	Filename *string `json:"filename,omitempty"`
}

// HeadComparison is an ITC-head comparison.
type HeadComparison struct {
	A       Source         `json:"a"`
	B       Source         `json:"b"`
	GSTIN   *string        `json:"gstin,omitempty"`
	Period  *string        `json:"period,omitempty"`
	Heads   []HeadLine     `json:"heads"`
	Overall HeadLine       `json:"overall"`
	Status  Classification `json:"status"`
	Issues  []Issue        `json:"issues"`
}

// InvoiceRow is one invoice that differs between the two sources.
type InvoiceRow struct {
	Class             RowClass `json:"class"`
	InvoiceNumber     string   `json:"invoice_number"`
	InvoiceDate       *string  `json:"invoice_date,omitempty"`
	CounterpartyName  *string  `json:"counterparty_name,omitempty"`
	CounterpartyGSTIN *string  `json:"counterparty_gstin,omitempty"`
	ValueA            *float64 `json:"value_a,omitempty"`
	ValueB            *float64 `json:"value_b,omitempty"`
	Difference        *float64 `json:"difference,omitempty"`
}

// InvoiceSetComparison is an invoice-level comparison between two registers.
type InvoiceSetComparison struct {
	A       Source         `json:"a"`
	B       Source         `json:"b"`
	Totals  []HeadLine     `json:"totals"`
	Overall HeadLine       `json:"overall"`
	Status  Classification `json:"status"`
	Rows    []InvoiceRow   `json:"rows"`
	Issues  []Issue        `json:"issues"`
}

// Count returns how many rows carry class.
func (c *InvoiceSetComparison) Count(class RowClass) int {
	n := 0
	for i := range c.Rows {
		if c.Rows[i].Class == class {
			n++
		}
	}
	return n
}

// Result is exactly one of the variants. Heads is set for KindITC2B3B and
// KindPurchaseVsGSTR3B, Invoices for KindSalesVsGSTR1, Reason for KindUnavailable.
type Result struct {
	Kind     Kind                  `json:"kind"`
	Heads    *HeadComparison       `json:"heads,omitempty"`
	Invoices *InvoiceSetComparison `json:"invoices,omitempty"`
	Reason   string                `json:"reason,omitempty"`
}

// Available reports whether the result carries data.
func (r Result) Available() bool {
	return r.Kind != KindUnavailable
}

// Unavailable builds a placeholder result.
func Unavailable(reason string) Result {
	return Result{Kind: KindUnavailable, Reason: reason}
}
