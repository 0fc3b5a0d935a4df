package recon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

var (
	itcHeadOrder   = []string{"igst", "cgst", "sgst", "cess"}
	registerHeads  = []string{"igst", "cgst", "sgst", "cess"}
	salesTotalKeys = []string{"taxable_value", "igst", "cgst", "sgst", "cess"}
)

// metaOrder fixes the presentation order of reconciliations attached to a job.
var metaOrder = []Kind{KindPurchaseVsGSTR3B, KindSalesVsGSTR1}

// DecodeITC decodes the GSTR-2B vs GSTR-3B comparison. job2bID and job3bID label the sources.
func DecodeITC(raw []byte, job2bID, job3bID string) Result {
	if isAbsent(raw) {
		return Unavailable("no ITC reconciliation returned")
	}
	if err := check(KindITC2B3B, raw); err != nil {
		return Unavailable(err.Error())
	}

	var p struct {
		GSTIN  *string `json:"gstin"`
		Period *string `json:"period"`
		ByHead map[string]struct {
			Available  float64 `json:"available_2b"`
			Claimed    float64 `json:"claimed_3b"`
			Difference float64 `json:"difference"`
			Status     string  `json:"status"`
		} `json:"by_head"`
		Overall struct {
			Available  float64 `json:"total_available_2b"`
			Claimed    float64 `json:"total_claimed_3b"`
			Difference float64 `json:"difference"`
			Status     string  `json:"status"`
		} `json:"overall"`
		Issues []Issue `json:"issues"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return Unavailable(fmt.Sprintf("decode ITC reconciliation: %v", err))
	}

	cmp := &HeadComparison{
		A:      Source{Label: "GSTR-2B", JobID: optional(job2bID)},
		B:      Source{Label: "GSTR-3B", JobID: optional(job3bID)},
		GSTIN:  nonEmpty(p.GSTIN),
		Period: nonEmpty(p.Period),
		Overall: HeadLine{
			Head:       "total",
			A:          p.Overall.Available,
			B:          p.Overall.Claimed,
			Difference: p.Overall.Difference,
			Status:     classifyClaim(p.Overall.Status),
		},
		Issues: nonNilIssues(p.Issues),
	}
	cmp.Status = cmp.Overall.Status
	for _, h := range orderedKeys(p.ByHead, itcHeadOrder) {
		v := p.ByHead[h]
		cmp.Heads = append(cmp.Heads, HeadLine{
			Head:       h,
			A:          v.Available,
			B:          v.Claimed,
			Difference: v.Difference,
			Status:     classifyClaim(v.Status),
		})
	}
	return Result{Kind: KindITC2B3B, Heads: cmp}
}

// DecodePurchaseVsGSTR3B decodes the purchase register vs GSTR-3B ITC comparison.
func DecodePurchaseVsGSTR3B(raw []byte) Result {
	if isAbsent(raw) {
		return Unavailable("no purchase register reconciliation")
	}
	if err := check(KindPurchaseVsGSTR3B, raw); err != nil {
		return Unavailable(err.Error())
	}

	var p struct {
		Status string `json:"status"`
		Totals struct {
			PurchaseRegister map[string]*float64 `json:"purchase_register"`
			GSTR3B           map[string]*float64 `json:"gstr3b"`
		} `json:"totals"`
		FromRegister map[string]*float64 `json:"itc_from_purchase_register"`
		FromGSTR3B   map[string]*float64 `json:"itc_from_gstr3b"`
		Difference   map[string]*float64 `json:"difference"`
		Warnings     []string            `json:"warnings"`
		SourceJobID  *string             `json:"source_purchase_register_job_id"`
		SourceFile   *string             `json:"source_purchase_register_filename"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return Unavailable(fmt.Sprintf("decode purchase reconciliation: %v", err))
	}

	register := firstNonEmpty(p.Totals.PurchaseRegister, p.FromRegister)
	gstr3b := firstNonEmpty(p.Totals.GSTR3B, p.FromGSTR3B)

	cmp := &HeadComparison{
		A:      Source{Label: "Purchase register", JobID: nonEmpty(p.SourceJobID), Filename: nonEmpty(p.SourceFile)},
		B:      Source{Label: "GSTR-3B"},
		Status: classifyITC(p.Status),
		Issues: warningsToIssues(p.Warnings),
	}
	for _, h := range registerHeads {
		if !hasAny(h, register, gstr3b, p.Difference) {
			continue
		}
		cmp.Heads = append(cmp.Heads, HeadLine{
			Head:       h,
			A:          value(register, h),
			B:          value(gstr3b, h),
			Difference: value(p.Difference, h),
		})
	}
	cmp.Overall = HeadLine{
		Head:       "total",
		A:          value(register, "total"),
		B:          value(gstr3b, "total"),
		Difference: value(p.Difference, "total"),
		Status:     cmp.Status,
	}
	return Result{Kind: KindPurchaseVsGSTR3B, Heads: cmp}
}

// DecodeSalesVsGSTR1 decodes the sales register vs GSTR-1 invoice-set comparison.
// Source A is the sales register, source B is GSTR-1.
func DecodeSalesVsGSTR1(raw []byte) Result {
	if isAbsent(raw) {
		return Unavailable("no sales register reconciliation")
	}
	if err := check(KindSalesVsGSTR1, raw); err != nil {
		return Unavailable(err.Error())
	}

	type invoice struct {
		Number        json.RawMessage `json:"invoice_number"`
		Date          *string         `json:"invoice_date"`
		CustomerName  *string         `json:"customer_name"`
		CustomerGSTIN *string         `json:"customer_gstin"`
		TaxableValue  *float64        `json:"taxable_value"`
		TotalValue    *float64        `json:"total_value"`
	}
	var p struct {
		Status string `json:"status"`
		Totals struct {
			SalesRegister map[string]*float64 `json:"sales_register"`
			GSTR1         map[string]*float64 `json:"gstr1"`
		} `json:"totals"`
		Difference      map[string]*float64 `json:"difference"`
		MissingInGSTR1  []invoice           `json:"missing_in_gstr1"`
		MissingInSales  []invoice           `json:"missing_in_sales_register"`
		ValueMismatches []struct {
			Number     json.RawMessage `json:"invoice_number"`
			Date       *string         `json:"invoice_date"`
			SalesValue *float64        `json:"sales_register_value"`
			GSTR1Value *float64        `json:"gstr1_value"`
			Difference *float64        `json:"difference"`
		} `json:"value_mismatches"`
		Warnings   []string `json:"warnings"`
		SalesJobID *string  `json:"source_sales_register_job_id"`
		SalesFile  *string  `json:"source_sales_register_filename"`
		GSTR1JobID *string  `json:"source_gstr1_job_id"`
		GSTR1File  *string  `json:"source_gstr1_filename"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return Unavailable(fmt.Sprintf("decode sales reconciliation: %v", err))
	}

	cmp := &InvoiceSetComparison{
		A:      Source{Label: "Sales register", JobID: nonEmpty(p.SalesJobID), Filename: nonEmpty(p.SalesFile)},
		B:      Source{Label: "GSTR-1", JobID: nonEmpty(p.GSTR1JobID), Filename: nonEmpty(p.GSTR1File)},
		Status: classifyTurnover(p.Status),
		Issues: warningsToIssues(p.Warnings),
		Rows:   []InvoiceRow{},
	}
	for _, h := range salesTotalKeys {
		if !hasAny(h, p.Totals.SalesRegister, p.Totals.GSTR1, p.Difference) {
			continue
		}
		cmp.Totals = append(cmp.Totals, HeadLine{
			Head:       h,
			A:          value(p.Totals.SalesRegister, h),
			B:          value(p.Totals.GSTR1, h),
			Difference: value(p.Difference, h),
		})
	}
	cmp.Overall = HeadLine{
		Head:       "total",
		A:          value(p.Totals.SalesRegister, "total"),
		B:          value(p.Totals.GSTR1, "total"),
		Difference: value(p.Difference, "total"),
		Status:     cmp.Status,
	}

	missing := func(class RowClass, inv invoice) InvoiceRow {
		row := InvoiceRow{
			Class:             class,
			InvoiceNumber:     invoiceNumber(inv.Number),
			InvoiceDate:       nonEmpty(inv.Date),
			CounterpartyName:  nonEmpty(inv.CustomerName),
			CounterpartyGSTIN: nonEmpty(inv.CustomerGSTIN),
		}
		v := inv.TotalValue
		if v == nil {
			v = inv.TaxableValue
		}
		if class == RowPresentInAOnly {
			row.ValueA = v
		} else {
			row.ValueB = v
		}
		return row
	}
	for _, inv := range p.MissingInGSTR1 {
		cmp.Rows = append(cmp.Rows, missing(RowPresentInAOnly, inv))
	}
	for _, inv := range p.MissingInSales {
		cmp.Rows = append(cmp.Rows, missing(RowPresentInBOnly, inv))
	}
	for _, m := range p.ValueMismatches {
		cmp.Rows = append(cmp.Rows, InvoiceRow{
			Class:         RowValueMismatch,
			InvoiceNumber: invoiceNumber(m.Number),
			InvoiceDate:   nonEmpty(m.Date),
			ValueA:        m.SalesValue,
			ValueB:        m.GSTR1Value,
			Difference:    m.Difference,
		})
	}
	return Result{Kind: KindSalesVsGSTR1, Invoices: cmp}
}

// FromMeta decodes every reconciliation attached to a job's metadata bag. Known kinds come
// first in a fixed order; unknown kinds are reported as Unavailable.
func FromMeta(meta json.RawMessage) []Result {
	if isAbsent(meta) {
		return nil
	}
	var bag struct {
		Reconciliations map[string]json.RawMessage `json:"reconciliations"`
	}
	if err := json.Unmarshal(meta, &bag); err != nil || len(bag.Reconciliations) == 0 {
		return nil
	}

	var out []Result
	seen := make(map[string]bool, len(metaOrder))
	for _, kind := range metaOrder {
		raw, ok := bag.Reconciliations[string(kind)]
		if !ok {
			continue
		}
		seen[string(kind)] = true
		switch kind {
		case KindPurchaseVsGSTR3B:
			out = append(out, DecodePurchaseVsGSTR3B(raw))
		case KindSalesVsGSTR1:
			out = append(out, DecodeSalesVsGSTR1(raw))
		}
	}

	var unknown []string
	for k := range bag.Reconciliations {
		if !seen[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		out = append(out, Unavailable(fmt.Sprintf("unsupported reconciliation %q", k)))
	}
	return out
}

func classifyClaim(s string) Classification {
	switch s {
	case "over_claimed":
		return ClassOver
	case "under_claimed":
		return ClassUnder
	}
	return ClassMatch
}

func classifyITC(s string) Classification {
	switch s {
	case "itc_overclaimed":
		return ClassOver
	case "itc_underclaimed":
		return ClassUnder
	}
	return ClassMatch
}

// classifyTurnover maps the sales status. Under-reported turnover means GSTR-1 is under the register.
func classifyTurnover(s string) Classification {
	switch s {
	case "turnover_overreported":
		return ClassOver
	case "turnover_underreported":
		return ClassUnder
	}
	return ClassMatch
}

func isAbsent(raw []byte) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func nonNilIssues(in []Issue) []Issue {
	if in == nil {
		return []Issue{}
	}
	return in
}

func warningsToIssues(warnings []string) []Issue {
	issues := make([]Issue, 0, len(warnings))
	for _, w := range warnings {
		issues = append(issues, Issue{Level: "warning", Message: w})
	}
	return issues
}

func orderedKeys[V any](m map[string]V, order []string) []string {
	keys := make([]string, 0, len(m))
	known := make(map[string]bool, len(order))
	for _, k := range order {
		known[k] = true
		if _, ok := m[k]; ok {
			keys = append(keys, k)
		}
	}
	var rest []string
	for k := range m {
		if !known[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func firstNonEmpty(maps ...map[string]*float64) map[string]*float64 {
	for _, m := range maps {
		if len(m) > 0 {
			return m
		}
	}
	return nil
}

func hasAny(key string, maps ...map[string]*float64) bool {
	for _, m := range maps {
		if v, ok := m[key]; ok && v != nil {
			return true
		}
	}
	return false
}

func value(m map[string]*float64, key string) float64 {
	if v, ok := m[key]; ok && v != nil {
		return *v
	}
	return 0
}

func invoiceNumber(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return string(raw)
}
