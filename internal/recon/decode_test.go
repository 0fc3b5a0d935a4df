package recon_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docdesk/internal/recon"
)

const itcPayload = `{
  "gstin": "29ABCDE1234F1Z5",
  "period": "2024-04",
  "itc_available_2b": {"igst": 1000, "cgst": 500, "sgst": 500, "cess": 0},
  "itc_claimed_3b": {"igst": 1200, "cgst": 500, "sgst": 500, "cess": 0},
  "by_head": {
    "cess": {"available_2b": 0, "claimed_3b": 0, "difference": 0, "status": "match"},
    "sgst": {"available_2b": 500, "claimed_3b": 500, "difference": 0, "status": "match"},
    "igst": {"available_2b": 1000, "claimed_3b": 1200, "difference": 200, "status": "over_claimed"},
    "cgst": {"available_2b": 500, "claimed_3b": 500, "difference": 0, "status": "match"}
  },
  "overall": {"total_available_2b": 2000, "total_claimed_3b": 2200, "difference": 200, "status": "over_claimed"},
  "issues": [{"code": "ITC_IGST_MISMATCH", "level": "warning", "message": "IGST ITC mismatch"}]
}`

func TestDecodeITC(t *testing.T) {
	r := recon.DecodeITC([]byte(itcPayload), "j2b", "j3b")
	require.Equal(t, recon.KindITC2B3B, r.Kind)
	require.NotNil(t, r.Heads)

	h := r.Heads
	assert.Equal(t, "29ABCDE1234F1Z5", *h.GSTIN)
	assert.Equal(t, "j2b", *h.A.JobID)
	require.Len(t, h.Heads, 4)
	assert.Equal(t, []string{"igst", "cgst", "sgst", "cess"}, []string{h.Heads[0].Head, h.Heads[1].Head, h.Heads[2].Head, h.Heads[3].Head})
	assert.Equal(t, recon.ClassOver, h.Heads[0].Status)
	assert.InDelta(t, 200, h.Heads[0].Difference, 0.001)
	assert.Equal(t, recon.ClassOver, h.Status)
	assert.Equal(t, recon.ClassOver, h.Overall.Status)
	require.Len(t, h.Issues, 1)
	assert.Equal(t, "ITC_IGST_MISMATCH", h.Issues[0].Code)
}

func TestDecodeITC_MalformedDegradesToUnavailable(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ``},
		{"null", `null`},
		{"not json", `{"by_head":`},
		{"missing overall", `{"by_head": {"igst": {"available_2b": 1, "claimed_3b": 1, "difference": 0, "status": "match"}}}`},
		{"bad status", `{"by_head": {"igst": {"available_2b": 1, "claimed_3b": 1, "difference": 0, "status": "weird"}},
			"overall": {"total_available_2b": 1, "total_claimed_3b": 1, "difference": 0, "status": "match"}}`},
		{"string amount", `{"by_head": {"igst": {"available_2b": "1", "claimed_3b": 1, "difference": 0, "status": "match"}},
			"overall": {"total_available_2b": 1, "total_claimed_3b": 1, "difference": 0, "status": "match"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := recon.DecodeITC([]byte(tt.raw), "a", "b")
			assert.Equal(t, recon.KindUnavailable, r.Kind)
			assert.False(t, r.Available())
			assert.NotEmpty(t, r.Reason)
			assert.Nil(t, r.Heads)
		})
	}
}

func TestDecodePurchaseVsGSTR3B(t *testing.T) {
	raw := `{
	  "status": "itc_underclaimed",
	  "totals": {
	    "purchase_register": {"igst": 100, "cgst": 50, "sgst": 50, "total": 200},
	    "gstr3b": {"igst": 150, "cgst": 50, "sgst": 50, "total": 250}
	  },
	  "difference": {"igst": -50, "cgst": 0, "sgst": 0, "total": -50},
	  "warnings": ["2 invoices missing GSTIN"],
	  "source_purchase_register_job_id": "pr-1",
	  "source_purchase_register_filename": "purchases.xlsx"
	}`

	r := recon.DecodePurchaseVsGSTR3B([]byte(raw))
	require.Equal(t, recon.KindPurchaseVsGSTR3B, r.Kind)
	h := r.Heads
	assert.Equal(t, recon.ClassUnder, h.Status)
	require.Len(t, h.Heads, 3)
	assert.InDelta(t, -50, h.Heads[0].Difference, 0.001)
	assert.InDelta(t, 200, h.Overall.A, 0.001)
	assert.InDelta(t, 250, h.Overall.B, 0.001)
	assert.Equal(t, "pr-1", *h.A.JobID)
	require.Len(t, h.Issues, 1)
	assert.Equal(t, "warning", h.Issues[0].Level)
}

func TestDecodePurchaseVsGSTR3B_LegacyTotals(t *testing.T) {
	raw := `{
	  "status": "matched",
	  "itc_from_purchase_register": {"igst": 10, "total": 10},
	  "itc_from_gstr3b": {"igst": 10, "total": 10},
	  "difference": {"igst": 0, "total": 0}
	}`

	r := recon.DecodePurchaseVsGSTR3B([]byte(raw))
	require.Equal(t, recon.KindPurchaseVsGSTR3B, r.Kind)
	assert.Equal(t, recon.ClassMatch, r.Heads.Status)
	require.Len(t, r.Heads.Heads, 1)
	assert.InDelta(t, 10, r.Heads.Overall.A, 0.001)
}

func TestDecodeSalesVsGSTR1(t *testing.T) {
	raw := `{
	  "status": "turnover_underreported",
	  "totals": {
	    "sales_register": {"taxable_value": 1000, "igst": 180, "total": 1180},
	    "gstr1": {"taxable_value": 500, "igst": 90, "total": 590}
	  },
	  "difference": {"taxable_value": 500, "igst": 90, "total": 590},
	  "missing_in_gstr1": [{"invoice_number": "INV-2", "invoice_date": "2024-04-03", "customer_name": "Acme", "total_value": 590}],
	  "missing_in_sales_register": [{"invoice_number": 1007, "taxable_value": 100}],
	  "value_mismatches": [{"invoice_number": "INV-1", "sales_register_value": 590, "gstr1_value": 500, "difference": 90}],
	  "warnings": []
	}`

	r := recon.DecodeSalesVsGSTR1([]byte(raw))
	require.Equal(t, recon.KindSalesVsGSTR1, r.Kind)
	inv := r.Invoices
	require.NotNil(t, inv)
	assert.Equal(t, recon.ClassUnder, inv.Status)
	assert.Equal(t, 1, inv.Count(recon.RowPresentInAOnly))
	assert.Equal(t, 1, inv.Count(recon.RowPresentInBOnly))
	assert.Equal(t, 1, inv.Count(recon.RowValueMismatch))

	require.Len(t, inv.Rows, 3)
	assert.Equal(t, "INV-2", inv.Rows[0].InvoiceNumber)
	assert.InDelta(t, 590, *inv.Rows[0].ValueA, 0.001)
	assert.Nil(t, inv.Rows[0].ValueB)
	assert.Equal(t, "1007", inv.Rows[1].InvoiceNumber)
	assert.InDelta(t, 100, *inv.Rows[1].ValueB, 0.001)
	assert.InDelta(t, 90, *inv.Rows[2].Difference, 0.001)

	require.Len(t, inv.Totals, 2)
	assert.Equal(t, "taxable_value", inv.Totals[0].Head)
	assert.Empty(t, inv.Issues)
}

func TestFromMeta(t *testing.T) {
	meta := map[string]any{
		"detected_doc_type": "gstr3b",
		"reconciliations": map[string]any{
			"sales_vs_gstr1":         map[string]any{"status": "nonsense"},
			"purchase_vs_gstr3b_itc": json.RawMessage(`{"status":"matched","totals":{"purchase_register":{"total":0},"gstr3b":{"total":0}},"difference":{"total":0}}`),
			"future_kind":            map[string]any{"x": 1},
		},
	}
	b, err := json.Marshal(meta)
	require.NoError(t, err)

	results := recon.FromMeta(b)
	require.Len(t, results, 3)
	assert.Equal(t, recon.KindPurchaseVsGSTR3B, results[0].Kind)
	assert.Equal(t, recon.KindUnavailable, results[1].Kind)
	assert.Equal(t, recon.KindUnavailable, results[2].Kind)
	assert.Contains(t, results[2].Reason, "future_kind")
}

func TestFromMeta_NoReconciliations(t *testing.T) {
	assert.Empty(t, recon.FromMeta(nil))
	assert.Empty(t, recon.FromMeta(json.RawMessage(`{"detected_doc_type":"invoice"}`)))
	assert.Empty(t, recon.FromMeta(json.RawMessage(`[1,2]`)))
}
