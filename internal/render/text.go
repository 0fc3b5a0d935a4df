package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"docdesk/internal/domain"
	"docdesk/internal/recon"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	t.SetAutoFormatHeaders(false)
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	t.SetBorder(false)
	t.SetColumnSeparator("")
	t.SetCenterSeparator("")
	t.SetRowSeparator("")
	t.SetHeaderLine(false)
	t.SetTablePadding("  ")
	t.SetNoWhiteSpace(true)
	return t
}

func field(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%-14s %s\n", label+":", value)
}

// Job writes the detail view of a job.
func Job(w io.Writer, job *domain.Job) {
	if job == nil {
		fmt.Fprintln(w, "No job selected.")
		return
	}
	meta := job.MetaInfo()
	field(w, "Job", job.ID)
	field(w, "Status", string(job.Status))
	field(w, "File", Str(job.Filename))
	field(w, "Document type", OrPlaceholder(job.EffectiveDocType()))
	field(w, "Confidence", Percent(meta.DocTypeConfidence))
	field(w, "Created", Timestamp(job.CreatedAt))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Result:")
	fmt.Fprintln(w, indentJSON(job.Result))
}

func indentJSON(raw json.RawMessage) string {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 || bytes.Equal(t, []byte("null")) {
		return Placeholder
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, t, "", "  "); err != nil {
		return string(t)
	}
	return buf.String()
}

// JobList writes recent jobs as a table.
func JobList(w io.Writer, jobs []domain.Job, now time.Time) {
	if len(jobs) == 0 {
		fmt.Fprintln(w, "No jobs yet.")
		return
	}
	t := newTable(w, "JOB", "FILE", "TYPE", "STATUS", "CREATED")
	for i := range jobs {
		j := &jobs[i]
		t.Append([]string{j.ID, Str(j.Filename), OrPlaceholder(j.EffectiveDocType()), string(j.Status), Age(j.CreatedAt, now)})
	}
	t.Render()
}

// Batch writes batch progress and its constituent jobs.
func Batch(w io.Writer, b *domain.Batch) {
	if b == nil {
		fmt.Fprintln(w, "No batch selected.")
		return
	}
	p := b.Progress
	field(w, "Batch", b.ID)
	field(w, "Name", Str(b.Name))
	field(w, "Client", Str(b.ClientID))
	field(w, "Status", string(b.Status))
	field(w, "Progress", fmt.Sprintf("%s %d%%", ProgressBar(p, 20), CompletionPercent(p)))
	field(w, "Files", fmt.Sprintf("%d total, %d completed, %d failed, %d processing", p.Total, p.Completed, p.Failed, p.Processing))

	if len(b.Jobs) == 0 {
		return
	}
	fmt.Fprintln(w)
	t := newTable(w, "JOB", "FILE", "TYPE", "STATUS")
	for i := range b.Jobs {
		j := &b.Jobs[i]
		t.Append([]string{OrPlaceholder(j.ID), OrPlaceholder(j.Filename), Str(j.DocType), string(j.Status)})
	}
	t.Render()
}

// Reconciliation writes one reconciliation result. Unavailable results render a placeholder
// line instead of partial data.
func Reconciliation(w io.Writer, r recon.Result) {
	switch {
	case r.Heads != nil:
		heads(w, r.Kind, r.Heads)
	case r.Invoices != nil:
		invoices(w, r.Invoices)
	default:
		fmt.Fprintf(w, "Reconciliation unavailable: %s\n", OrPlaceholder(r.Reason))
	}
}

func kindTitle(k recon.Kind) string {
	switch k {
	case recon.KindITC2B3B:
		return "ITC: GSTR-2B vs GSTR-3B"
	case recon.KindPurchaseVsGSTR3B:
		return "ITC: purchase register vs GSTR-3B"
	case recon.KindSalesVsGSTR1:
		return "Turnover: sales register vs GSTR-1"
	}
	return string(k)
}

func sourceLabel(s recon.Source) string {
	if s.Filename != nil && *s.Filename != "" {
		return s.Label + " (" + *s.Filename + ")"
	}
	return s.Label
}

func heads(w io.Writer, kind recon.Kind, c *recon.HeadComparison) {
	fmt.Fprintln(w, kindTitle(kind))
	field(w, "GSTIN", Str(c.GSTIN))
	field(w, "Period", Str(c.Period))
	field(w, "Outcome", string(c.Status))
	fmt.Fprintln(w)

	t := newTable(w, "HEAD", strings.ToUpper(sourceLabel(c.A)), strings.ToUpper(sourceLabel(c.B)), "DIFFERENCE", "STATUS")
	for _, h := range append(append([]recon.HeadLine{}, c.Heads...), c.Overall) {
		t.Append([]string{strings.ToUpper(h.Head), Money(h.A), Money(h.B), Money(h.Difference), OrPlaceholder(string(h.Status))})
	}
	t.Render()
	issues(w, c.Issues)
}

func invoices(w io.Writer, c *recon.InvoiceSetComparison) {
	fmt.Fprintln(w, kindTitle(recon.KindSalesVsGSTR1))
	field(w, "Outcome", string(c.Status))
	field(w, "Only in "+c.A.Label, strconv.Itoa(c.Count(recon.RowPresentInAOnly)))
	field(w, "Only in "+c.B.Label, strconv.Itoa(c.Count(recon.RowPresentInBOnly)))
	field(w, "Mismatched", strconv.Itoa(c.Count(recon.RowValueMismatch)))
	fmt.Fprintln(w)

	t := newTable(w, "HEAD", strings.ToUpper(sourceLabel(c.A)), strings.ToUpper(sourceLabel(c.B)), "DIFFERENCE")
	for _, h := range append(append([]recon.HeadLine{}, c.Totals...), c.Overall) {
		t.Append([]string{strings.ToUpper(h.Head), Money(h.A), Money(h.B), Money(h.Difference)})
	}
	t.Render()

	if len(c.Rows) > 0 {
		fmt.Fprintln(w)
		rows := newTable(w, "CLASS", "INVOICE", "DATE", "COUNTERPARTY", "VALUE A", "VALUE B", "DIFFERENCE")
		for i := range c.Rows {
			r := &c.Rows[i]
			rows.Append([]string{string(r.Class), OrPlaceholder(r.InvoiceNumber), Str(r.InvoiceDate),
				Str(r.CounterpartyName), MoneyPtr(r.ValueA), MoneyPtr(r.ValueB), MoneyPtr(r.Difference)})
		}
		rows.Render()
	}
	issues(w, c.Issues)
}

func issues(w io.Writer, list []recon.Issue) {
	if len(list) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, is := range list {
		code := ""
		if is.Code != "" {
			code = " " + is.Code
		}
		fmt.Fprintf(w, "[%s]%s %s\n", strings.ToUpper(OrPlaceholder(is.Level)), code, is.Message)
	}
}

// Validation writes a validation report.
func Validation(w io.Writer, r *domain.ValidationReport) {
	valid := Placeholder
	if r.Valid != nil {
		valid = strconv.FormatBool(*r.Valid)
	}
	count := len(r.Issues)
	if r.IssueCount != nil {
		count = *r.IssueCount
	}
	field(w, "Job", r.JobID)
	field(w, "Document type", OrPlaceholder(r.DocType))
	field(w, "Valid", valid)
	field(w, "Issues", strconv.Itoa(count))
	if len(r.Issues) == 0 {
		return
	}
	fmt.Fprintln(w)
	t := newTable(w, "LEVEL", "CODE", "MESSAGE")
	for _, is := range r.Issues {
		t.Append([]string{OrPlaceholder(is.Level), OrPlaceholder(is.Code), OrPlaceholder(is.Message)})
	}
	t.Render()
}

// Usage writes the tenant's monthly usage.
func Usage(w io.Writer, u *domain.Usage) {
	field(w, "Month", OrPlaceholder(u.Month))
	field(w, "Docs parsed", strconv.Itoa(u.DocsParsed))
	field(w, "OCR pages", strconv.Itoa(u.OCRPages))
}

// APIKeys writes API key records. Secrets are never part of a listing.
func APIKeys(w io.Writer, keys []domain.APIKey, now time.Time) {
	if len(keys) == 0 {
		fmt.Fprintln(w, "No API keys.")
		return
	}
	t := newTable(w, "ID", "NAME", "ACTIVE", "PER MIN", "PER HOUR", "LAST USED", "CREATED")
	for i := range keys {
		k := &keys[i]
		t.Append([]string{k.ID, Str(k.Name), strconv.FormatBool(k.Active), strconv.Itoa(k.RateLimitPerMinute),
			strconv.Itoa(k.RateLimitPerHour), Age(k.LastUsedAt, now), Timestamp(k.CreatedAt)})
	}
	t.Render()
}

// Samples writes the demo documents published by the service.
func Samples(w io.Writer, samples []domain.Sample) {
	if len(samples) == 0 {
		fmt.Fprintln(w, "No samples available.")
		return
	}
	t := newTable(w, "FILE", "TYPE", "SIZE", "DESCRIPTION")
	for _, s := range samples {
		t.Append([]string{s.Filename, OrPlaceholder(s.Type), Size(s.Size), OrPlaceholder(s.Description)})
	}
	t.Render()
}

// Notices writes recorded notices oldest first.
func Notices(w io.Writer, notices []domain.Notice) {
	for _, n := range notices {
		fmt.Fprintf(w, "%s  %-20s %s\n", n.At.Format("15:04:05"), n.Kind, n.Message)
	}
}
