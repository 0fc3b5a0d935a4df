// Package render turns snapshots into text for the terminal and spreadsheets for download.
// Absent values always render as Placeholder, never as an empty cell or a zero.
package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"docdesk/internal/domain"
)

// Placeholder stands in for every absent field.
const Placeholder = "—"

// Str renders an optional string.
func Str(s *string) string {
	if s == nil {
		return Placeholder
	}
	return OrPlaceholder(*s)
}

// OrPlaceholder renders s, or Placeholder when it is blank.
func OrPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

// Timestamp renders a service timestamp in UTC.
func Timestamp(ts domain.Timestamp) string {
	if ts.IsZero() {
		return Placeholder
	}
	return ts.UTC().Format("2006-01-02 15:04 UTC")
}

// Money renders an amount in rupees with Indian digit grouping, e.g. ₹12,34,567.89.
func Money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Placeholder
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	whole, frac, _ := strings.Cut(s, ".")
	return sign + "₹" + groupIndian(whole) + "." + frac
}

// MoneyPtr renders an optional amount.
func MoneyPtr(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return Money(*v)
}

// groupIndian groups the last three digits, then every two: 1234567 -> 12,34,567.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(append(parts, tail), ",")
}

// Percent renders a 0..1 ratio as a whole percentage.
func Percent(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return fmt.Sprintf("%.0f%%", *v*100)
}

// CompletionPercent is the share of completed jobs, clamped to 0..100.
func CompletionPercent(p domain.Progress) int {
	if p.Total <= 0 {
		return 0
	}
	pct := p.Completed * 100 / p.Total
	return max(0, min(100, pct))
}

// ProgressBar draws p as a fixed-width bar where '#' is completed and 'x' failed.
func ProgressBar(p domain.Progress, width int) string {
	if width <= 0 {
		width = 20
	}
	if p.Total <= 0 {
		return "[" + strings.Repeat(".", width) + "]"
	}
	done := p.Completed * width / p.Total
	failed := p.Failed * width / p.Total
	if done+failed > width {
		failed = width - done
	}
	return "[" + strings.Repeat("#", done) + strings.Repeat("x", failed) + strings.Repeat(".", width-done-failed) + "]"
}

// Age renders how long ago ts was relative to now.
func Age(ts domain.Timestamp, now time.Time) string {
	if ts.IsZero() {
		return Placeholder
	}
	return humanize.RelTime(ts.Time, now, "ago", "from now")
}

// Size renders a byte count, e.g. 82 kB.
func Size(n int64) string {
	if n <= 0 {
		return Placeholder
	}
	return humanize.Bytes(uint64(n))
}
