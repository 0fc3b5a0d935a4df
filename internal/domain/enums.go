package domain

import (
	"path/filepath"
	"strings"
)

// JobStatus is the lifecycle status of a parse job as reported by the service.
type JobStatus string

const (
	JobStatusQueued      JobStatus = "queued"
	JobStatusProcessing  JobStatus = "processing"
	JobStatusSucceeded   JobStatus = "succeeded"
	JobStatusFailed      JobStatus = "failed"
	JobStatusNeedsReview JobStatus = "needs_review"
)

// IsTerminal reports whether no further transition can occur from s.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusSucceeded, JobStatusFailed, JobStatusNeedsReview:
		return true
	}
	return false
}

// BatchStatus is the aggregate status of a batch.
type BatchStatus string

const (
	BatchStatusQueued     BatchStatus = "queued"
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
)

// IsTerminal reports whether the batch has finished.
func (s BatchStatus) IsTerminal() bool {
	return s == BatchStatusCompleted || s == BatchStatusFailed
}

// CredentialMode selects which credential accompanies outbound requests.
type CredentialMode string

const (
	ModeNormal CredentialMode = "normal"
	ModeAdmin  CredentialMode = "admin"
)

// AuthHeader selects how a normal-mode API key is sent.
type AuthHeader string

const (
	AuthHeaderBearer AuthHeader = "bearer"
	AuthHeaderAPIKey AuthHeader = "x-api-key"
)

// ValidationDocType lists the document types the service can validate.
type ValidationDocType string

const (
	ValidationSalesRegister ValidationDocType = "sales_register"
	ValidationGSTR2B        ValidationDocType = "gstr2b"
	ValidationGSTR3B        ValidationDocType = "gstr3b"
)

// Valid reports whether t is a known validation document type.
func (t ValidationDocType) Valid() bool {
	switch t {
	case ValidationSalesRegister, ValidationGSTR2B, ValidationGSTR3B:
		return true
	}
	return false
}

// DocTypeHints are the document types a caller may force on submission.
var DocTypeHints = []string{
	"invoice",
	"gst_invoice",
	"receipt",
	"bank_statement",
	"utility_bill",
	"eway_bill",
	"purchase_register",
	"sales_register",
	"gstr1",
	"gstr2b",
	"gstr3b",
}

// AllowedExtensions maps uploadable file extensions (without dot) to their MIME content type.
var AllowedExtensions = map[string]string{
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"csv":  "text/csv",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"xls":  "application/vnd.ms-excel",
	"json": "application/json",
}

// ContentTypeFor returns the MIME type for filename, or ErrUnsupportedFileType.
func ContentTypeFor(filename string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	ct, ok := AllowedExtensions[ext]
	if !ok {
		return "", ErrUnsupportedFileType
	}
	return ct, nil
}

// JobExportFormat is a per-job export rendered by the service.
type JobExportFormat string

const (
	ExportJSON        JobExportFormat = "json"
	ExportSalesCSV    JobExportFormat = "sales-csv"
	ExportPurchaseCSV JobExportFormat = "purchase-csv"
	ExportSalesZoho   JobExportFormat = "sales-zoho"
	ExportTallyXML    JobExportFormat = "tally-xml"
	ExportTallyCSV    JobExportFormat = "tally-csv"
)

// Valid reports whether f is a known job export.
func (f JobExportFormat) Valid() bool {
	switch f {
	case ExportJSON, ExportSalesCSV, ExportPurchaseCSV, ExportSalesZoho, ExportTallyXML, ExportTallyCSV:
		return true
	}
	return false
}

// ReconExportKind is a reconciliation export rendered by the service.
type ReconExportKind string

const (
	ReconExportMissingGSTR1  ReconExportKind = "missing-invoices-gstr1"
	ReconExportMissingSales  ReconExportKind = "missing-invoices-sales"
	ReconExportValueMismatch ReconExportKind = "value-mismatches"
	ReconExportITCSummary    ReconExportKind = "itc-summary"
)

// Valid reports whether k is a known reconciliation export.
func (k ReconExportKind) Valid() bool {
	switch k {
	case ReconExportMissingGSTR1, ReconExportMissingSales, ReconExportValueMismatch, ReconExportITCSummary:
		return true
	}
	return false
}

// BatchExportFormat is a batch export rendered by the service.
type BatchExportFormat string

const (
	BatchExportJSON     BatchExportFormat = "json"
	BatchExportCSV      BatchExportFormat = "csv"
	BatchExportTallyXML BatchExportFormat = "tally_xml"
	BatchExportTallyCSV BatchExportFormat = "tally_csv"
)

// Valid reports whether f is a known batch export.
func (f BatchExportFormat) Valid() bool {
	switch f {
	case BatchExportJSON, BatchExportCSV, BatchExportTallyXML, BatchExportTallyCSV:
		return true
	}
	return false
}

// NoticeKind classifies user-visible notices.
type NoticeKind string

const (
	NoticeEnvironmentMismatch NoticeKind = "environment_mismatch"
	NoticeJobNotFound         NoticeKind = "job_not_found"
	NoticeBatchNotFound       NoticeKind = "batch_not_found"
	NoticeBatchFinished       NoticeKind = "batch_finished"
)
