// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldJobID     = "job_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Survey fields
	FieldDataset   = "dataset"
	FieldQuestion  = "question"
	FieldQType     = "question_type"
	FieldResponses = "responses"
	FieldFormat    = "format"

	// Path fields
	FieldPath       = "path"
	FieldReportPath = "report_path"
)
