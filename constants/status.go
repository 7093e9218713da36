package constants

// DocStatus is the canonical per-document status recorded in the processing log.
type DocStatus string

// Stable values (stored as-is in the batch history tables).
const (
	DocStatusSuccess           DocStatus = "SUCCESS"
	DocStatusNoText            DocStatus = "NO_TEXT"            // every strategy came back empty
	DocStatusInsufficientText  DocStatus = "INSUFFICIENT_TEXT"  // text too short to send
	DocStatusMalformedResponse DocStatus = "MALFORMED_RESPONSE" // service reply was not the expected JSON
	DocStatusServiceError      DocStatus = "SERVICE_ERROR"      // service call failed
	DocStatusTimeout           DocStatus = "TIMEOUT"            // per-document deadline hit
	DocStatusFailed            DocStatus = "FAILED"             // anything else
)

// Label is the human-readable processing log wording.
func (s DocStatus) Label() string {
	switch s {
	case DocStatusSuccess:
		return "Success"
	case DocStatusNoText:
		return "No Text Extracted"
	case DocStatusInsufficientText:
		return "Insufficient Text"
	case DocStatusMalformedResponse:
		return "JSON Parse Error"
	case DocStatusServiceError:
		return "Service Error"
	case DocStatusTimeout:
		return "Timeout"
	default:
		return "Error"
	}
}

// OK reports whether the document contributed a record.
func (s DocStatus) OK() bool { return s == DocStatusSuccess }
