package constants

// ProcessingStatus is the canonical status for rows in file_records.
type ProcessingStatus string

// Stable values (store these exact strings in DB).
const (
	StatusPending    ProcessingStatus = "PENDING"    // record created, not yet started
	StatusProcessing ProcessingStatus = "PROCESSING" // in progress
	StatusCompleted  ProcessingStatus = "COMPLETED"  // parsed, mapped and artifacts written
	StatusError      ProcessingStatus = "ERROR"      // terminal failure (parse, mapping or delivery)
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []ProcessingStatus{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusError,
}

// ParseStatus maps a string onto a known status.
func ParseStatus(s string) (ProcessingStatus, bool) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}
