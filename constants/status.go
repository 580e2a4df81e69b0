package constants

// RecordStatus is the canonical status for rows in ocr_records.
type RecordStatus string

// Stable values (store these exact strings in DB).
const (
	StatusProcessing RecordStatus = "processing" // created, pipeline not finished
	StatusSuccess    RecordStatus = "success"    // parsed, awaiting confirmation
	StatusFailed     RecordStatus = "failed"     // terminal parse failure
	StatusConfirmed  RecordStatus = "confirmed"  // expense created and linked
)

var allStatuses = []RecordStatus{
	StatusProcessing,
	StatusSuccess,
	StatusFailed,
	StatusConfirmed,
}

// transitions maps a target status to the statuses it may be entered from.
// processing is creation-only and is never re-entered.
var transitions = map[RecordStatus][]RecordStatus{
	StatusSuccess:   {StatusProcessing},
	StatusFailed:    {StatusProcessing},
	StatusConfirmed: {StatusSuccess},
}

// StatusValues returns every status as a string slice.
func StatusValues() []string {
	result := make([]string, len(allStatuses))
	for i, s := range allStatuses {
		result[i] = string(s)
	}
	return result
}

// ParseStatus maps a raw string to its RecordStatus.
func ParseStatus(input string) (RecordStatus, bool) {
	for _, s := range allStatuses {
		if input == string(s) {
			return s, true
		}
	}
	return "", false
}

// CanTransition reports whether a record may move from one status to another.
// Every status write is gated by this table; illegal moves are rejected here
// rather than re-checked inline at call sites.
func CanTransition(from, to RecordStatus) bool {
	for _, src := range transitions[to] {
		if src == from {
			return true
		}
	}
	return false
}

// TransitionSources returns the statuses a record must currently hold for a
// write to the target status to be legal. Repositories use this to build
// conditional updates (UPDATE ... WHERE status = <source>).
func TransitionSources(to RecordStatus) []RecordStatus {
	return transitions[to]
}

// Terminal reports whether no pipeline transition leaves the status.
func (s RecordStatus) Terminal() bool {
	return s == StatusFailed || s == StatusConfirmed
}
