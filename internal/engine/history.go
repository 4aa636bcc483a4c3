package engine

// History is the record of fragment locations entered during this process,
// appended to as each fragment begins executing. It is deliberately
// append-only: entries are never removed when an inclusion completes, so
// diagnostics can reconstruct the full assembly order after the fact.
type History struct {
	entries []string
}

// Record appends a fragment location.
func (h *History) Record(path string) {
	h.entries = append(h.entries, path)
}

// Entries returns a copy of the recorded locations in entry order.
func (h *History) Entries() []string {
	entries := make([]string, len(h.entries))
	copy(entries, h.entries)
	return entries
}
