package muffle

// Ledger tracks content units already evaluated during a page lifetime.
type Ledger interface {
	// ShouldProcess reports whether id has not been marked yet. It does not
	// mark the id.
	ShouldProcess(id string) bool

	// MarkProcessed records id as evaluated.
	MarkProcessed(id string)

	// Reset forgets all ids.
	Reset()

	// Len returns the (possibly approximate) number of marked ids.
	Len() int
}
