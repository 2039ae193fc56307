package diag

import "go.uber.org/multierr"

// Bag accumulates diagnostics across a single compiler phase. Phases
// recover past a failing statement (see the grammar's recovery points in
// §4.2) so that a single pass can report many problems rather than
// aborting at the first one; the pipeline only stops once a Bag containing
// at least one Error-severity diagnostic is returned to the driver.
type Bag struct {
	items []Diagnostic
}

// Add appends a diagnostic to the bag.
func (b *Bag) Add(d Diagnostic) {
	b.items = append(b.items, d)
}

// Merge appends all diagnostics from another bag into this one.
func (b *Bag) Merge(other Bag) {
	b.items = append(b.items, other.items...)
}

// All returns every diagnostic collected so far, in insertion order.
func (b *Bag) All() []Diagnostic {
	return b.items
}

// Errors returns only the Error-severity diagnostics.
func (b *Bag) Errors() []Diagnostic {
	var out []Diagnostic

	for _, d := range b.items {
		if d.Severity == Error {
			out = append(out, d)
		}
	}

	return out
}

// HasErrors reports whether this bag contains at least one Error-severity
// diagnostic, i.e. whether the pipeline must stop here.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity == Error {
			return true
		}
	}

	return false
}

// Err folds every Error-severity diagnostic in the bag into a single error
// value via multierr, for call sites that want one error to check rather
// than a slice. The individual diagnostics are still recoverable
// afterwards via multierr.Errors, so nothing is lost by folding.
func (b *Bag) Err() error {
	if !b.HasErrors() {
		return nil
	}

	var err error

	for _, d := range b.Errors() {
		err = multierr.Append(err, d)
	}

	return err
}
