package convert

import "fmt"

// Warning is a non-fatal problem found during conversion that the user should
// look at before publishing.
type Warning struct {
	// Source is the RO-Crate property the warning refers to, e.g. "author[1]".
	Source  string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Source, w.Message)
}

// Diagnostics collects the warnings of a single conversion. A nil
// *Diagnostics discards warnings.
type Diagnostics struct {
	warnings []Warning
}

// Warnf records a warning for the given source.
func (d *Diagnostics) Warnf(source, format string, args ...interface{}) {
	if d == nil {
		return
	}
	d.warnings = append(d.warnings, Warning{Source: source, Message: fmt.Sprintf(format, args...)})
}

// Warnings returns the recorded warnings in order.
func (d *Diagnostics) Warnings() []Warning {
	if d == nil {
		return nil
	}
	return d.warnings
}

// Empty reports whether no warning was recorded.
func (d *Diagnostics) Empty() bool {
	return d == nil || len(d.warnings) == 0
}
