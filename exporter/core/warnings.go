package core

import "fmt"

// WarningList accumulates the non-fatal issues hit during one export so
// they can be surfaced together once the document has been written.
// One list belongs to exactly one export invocation.
type WarningList struct {
	warnings []string
}

func NewWarningList() *WarningList {
	return &WarningList{}
}

// Addf records a warning and logs it immediately.
func (w *WarningList) Addf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	w.warnings = append(w.warnings, msg)
	LogWarn("%s", msg)
}

func (w *WarningList) Len() int {
	return len(w.warnings)
}

// All returns the recorded warnings in the order they were raised.
func (w *WarningList) All() []string {
	out := make([]string, len(w.warnings))
	copy(out, w.warnings)
	return out
}
