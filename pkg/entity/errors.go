package entity

import "fmt"

// InvalidNameError is returned when an entity name does not match the
// configured name pattern.
type InvalidNameError struct {
	Name    string
	Pattern string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid entity name %q: must match %s", e.Name, e.Pattern)
}

// InvalidVersionError is returned when an entity version does not match the
// version pattern (dotted numeric, one to three segments).
type InvalidVersionError struct {
	Version string
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf(
		"invalid entity version %q: must be MAJOR, MAJOR.MINOR, or MAJOR.MINOR.PATCH",
		e.Version)
}

// UnsupportedNamespaceError is returned when an entity namespace is neither
// the service's base namespace nor one of the explicitly supported
// alternates.
type UnsupportedNamespaceError struct {
	Namespace string
	Base      string
}

func (e *UnsupportedNamespaceError) Error() string {
	return fmt.Sprintf(
		"unsupported namespace %q: this service only serves entities under %s",
		e.Namespace, e.Base)
}

// InvalidPropertyError names one offending property and the reason it was
// rejected. The validator collects every property error before failing, so a
// single validation pass reports the complete list of problems.
type InvalidPropertyError struct {
	Property string
	Reason   string
}

func (e *InvalidPropertyError) Error() string {
	return fmt.Sprintf("invalid property %q: %s", e.Property, e.Reason)
}
