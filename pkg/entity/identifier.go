package entity

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DefaultNamePattern is the entity name syntax used when no custom pattern
// is configured. Names start with a letter and may contain letters, digits,
// dots, underscores, and hyphens.
const DefaultNamePattern = `^[A-Za-z][A-Za-z0-9._-]*$`

// versionRegexp accepts MAJOR, MAJOR.MINOR, or MAJOR.MINOR.PATCH.
var versionRegexp = regexp.MustCompile(`^\d+(?:\.\d+){0,2}$`)

// uriRegexp splits an entity URI into namespace, version, and name. The
// namespace is everything up to the last two path segments.
var uriRegexp = regexp.MustCompile(
	`^(?P<namespace>https?://[^?#]+?)/(?P<version>\d+(?:\.\d+){0,2})/(?P<name>[^/?#]+)$`)

// Identifier is the canonical unique key of an entity.
type Identifier struct {
	Namespace string
	Version   string
	Name      string
}

// URI composes the identifier back into its canonical URI form.
func (id Identifier) URI() string {
	return fmt.Sprintf("%s/%s/%s", id.Namespace, id.Version, id.Name)
}

func (id Identifier) String() string { return id.URI() }

// ParseURI splits a raw entity URI into its identifier parts. It checks
// shape only; namespace support and name syntax are checked by Rules.
func ParseURI(uri string) (Identifier, error) {
	m := uriRegexp.FindStringSubmatch(uri)
	if m == nil {
		return Identifier{}, fmt.Errorf(
			"invalid entity URI %q: must be of the form {namespace}/{version}/{name}", uri)
	}
	return Identifier{Namespace: m[1], Version: m[2], Name: m[3]}, nil
}

// Rules holds the configurable identity syntax of the service: the base
// namespace, any explicitly supported alternate namespaces, and the name
// pattern.
type Rules struct {
	// BaseNamespace is the service's default namespace (the base URL),
	// without a trailing slash.
	BaseNamespace string

	// ExtraNamespaces lists supported alternates. An entry containing "://"
	// is taken as a full namespace URL; otherwise it is a single path
	// segment resolved under BaseNamespace.
	ExtraNamespaces []string

	// NamePattern overrides DefaultNamePattern when non-nil.
	NamePattern *regexp.Regexp
}

func (r Rules) namePattern() *regexp.Regexp {
	if r.NamePattern != nil {
		return r.NamePattern
	}
	return regexp.MustCompile(DefaultNamePattern)
}

// SupportedNamespaces returns every namespace the rules accept, the base
// namespace first.
func (r Rules) SupportedNamespaces() []string {
	namespaces := []string{strings.TrimSuffix(r.BaseNamespace, "/")}
	for _, ns := range r.ExtraNamespaces {
		if strings.Contains(ns, "://") {
			namespaces = append(namespaces, strings.TrimSuffix(ns, "/"))
		} else {
			namespaces = append(namespaces, namespaces[0]+"/"+strings.Trim(ns, "/"))
		}
	}
	return namespaces
}

// Supports reports whether a namespace is served: the base namespace, an
// explicitly listed alternate, or a specific namespace one path segment
// below the base.
func (r Rules) Supports(namespace string) bool {
	namespace = strings.TrimSuffix(namespace, "/")
	for _, ns := range r.SupportedNamespaces() {
		if namespace == ns {
			return true
		}
	}
	base := strings.TrimSuffix(r.BaseNamespace, "/") + "/"
	specific, ok := strings.CutPrefix(namespace, base)
	return ok && specific != "" && !strings.Contains(specific, "/")
}

// Identify derives the canonical identifier from a normalized entity and
// checks name, version, and namespace syntax. It is a pure function: no
// I/O, deterministic, and safe to call before any remote interaction.
func (r Rules) Identify(e *Entity) (Identifier, error) {
	id := Identifier{
		Namespace: strings.TrimSuffix(e.Namespace, "/"),
		Version:   e.Version,
		Name:      e.Name,
	}

	pattern := r.namePattern()
	if err := validation.Validate(id.Name,
		validation.Required, validation.Match(pattern)); err != nil {
		return Identifier{}, &InvalidNameError{Name: id.Name, Pattern: pattern.String()}
	}

	if err := validation.Validate(id.Version,
		validation.Required, validation.Match(versionRegexp)); err != nil {
		return Identifier{}, &InvalidVersionError{Version: id.Version}
	}

	if !r.Supports(id.Namespace) {
		return Identifier{}, &UnsupportedNamespaceError{
			Namespace: id.Namespace,
			Base:      strings.TrimSuffix(r.BaseNamespace, "/"),
		}
	}

	return id, nil
}

// NextVersion returns the version that follows the given one: MAJOR gains a
// minor segment, MAJOR.MINOR gains a patch segment, and MAJOR.MINOR.PATCH
// increments the patch. Used as the suggested version when an upload
// conflicts with an existing entity.
func NextVersion(version string) (string, error) {
	if !versionRegexp.MatchString(version) {
		return "", &InvalidVersionError{Version: version}
	}

	parts := strings.Split(version, ".")
	switch len(parts) {
	case 1:
		return parts[0] + ".1", nil
	case 2:
		return parts[0] + "." + parts[1] + ".1", nil
	default:
		var patch int
		fmt.Sscanf(parts[2], "%d", &patch)
		return fmt.Sprintf("%s.%s.%d", parts[0], parts[1], patch+1), nil
	}
}
