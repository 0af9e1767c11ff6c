// Package upload implements the upload pipeline: source scanning, entity
// validation and identification, conflict detection and resolution, and
// outcome aggregation under fail-fast or continue-on-error policy.
package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/onto-forge/entities-service/pkg/entity"
	"github.com/onto-forge/entities-service/pkg/store"
)

// Status classifies the outcome of one entity.
type Status string

const (
	StatusCreated          Status = "created"
	StatusOverwritten      Status = "overwritten"
	StatusSkippedIdentical Status = "skipped-identical"
	StatusSkippedConflict  Status = "skipped-conflict"
	StatusValid            Status = "valid" // dry-run only
	StatusFailed           Status = "failed"
	StatusNotAttempted     Status = "not-attempted"
)

// ParseError marks a file that could not be read or decoded. It affects
// only that file unless fail-fast is set.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Outcome records what happened to one entity (or one file, for parse
// failures).
type Outcome struct {
	Path   string
	URI    string
	Status Status
	Detail string
}

// Report aggregates all outcomes of a run, in input order.
type Report struct {
	Outcomes []Outcome
}

// Success reports whether the run had no failed outcome.
func (r *Report) Success() bool {
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			return false
		}
	}
	return true
}

// Count returns the number of outcomes with the given status.
func (r *Report) Count(status Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Source is one file or directory to upload, with the file formats to
// accept. Directories are scanned non-recursively.
type Source struct {
	Path    string
	Formats []string
}

// Options controls a run.
type Options struct {
	// FailFast aborts the whole run on the first validation or
	// identification error; remaining inputs are reported as not attempted.
	FailFast bool

	// Quiet suppresses the caller's success output and forces every
	// conflict to resolve as a skip, overriding any configured policy.
	// The orchestrator itself never prints.
	Quiet bool

	// DryRun validates, identifies, and resolves without writing to the
	// remote store. Used by the validate command.
	DryRun bool
}

// Orchestrator runs the upload pipeline. One entity is fully processed
// before the next begins; there is no concurrency and no implicit retry.
type Orchestrator struct {
	FS     afero.Fs
	Store  store.Store
	Rules  entity.Rules
	Policy Policy
	Log    hclog.Logger
}

// candidate is one enumerated input file, in source order. A source-level
// failure (unreadable path, unsupported format) carries err and is reported
// as a failed outcome at its position.
type candidate struct {
	path   string
	format string
	err    error
}

// Upload processes the sources in order and returns a report with one
// outcome per entity, in the order the inputs were enumerated.
func (o *Orchestrator) Upload(ctx context.Context, sources []Source, opts Options) *Report {
	log := o.Log
	if log == nil {
		log = hclog.NewNullLogger()
	}
	policy := o.Policy
	if policy == nil || opts.Quiet {
		policy = AutoSkip
	}

	report := &Report{}
	candidates := o.expandSources(sources)
	seen := make(map[string]bool)

	for i, c := range candidates {
		abort := func() {
			for _, rest := range candidates[i+1:] {
				report.Outcomes = append(report.Outcomes, Outcome{
					Path: rest.path, Status: StatusNotAttempted,
				})
			}
		}

		if c.err != nil {
			log.Warn("unusable source", "path", c.path, "error", c.err)
			report.Outcomes = append(report.Outcomes, Outcome{
				Path: c.path, Status: StatusFailed, Detail: c.err.Error(),
			})
			if opts.FailFast {
				abort()
				return report
			}
			continue
		}

		log.Debug("processing entity file", "path", c.path, "format", c.format)

		docs, err := o.parseFile(c)
		if err != nil {
			log.Warn("parse failure", "path", c.path, "error", err)
			report.Outcomes = append(report.Outcomes, Outcome{
				Path: c.path, Status: StatusFailed, Detail: err.Error(),
			})
			if opts.FailFast {
				abort()
				return report
			}
			continue
		}

		for j, doc := range docs {
			outcome, unauthorized := o.processEntity(ctx, c.path, doc, seen, policy, opts)
			report.Outcomes = append(report.Outcomes, outcome)

			if unauthorized || (opts.FailFast && outcome.Status == StatusFailed) {
				// The rest of this file's documents were not reached either.
				for range docs[j+1:] {
					report.Outcomes = append(report.Outcomes, Outcome{
						Path: c.path, Status: StatusNotAttempted,
					})
				}
				abort()
				return report
			}
		}
	}

	return report
}

// processEntity runs one entity through validate, identify, resolve, and
// act. The second return value reports an unauthorized credential, which
// always stops the run.
func (o *Orchestrator) processEntity(
	ctx context.Context,
	path string,
	doc map[string]any,
	seen map[string]bool,
	policy Policy,
	opts Options,
) (Outcome, bool) {
	e, err := entity.Validate(doc)
	if err != nil {
		return Outcome{Path: path, Status: StatusFailed, Detail: err.Error()}, false
	}

	id, err := o.Rules.Identify(e)
	if err != nil {
		return Outcome{
			Path: path, URI: e.URI, Status: StatusFailed, Detail: err.Error(),
		}, false
	}

	if seen[id.URI()] {
		return Outcome{
			Path: path, URI: id.URI(), Status: StatusFailed,
			Detail: fmt.Sprintf("duplicate URI within this run: %s", id),
		}, false
	}
	seen[id.URI()] = true

	decision, err := Resolve(ctx, e, o.Store)
	if err != nil {
		unauthorized := errors.Is(err, store.ErrUnauthorized)
		return Outcome{
			Path: path, URI: id.URI(), Status: StatusFailed, Detail: err.Error(),
		}, unauthorized
	}

	switch decision.Kind {
	case DecisionSkipIdentical:
		return Outcome{Path: path, URI: id.URI(), Status: StatusSkippedIdentical}, false

	case DecisionConflict:
		if opts.DryRun {
			return Outcome{
				Path: path, URI: id.URI(), Status: StatusSkippedConflict,
				Detail: "differs from remote entity: " + strings.Join(decision.Diff, ", "),
			}, false
		}
		action, err := policy.ResolveConflict(e, decision.Diff)
		if err != nil {
			return Outcome{
				Path: path, URI: id.URI(), Status: StatusFailed, Detail: err.Error(),
			}, false
		}
		if action == ActionSkip {
			return Outcome{
				Path: path, URI: id.URI(), Status: StatusSkippedConflict,
				Detail: "differs from remote entity: " + strings.Join(decision.Diff, ", "),
			}, false
		}
		if err := o.Store.Update(ctx, e); err != nil {
			return Outcome{
				Path: path, URI: id.URI(), Status: StatusFailed, Detail: err.Error(),
			}, errors.Is(err, store.ErrUnauthorized)
		}
		return Outcome{Path: path, URI: id.URI(), Status: StatusOverwritten}, false

	default: // DecisionCreate
		if opts.DryRun {
			return Outcome{Path: path, URI: id.URI(), Status: StatusValid}, false
		}
		if err := o.Store.Create(ctx, e); err != nil {
			return Outcome{
				Path: path, URI: id.URI(), Status: StatusFailed, Detail: err.Error(),
			}, errors.Is(err, store.ErrUnauthorized)
		}
		return Outcome{Path: path, URI: id.URI(), Status: StatusCreated}, false
	}
}

// expandSources turns the ordered sources into an ordered candidate file
// list. Directories are scanned non-recursively for files matching the
// declared formats, in sorted name order so runs are reproducible. A source
// that cannot be used yields a candidate carrying the error, so its failure
// is reported at the source's own position.
func (o *Orchestrator) expandSources(sources []Source) []candidate {
	var candidates []candidate

	for _, src := range sources {
		formats := normalizeFormats(src.Formats)

		info, err := o.FS.Stat(src.Path)
		if err != nil {
			candidates = append(candidates, candidate{
				path: src.Path,
				err:  fmt.Errorf("cannot read source: %w", err),
			})
			continue
		}

		if !info.IsDir() {
			format := fileFormat(src.Path)
			if !formats[format] {
				candidates = append(candidates, candidate{
					path: src.Path,
					err:  fmt.Errorf("unsupported file format %q", format),
				})
				continue
			}
			candidates = append(candidates, candidate{path: src.Path, format: format})
			continue
		}

		entries, err := afero.ReadDir(o.FS, src.Path)
		if err != nil {
			candidates = append(candidates, candidate{
				path: src.Path,
				err:  fmt.Errorf("cannot read directory: %w", err),
			})
			continue
		}

		var names []string
		for _, entry := range entries {
			if entry.IsDir() {
				// Subdirectories are ignored.
				continue
			}
			if formats[fileFormat(entry.Name())] {
				names = append(names, entry.Name())
			}
		}
		sort.Strings(names)

		for _, name := range names {
			path := filepath.Join(src.Path, name)
			candidates = append(candidates, candidate{path: path, format: fileFormat(path)})
		}
	}

	return candidates
}

// parseFile reads and decodes one file. A file may hold a single entity
// document or a list of them.
func (o *Orchestrator) parseFile(c candidate) ([]map[string]any, error) {
	data, err := afero.ReadFile(o.FS, c.path)
	if err != nil {
		return nil, &ParseError{Path: c.path, Err: err}
	}

	var decoded any
	switch c.format {
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &decoded)
	default:
		err = json.Unmarshal(data, &decoded)
	}
	if err != nil {
		return nil, &ParseError{Path: c.path, Err: err}
	}

	switch v := decoded.(type) {
	case map[string]any:
		return []map[string]any{v}, nil
	case []any:
		docs := make([]map[string]any, 0, len(v))
		for _, item := range v {
			doc, ok := item.(map[string]any)
			if !ok {
				return nil, &ParseError{
					Path: c.path,
					Err:  fmt.Errorf("list items must be entity documents"),
				}
			}
			docs = append(docs, doc)
		}
		return docs, nil
	default:
		return nil, &ParseError{
			Path: c.path,
			Err:  fmt.Errorf("expected an entity document or a list of them"),
		}
	}
}

// normalizeFormats lowercases the declared formats and pairs yaml/yml so
// declaring either accepts both. An empty declaration means JSON.
func normalizeFormats(formats []string) map[string]bool {
	out := make(map[string]bool, len(formats)+1)
	for _, f := range formats {
		out[strings.ToLower(strings.TrimPrefix(f, "."))] = true
	}
	if len(out) == 0 {
		out["json"] = true
	}
	if out["yaml"] || out["yml"] {
		out["yaml"], out["yml"] = true, true
	}
	return out
}

func fileFormat(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
