package preset

import (
	"errors"
	"fmt"
)

// Severity grades a structural Issue.
type Severity string

const (
	SeverityError  Severity = "error"
	SeverityNotice Severity = "notice"
)

// Issue is one authoring-time problem found in a preset document.
type Issue struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Field    string   `json:"field" yaml:"field"`
	Message  string   `json:"message" yaml:"message"`

	err error
}

// Err returns the sentinel-wrapped error for error-severity issues.
func (i Issue) Err() error {
	if i.Severity != SeverityError {
		return nil
	}
	if i.err != nil {
		return fmt.Errorf("%w: %s", i.err, i.Message)
	}
	return errors.New(i.Message)
}

func errorIssue(sentinel error, field, format string, args ...any) Issue {
	return Issue{Severity: SeverityError, Field: field, Message: fmt.Sprintf(format, args...), err: sentinel}
}

// Check enforces the name invariants of a preset: variable names and media
// names match NamePattern and are unique within their list, and value-map
// values are unique per variable.
func Check(p *Preset) []Issue {
	var issues []Issue

	seen := make(map[string]bool, len(p.Variables))
	for i, v := range p.Variables {
		field := fmt.Sprintf("variables[%d]", i)
		name := v.VariableName()
		if !ValidName(name) {
			issues = append(issues, errorIssue(ErrInvalidName, field, "invalid variable name %q", name))
		} else if seen[name] {
			issues = append(issues, errorIssue(ErrDuplicateName, field, "duplicate variable name %q", name))
		}
		seen[name] = true

		tv, ok := v.(*TextVariable)
		if !ok {
			continue
		}
		values := make(map[string]bool, len(tv.ValueMap))
		for j, m := range tv.ValueMap {
			if values[m.Value] {
				issues = append(issues, errorIssue(ErrDuplicateName,
					fmt.Sprintf("%s.valueMap[%d]", field, j),
					"duplicate mapping value %q for variable %q", m.Value, name))
			}
			values[m.Value] = true
		}
	}

	media := make(map[string]bool, len(p.MediaRegistry))
	for i, m := range p.MediaRegistry {
		field := fmt.Sprintf("mediaRegistry[%d]", i)
		if !ValidName(m.Name) {
			issues = append(issues, errorIssue(ErrInvalidName, field, "invalid media name %q", m.Name))
		} else if media[m.Name] {
			issues = append(issues, errorIssue(ErrDuplicateName, field, "duplicate media name %q", m.Name))
		}
		media[m.Name] = true
	}

	return issues
}

// IssuesErr joins the errors of all error-severity issues, or returns nil.
func IssuesErr(issues []Issue) error {
	var errs []error
	for _, i := range issues {
		if err := i.Err(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
