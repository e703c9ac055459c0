package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

var migrationFile = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

const (
	annotationUp   = "-- +goose Up"
	annotationDown = "-- +goose Down"
	statementBegin = "-- +goose StatementBegin"
	statementEnd   = "-- +goose StatementEnd"
)

// ValidateDir checks every .sql file in dir and reports all problems at once:
// file naming, duplicate versions, and goose annotations.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("migrations dir required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var errs error
	versions := map[string]string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".sql" {
			continue
		}
		match := migrationFile.FindStringSubmatch(name)
		if match == nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: name must be YYYYMMDDHHMMSS_snake_case.sql", name))
			continue
		}
		if prev, dup := versions[match[1]]; dup {
			errs = multierr.Append(errs, fmt.Errorf("%s: version %s already used by %s", name, match[1], prev))
		}
		versions[match[1]] = name

		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		errs = multierr.Append(errs, checkAnnotations(name, string(body)))
	}

	if len(versions) == 0 && errs == nil {
		return fmt.Errorf("no migrations in %s", dir)
	}
	return errs
}

// checkAnnotations wants Up before Down and balanced statement blocks.
func checkAnnotations(name, body string) error {
	up := strings.Index(body, annotationUp)
	down := strings.Index(body, annotationDown)
	switch {
	case up < 0:
		return fmt.Errorf("%s: missing %q", name, annotationUp)
	case down < 0:
		return fmt.Errorf("%s: missing %q", name, annotationDown)
	case down < up:
		return fmt.Errorf("%s: Down section precedes Up", name)
	}
	if begins, ends := strings.Count(body, statementBegin), strings.Count(body, statementEnd); begins != ends {
		return fmt.Errorf("%s: %d StatementBegin but %d StatementEnd", name, begins, ends)
	}
	return nil
}
