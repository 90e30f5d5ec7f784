package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"text/template"
	"time"
)

const versionLayout = "20060102150405"

var (
	migrationFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)
	unsafeNameRe    = regexp.MustCompile(`[^a-z0-9_]+`)

	sqlTemplate = template.Must(template.New("migration").Parse(`-- +goose Up
-- +goose StatementBegin
-- {{.}}
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- rollback {{.}}
-- +goose StatementEnd
`))
)

// migrationFile is one goose SQL file in a migrations directory.
type migrationFile struct {
	version string
	name    string
}

// listMigrations returns the .sql files in dir ordered by version. Any
// filename that does not follow <YYYYMMDDHHMMSS>_<snake_name>.sql, or that
// reuses a version, is an error.
func listMigrations(dir string) ([]migrationFile, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	var files []migrationFile
	owners := map[string]string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		match := migrationFileRe.FindStringSubmatch(name)
		if match == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		if prev, ok := owners[match[1]]; ok {
			return nil, fmt.Errorf("duplicate migration version %s in %q and %q", match[1], prev, name)
		}
		owners[match[1]] = name
		files = append(files, migrationFile{version: match[1], name: name})
	}
	slices.SortFunc(files, func(a, b migrationFile) int { return strings.Compare(a.version, b.version) })
	return files, nil
}

// ValidateDir checks migration filenames and that every file declares both
// goose directions.
func ValidateDir(dir string) error {
	files, err := listMigrations(dir)
	if err != nil {
		return err
	}
	for _, file := range files {
		raw, err := os.ReadFile(filepath.Join(dir, file.name))
		if err != nil {
			return fmt.Errorf("read file %q: %w", file.name, err)
		}
		for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
			if !strings.Contains(string(raw), marker) {
				return fmt.Errorf("migration %q missing %q", file.name, marker)
			}
		}
	}
	return nil
}

// CreateSQLMigration writes an empty goose migration named after name and
// returns its path. The version is the current UTC time, bumped past the
// newest existing file so two migrations created in the same second still
// sort in creation order.
func CreateSQLMigration(dir, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("name is required")
	}
	slug := migrationSlug(name)
	if slug == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}
	existing, err := listMigrations(dir)
	if err != nil {
		return "", err
	}

	version := nextVersion(time.Now().UTC(), existing)
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", version, slug))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration %q: %w", path, err)
	}
	defer file.Close()
	if err := sqlTemplate.Execute(file, slug); err != nil {
		return "", fmt.Errorf("write migration %q: %w", path, err)
	}
	return path, nil
}

func migrationSlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = unsafeNameRe.ReplaceAllString(strings.ReplaceAll(slug, " ", "_"), "_")
	return strings.Trim(slug, "_")
}

func nextVersion(now time.Time, existing []migrationFile) string {
	version := now.Format(versionLayout)
	if len(existing) == 0 {
		return version
	}
	latest := existing[len(existing)-1].version
	if version > latest {
		return version
	}
	n, err := strconv.ParseUint(latest, 10, 64)
	if err != nil {
		return version
	}
	return strconv.FormatUint(n+1, 10)
}
