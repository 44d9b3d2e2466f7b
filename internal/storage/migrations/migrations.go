// Package migrations applies the embedded schema of each storage backend.
// Applied files are recorded per backend in a schema_migrations table, so a
// rerun only applies files added since.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed postgres/*.sql clickhouse/*.sql
var schema embed.FS

// Backend directories inside the embedded schema.
const (
	PostgresDir   = "postgres"
	ClickhouseDir = "clickhouse"
)

// Files lists the migration files of a backend in apply order.
func Files(dir string) ([]string, error) {
	return sqlFiles(schema, dir)
}

func readFile(dir, name string) (string, error) {
	data, err := fs.ReadFile(schema, path.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("read migration %s/%s: %w", dir, name, err)
	}
	return string(data), nil
}

// sqlFiles lists the .sql files of a directory in name order.
func sqlFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// statements splits a migration into single statements for drivers that
// reject multi-statement execs. Semicolons inside string literals are refused.
func statements(sql string) ([]string, error) {
	if err := checkQuotedSemicolons(sql); err != nil {
		return nil, err
	}

	var body strings.Builder
	for _, line := range strings.Split(sql, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		body.WriteString(line)
		body.WriteString("\n")
	}

	var out []string
	for _, part := range strings.Split(body.String(), ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out, nil
}

// checkQuotedSemicolons reports a semicolon inside a single-quoted literal.
// A doubled quote is an escaped quote.
func checkQuotedSemicolons(sql string) error {
	quoted := false
	line := 1
	for i := 0; i < len(sql); i++ {
		switch sql[i] {
		case '\n':
			line++
		case '\'':
			if quoted && i+1 < len(sql) && sql[i+1] == '\'' {
				i++
				continue
			}
			quoted = !quoted
		case ';':
			if quoted {
				return fmt.Errorf("line %d: semicolon inside a string literal", line)
			}
		}
	}
	return nil
}
