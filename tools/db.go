package tools

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const dbRowLimit = 100

// DBQuery executes SQL against a SQLite database identified by a file path
// or ":memory:". Postgres and MySQL connection strings are rejected with
// guidance for connecting out of band.
func (k *Toolkit) DBQuery(ctx context.Context, connection, query string, params []interface{}) (string, error) {
	switch {
	case strings.HasPrefix(connection, "postgresql://") || strings.HasPrefix(connection, "postgres://"):
		return "", fmt.Errorf("PostgreSQL is not bundled; use run_command with psql, " +
			"e.g. run_command(\"psql '<connection>' -c '<sql>'\")")
	case strings.HasPrefix(connection, "mysql://") || strings.HasPrefix(connection, "mysql+"):
		return "", fmt.Errorf("MySQL is not bundled; use run_command with the mysql client, " +
			"e.g. run_command(\"mysql --host=... -e '<sql>'\")")
	}

	path := connection
	if path != ":memory:" {
		path = k.resolvePath(path)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return "", fmt.Errorf("open sqlite %s: %w", connection, err)
	}
	defer db.Close()

	if returnsRows(query) {
		rows, err := db.QueryContext(ctx, query, params...)
		if err != nil {
			return "", fmt.Errorf("sqlite: %w", err)
		}
		defer rows.Close()
		return formatRows(rows)
	}

	result, err := db.ExecContext(ctx, query, params...)
	if err != nil {
		return "", fmt.Errorf("sqlite: %w", err)
	}
	affected, _ := result.RowsAffected()
	return fmt.Sprintf("Query OK, %d rows affected", affected), nil
}

func returnsRows(query string) bool {
	q := strings.ToUpper(strings.TrimSpace(query))
	for _, prefix := range []string{"SELECT", "WITH", "PRAGMA", "EXPLAIN"} {
		if strings.HasPrefix(q, prefix) {
			return true
		}
	}
	return false
}

func formatRows(rows *sql.Rows) (string, error) {
	cols, err := rows.Columns()
	if err != nil {
		return "", fmt.Errorf("sqlite columns: %w", err)
	}
	var sb strings.Builder
	header := strings.Join(cols, " | ")
	sb.WriteString(header + "\n")
	sb.WriteString(strings.Repeat("-", len(header)) + "\n")

	values := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	count := 0
	for rows.Next() {
		count++
		if count > dbRowLimit {
			continue // keep counting for the footer
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", fmt.Errorf("sqlite scan: %w", err)
		}
		fields := make([]string, len(values))
		for i, v := range values {
			switch val := v.(type) {
			case nil:
				fields[i] = "NULL"
			case []byte:
				fields[i] = string(val)
			default:
				fields[i] = fmt.Sprintf("%v", val)
			}
		}
		sb.WriteString(strings.Join(fields, " | ") + "\n")
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("sqlite rows: %w", err)
	}
	if count > dbRowLimit {
		fmt.Fprintf(&sb, "... (%d rows total, showing %d)\n", count, dbRowLimit)
	}
	return strings.TrimSuffix(sb.String(), "\n"), nil
}
