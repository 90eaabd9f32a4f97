package migrations

import (
	"errors"
	"strings"
	"testing"
)

func TestSplitStatements(t *testing.T) {
	input := `-- header comment
CREATE TABLE a (x Int64);

-- second
CREATE TABLE b (
    y String DEFAULT 'it''s'
);
`
	stmts, err := splitStatements(input)
	if err != nil {
		t.Fatalf("splitStatements failed: %v", err)
	}
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if stmts[0] != "CREATE TABLE a (x Int64)" {
		t.Errorf("unexpected first statement %q", stmts[0])
	}
	if !strings.HasPrefix(stmts[1], "CREATE TABLE b (") {
		t.Errorf("unexpected second statement %q", stmts[1])
	}
}

func TestSplitStatements_RejectsQuotedSemicolon(t *testing.T) {
	_, err := splitStatements("INSERT INTO t VALUES ('a;b');")
	if !errors.Is(err, errSemicolonInString) {
		t.Errorf("expected errSemicolonInString, got %v", err)
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	for _, tc := range []struct {
		dir  string
		want string
	}{
		{"postgres", "series_points"},
		{"clickhouse", "series_points"},
	} {
		fsys := PostgresFS
		if tc.dir == "clickhouse" {
			fsys = ClickhouseFS
		}
		files, err := load(fsys, tc.dir)
		if err != nil {
			t.Fatalf("load(%s) failed: %v", tc.dir, err)
		}
		if len(files) == 0 {
			t.Fatalf("no %s migrations embedded", tc.dir)
		}
		if !strings.Contains(files[0].sql, tc.want) {
			t.Errorf("%s migration %s does not create %s", tc.dir, files[0].name, tc.want)
		}
	}
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default@localhost:9000/htf")
	if err != nil || db != "htf" {
		t.Errorf("expected htf, got %q (%v)", db, err)
	}
	if _, err := databaseFromDSN("clickhouse://localhost:9000"); err == nil {
		t.Error("expected error for dsn without database")
	}
}
