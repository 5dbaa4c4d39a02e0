package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	input := `-- fetch history schema
CREATE TABLE IF NOT EXISTS fetch_history (
    fetch_id String
) ENGINE = MergeTree()
ORDER BY (fetch_id);

-- a second statement
ALTER TABLE fetch_history COMMENT COLUMN fetch_id 'run id'
`

	stmts, err := splitStatements(input)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS fetch_history")
	assert.Contains(t, stmts[0], "ORDER BY (fetch_id)")
	assert.Contains(t, stmts[1], "COMMENT COLUMN fetch_id 'run id'")
}

func TestSplitStatements_EscapedQuote(t *testing.T) {
	stmts, err := splitStatements(`INSERT INTO t VALUES ('it''s fine')`)
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Equal(t, `INSERT INTO t VALUES ('it''s fine')`, stmts[0])
}

func TestSplitStatements_SemicolonInLiteral(t *testing.T) {
	_, err := splitStatements(`INSERT INTO t VALUES ('a;b')`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "semicolon inside string literal")
}

func TestSplitStatements_Empty(t *testing.T) {
	stmts, err := splitStatements("-- only comments\n\n")
	require.NoError(t, err)
	assert.Empty(t, stmts)
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://localhost:9000/grid_ingest")
	require.NoError(t, err)
	assert.Equal(t, "grid_ingest", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)

	_, err = databaseFromDSN(":")
	assert.Error(t, err)
}
