package mysql

// Catalog queries. An empty schema argument falls back to the current database.
const (
	querySchema = `COALESCE(NULLIF(?, ''), DATABASE())`

	queryListTables = `
		SELECT TABLE_NAME, TABLE_SCHEMA, TABLE_TYPE
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA NOT IN ('information_schema', 'mysql', 'performance_schema', 'sys')
		  AND TABLE_TYPE IN ('BASE TABLE', 'VIEW')
		ORDER BY TABLE_SCHEMA, TABLE_TYPE, TABLE_NAME`

	queryTableType = `
		SELECT TABLE_TYPE
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ` + querySchema + `
		  AND TABLE_NAME = ?`

	queryColumnTypes = `
		SELECT COLUMN_NAME, DATA_TYPE, COLUMN_TYPE
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ` + querySchema + `
		  AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`

	queryPrimaryKeys = `
		SELECT COLUMN_NAME
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = ` + querySchema + `
		  AND TABLE_NAME = ?
		  AND CONSTRAINT_NAME = 'PRIMARY'
		ORDER BY ORDINAL_POSITION`

	queryAutoIncrement = `
		SELECT COLUMN_NAME
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ` + querySchema + `
		  AND TABLE_NAME = ?
		  AND EXTRA LIKE '%auto_increment%'`

	queryColumnDetails = `
		SELECT
			COLUMN_NAME,
			DATA_TYPE,
			COLUMN_TYPE,
			IS_NULLABLE,
			COLUMN_DEFAULT,
			CHARACTER_MAXIMUM_LENGTH,
			NUMERIC_PRECISION,
			NUMERIC_SCALE,
			ORDINAL_POSITION,
			EXTRA,
			GENERATION_EXPRESSION,
			COLUMN_COMMENT
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ` + querySchema + `
		  AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`

	queryForeignKeys = `
		SELECT
			kcu.CONSTRAINT_NAME,
			kcu.COLUMN_NAME,
			kcu.REFERENCED_TABLE_SCHEMA,
			kcu.REFERENCED_TABLE_NAME,
			kcu.REFERENCED_COLUMN_NAME,
			rc.UPDATE_RULE,
			rc.DELETE_RULE
		FROM information_schema.KEY_COLUMN_USAGE kcu
		JOIN information_schema.REFERENTIAL_CONSTRAINTS rc
			ON rc.CONSTRAINT_SCHEMA = kcu.CONSTRAINT_SCHEMA
			AND rc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
		WHERE kcu.TABLE_SCHEMA = ` + querySchema + `
		  AND kcu.TABLE_NAME = ?
		  AND kcu.REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY kcu.CONSTRAINT_NAME, kcu.ORDINAL_POSITION`

	queryIndexes = `
		SELECT INDEX_NAME, INDEX_TYPE, NON_UNIQUE, COLUMN_NAME, EXPRESSION
		FROM information_schema.STATISTICS
		WHERE TABLE_SCHEMA = ` + querySchema + `
		  AND TABLE_NAME = ?
		ORDER BY INDEX_NAME, SEQ_IN_INDEX`

	queryFullSchema = `
		SELECT
			t.TABLE_SCHEMA,
			t.TABLE_NAME,
			t.TABLE_TYPE,
			c.COLUMN_NAME,
			c.DATA_TYPE,
			c.IS_NULLABLE,
			c.COLUMN_DEFAULT
		FROM information_schema.TABLES t
		LEFT JOIN information_schema.COLUMNS c
			ON c.TABLE_SCHEMA = t.TABLE_SCHEMA AND c.TABLE_NAME = t.TABLE_NAME
		WHERE t.TABLE_SCHEMA NOT IN ('information_schema', 'mysql', 'performance_schema', 'sys')
		  AND t.TABLE_TYPE IN ('BASE TABLE', 'VIEW')
		ORDER BY t.TABLE_SCHEMA, t.TABLE_TYPE, t.TABLE_NAME, c.ORDINAL_POSITION`
)
