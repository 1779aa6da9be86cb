package mssql

const systemSchemas = `('sys', 'INFORMATION_SCHEMA', 'guest', 'db_owner', 'db_accessadmin',
		'db_securityadmin', 'db_ddladmin', 'db_backupoperator', 'db_datareader',
		'db_datawriter', 'db_denydatareader', 'db_denydatawriter')`

// Catalog queries. Parameters use the driver's @pN names.
const (
	queryListTables = `
		SELECT TABLE_NAME, TABLE_SCHEMA, TABLE_TYPE
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA NOT IN ` + systemSchemas + `
		  AND TABLE_TYPE IN ('BASE TABLE', 'VIEW')
		ORDER BY TABLE_SCHEMA, TABLE_TYPE, TABLE_NAME`

	queryTableType = `
		SELECT TABLE_TYPE
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = @p1
		  AND TABLE_NAME = @p2`

	queryColumnTypes = `
		SELECT COLUMN_NAME, DATA_TYPE, DATA_TYPE
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = @p1
		  AND TABLE_NAME = @p2
		ORDER BY ORDINAL_POSITION`

	queryPrimaryKeys = `
		SELECT kcu.COLUMN_NAME
		FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
		JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
			ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
			AND tc.TABLE_SCHEMA = kcu.TABLE_SCHEMA
		WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
		  AND tc.TABLE_SCHEMA = @p1
		  AND tc.TABLE_NAME = @p2
		ORDER BY kcu.ORDINAL_POSITION`

	queryIdentityColumn = `
		SELECT c.name
		FROM sys.columns c
		WHERE c.object_id = OBJECT_ID(QUOTENAME(@p1) + '.' + QUOTENAME(@p2))
		  AND c.is_identity = 1`

	queryColumnDetails = `
		SELECT
			c.COLUMN_NAME,
			c.DATA_TYPE,
			c.DATA_TYPE,
			c.IS_NULLABLE,
			c.COLUMN_DEFAULT,
			CAST(c.CHARACTER_MAXIMUM_LENGTH AS BIGINT),
			CAST(c.NUMERIC_PRECISION AS BIGINT),
			CAST(c.NUMERIC_SCALE AS BIGINT),
			c.ORDINAL_POSITION,
			CASE WHEN COLUMNPROPERTY(sc.object_id, c.COLUMN_NAME, 'IsIdentity') = 1 THEN 'YES' ELSE 'NO' END,
			cc.definition,
			CAST(ep.value AS NVARCHAR(4000))
		FROM INFORMATION_SCHEMA.COLUMNS c
		LEFT JOIN sys.columns sc
			ON sc.object_id = OBJECT_ID(QUOTENAME(c.TABLE_SCHEMA) + '.' + QUOTENAME(c.TABLE_NAME))
			AND sc.name = c.COLUMN_NAME
		LEFT JOIN sys.computed_columns cc
			ON cc.object_id = sc.object_id AND cc.column_id = sc.column_id
		LEFT JOIN sys.extended_properties ep
			ON ep.class = 1 AND ep.major_id = sc.object_id AND ep.minor_id = sc.column_id
			AND ep.name = 'MS_Description'
		WHERE c.TABLE_SCHEMA = @p1
		  AND c.TABLE_NAME = @p2
		ORDER BY c.ORDINAL_POSITION`

	queryForeignKeys = `
		SELECT
			fk.name,
			pc.name,
			SCHEMA_NAME(rt.schema_id),
			rt.name,
			rc.name,
			fk.update_referential_action_desc,
			fk.delete_referential_action_desc
		FROM sys.foreign_keys fk
		JOIN sys.foreign_key_columns fkc ON fkc.constraint_object_id = fk.object_id
		JOIN sys.tables pt ON pt.object_id = fk.parent_object_id
		JOIN sys.columns pc ON pc.object_id = fkc.parent_object_id AND pc.column_id = fkc.parent_column_id
		JOIN sys.tables rt ON rt.object_id = fk.referenced_object_id
		JOIN sys.columns rc ON rc.object_id = fkc.referenced_object_id AND rc.column_id = fkc.referenced_column_id
		WHERE pt.schema_id = SCHEMA_ID(@p1)
		  AND pt.name = @p2
		ORDER BY fk.name, fkc.constraint_column_id`

	queryIndexes = `
		SELECT i.name, i.type_desc, i.is_unique, i.is_primary_key, c.name
		FROM sys.indexes i
		JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id
		JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
		WHERE i.object_id = OBJECT_ID(QUOTENAME(@p1) + '.' + QUOTENAME(@p2))
		  AND i.name IS NOT NULL
		  AND ic.is_included_column = 0
		ORDER BY i.name, ic.key_ordinal`

	queryFullSchema = `
		SELECT
			t.TABLE_SCHEMA,
			t.TABLE_NAME,
			t.TABLE_TYPE,
			c.COLUMN_NAME,
			c.DATA_TYPE,
			c.IS_NULLABLE,
			c.COLUMN_DEFAULT
		FROM INFORMATION_SCHEMA.TABLES t
		LEFT JOIN INFORMATION_SCHEMA.COLUMNS c
			ON c.TABLE_SCHEMA = t.TABLE_SCHEMA AND c.TABLE_NAME = t.TABLE_NAME
		WHERE t.TABLE_SCHEMA NOT IN ` + systemSchemas + `
		  AND t.TABLE_TYPE IN ('BASE TABLE', 'VIEW')
		ORDER BY t.TABLE_SCHEMA, t.TABLE_TYPE, t.TABLE_NAME, c.ORDINAL_POSITION`
)
