package postgres

// SQL queries for PostgreSQL catalog introspection.
const (
	queryListTables = `
		SELECT table_name, table_schema, table_type
		FROM information_schema.tables
		WHERE table_schema NOT IN ('information_schema', 'pg_catalog', 'pg_toast')
		  AND table_schema NOT LIKE 'pg_temp_%'
		  AND table_schema NOT LIKE 'pg_toast_temp_%'
		  AND table_type IN ('BASE TABLE', 'VIEW')
		ORDER BY table_schema, table_type, table_name`

	queryTableType = `
		SELECT table_type
		FROM information_schema.tables
		WHERE table_schema = $1
		  AND table_name = $2`

	queryColumnTypes = `
		SELECT column_name, data_type, udt_name
		FROM information_schema.columns
		WHERE table_schema = $1
		  AND table_name = $2
		ORDER BY ordinal_position`

	queryPrimaryKeys = `
		SELECT a.attname
		FROM pg_index i
		JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey)
		WHERE i.indrelid = (quote_ident($1) || '.' || quote_ident($2))::regclass
		  AND i.indisprimary
		ORDER BY array_position(i.indkey::int2[], a.attnum)`

	queryColumnDetails = `
		SELECT
			c.column_name,
			c.data_type,
			c.udt_name,
			c.is_nullable,
			c.column_default,
			c.character_maximum_length::bigint,
			c.numeric_precision::bigint,
			c.numeric_scale::bigint,
			c.ordinal_position::int,
			c.is_identity,
			c.identity_generation,
			c.is_generated,
			c.generation_expression,
			pgd.description
		FROM information_schema.columns c
		LEFT JOIN pg_catalog.pg_description pgd
			ON pgd.objoid = to_regclass(quote_ident($1) || '.' || quote_ident($2))
			AND pgd.classoid = 'pg_catalog.pg_class'::regclass
			AND pgd.objsubid = c.ordinal_position
		WHERE c.table_schema = $1
		  AND c.table_name = $2
		ORDER BY c.ordinal_position`

	// conkey and confkey are parallel arrays; unnesting them together keeps
	// each local column paired with the column it references.
	queryForeignKeys = `
		SELECT
			con.conname::text,
			la.attname::text,
			fn.nspname::text,
			fc.relname::text,
			fa.attname::text,
			CASE con.confupdtype
				WHEN 'a' THEN 'NO ACTION'
				WHEN 'r' THEN 'RESTRICT'
				WHEN 'c' THEN 'CASCADE'
				WHEN 'n' THEN 'SET NULL'
				WHEN 'd' THEN 'SET DEFAULT'
			END,
			CASE con.confdeltype
				WHEN 'a' THEN 'NO ACTION'
				WHEN 'r' THEN 'RESTRICT'
				WHEN 'c' THEN 'CASCADE'
				WHEN 'n' THEN 'SET NULL'
				WHEN 'd' THEN 'SET DEFAULT'
			END
		FROM pg_catalog.pg_constraint con
		JOIN pg_catalog.pg_class c ON c.oid = con.conrelid
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		JOIN pg_catalog.pg_class fc ON fc.oid = con.confrelid
		JOIN pg_catalog.pg_namespace fn ON fn.oid = fc.relnamespace
		CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(attnum, fattnum, ord)
		JOIN pg_catalog.pg_attribute la ON la.attrelid = con.conrelid AND la.attnum = k.attnum
		JOIN pg_catalog.pg_attribute fa ON fa.attrelid = con.confrelid AND fa.attnum = k.fattnum
		WHERE con.contype = 'f'
		  AND n.nspname = $1
		  AND c.relname = $2
		ORDER BY con.conname, k.ord`

	queryIndexes = `
		SELECT
			ic.relname AS index_name,
			am.amname AS index_type,
			ix.indisunique,
			ix.indisprimary,
			array_agg(a.attname ORDER BY array_position(ix.indkey::int2[], a.attnum))::text[] AS columns
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_class ic ON ic.oid = ix.indexrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_am am ON am.oid = ic.relam
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE n.nspname = $1
		  AND t.relname = $2
		GROUP BY ic.relname, am.amname, ix.indisunique, ix.indisprimary
		ORDER BY ic.relname`

	queryFullSchema = `
		SELECT
			t.table_schema,
			t.table_name,
			t.table_type,
			c.column_name,
			c.data_type,
			c.is_nullable,
			c.column_default
		FROM information_schema.tables t
		LEFT JOIN information_schema.columns c
			ON c.table_schema = t.table_schema AND c.table_name = t.table_name
		WHERE t.table_schema NOT IN ('information_schema', 'pg_catalog', 'pg_toast')
		  AND t.table_schema NOT LIKE 'pg_temp_%'
		  AND t.table_schema NOT LIKE 'pg_toast_temp_%'
		  AND t.table_type IN ('BASE TABLE', 'VIEW')
		ORDER BY t.table_schema, t.table_type, t.table_name, c.ordinal_position`
)

