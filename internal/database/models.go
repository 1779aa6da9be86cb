package database

import "math"

// TableType is the catalog classification of a relation.
type TableType string

const (
	TableTypeBase TableType = "BASE TABLE"
	TableTypeView TableType = "VIEW"
)

// TableInfo describes a table or view listed from the catalog.
type TableInfo struct {
	TableName     string    `json:"table_name"`
	SchemaName    string    `json:"schema_name"`
	FullTableName string    `json:"full_table_name"`
	TableType     TableType `json:"table_type"`
}

// Row is a result row with every value rendered as a string.
type Row map[string]string

// Operator is a filter comparison operator.
type Operator string

const (
	OpEq      Operator = "="
	OpNe      Operator = "!="
	OpGt      Operator = ">"
	OpLt      Operator = "<"
	OpGte     Operator = ">="
	OpLte     Operator = "<="
	OpLike    Operator = "LIKE"
	OpNotLike Operator = "NOT LIKE"
)

// Operators lists every operator accepted in filters.
var Operators = []Operator{OpEq, OpNe, OpGt, OpLt, OpGte, OpLte, OpLike, OpNotLike}

// Valid reports whether op is one of the fixed operator tokens.
func (op Operator) Valid() bool {
	for _, known := range Operators {
		if op == known {
			return true
		}
	}
	return false
}

// IsPattern reports whether op compares against a LIKE pattern.
func (op Operator) IsPattern() bool {
	return op == OpLike || op == OpNotLike
}

// Filter is a single column predicate.
type Filter struct {
	Column   string   `json:"column"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Valid reports whether d is asc or desc.
func (d Direction) Valid() bool {
	return d == Asc || d == Desc
}

// Keyword returns the SQL keyword for the direction.
func (d Direction) Keyword() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// Sort orders results by a column.
type Sort struct {
	Column    string    `json:"column"`
	Direction Direction `json:"direction"`
}

const (
	// DefaultPageSize is used when a caller asks for a non-positive page size.
	DefaultPageSize = 50
	// MaxPageSize caps a single page.
	MaxPageSize = 1000
)

// TableDataResult is one page of table data.
// Callers must check Error before trusting Rows.
type TableDataResult struct {
	Rows       []Row  `json:"rows"`
	TotalCount int64  `json:"totalCount"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalPages int    `json:"totalPages"`
	Error      string `json:"error,omitempty"`
}

// NormalizePage clamps page and pageSize to usable values.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// Offset returns the row offset of page.
func Offset(page, pageSize int) int {
	return (page - 1) * pageSize
}

// TotalPages returns ceil(total/pageSize).
func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(pageSize)))
}

// NewTableDataResult builds an empty result for the given page.
func NewTableDataResult(page, pageSize int) *TableDataResult {
	return &TableDataResult{Rows: []Row{}, Page: page, PageSize: pageSize}
}

// SetCount records the total row count and derived page count.
func (r *TableDataResult) SetCount(total int64) {
	r.TotalCount = total
	r.TotalPages = TotalPages(total, r.PageSize)
}

// Fail records err and clears rows. Count is kept unless resetCount is set.
func (r *TableDataResult) Fail(err error, resetCount bool) *TableDataResult {
	r.Rows = []Row{}
	r.Error = err.Error()
	if resetCount {
		r.TotalCount = 0
		r.TotalPages = 0
	}
	return r
}

// QueryResult is the outcome of an arbitrary SQL statement.
type QueryResult struct {
	Success  bool     `json:"success"`
	Rows     []Row    `json:"rows"`
	RowCount int64    `json:"rowCount"`
	Fields   []string `json:"fields"`
	Error    string   `json:"error,omitempty"`
}

// FailedQuery builds an unsuccessful QueryResult from err.
func FailedQuery(err error) *QueryResult {
	return &QueryResult{Success: false, Rows: []Row{}, Fields: []string{}, Error: err.Error()}
}

// ColumnType is the declared type of a column.
type ColumnType struct {
	Name     string `json:"column_name"`
	DataType string `json:"data_type"`
	UDTName  string `json:"udt_name"`
}

// ColumnTypes is an ordered list of column types.
type ColumnTypes []ColumnType

// Lookup returns the type of column name.
func (c ColumnTypes) Lookup(name string) (ColumnType, bool) {
	for _, ct := range c {
		if ct.Name == name {
			return ct, true
		}
	}
	return ColumnType{}, false
}

// ColumnDetail is the full catalog description of a column.
type ColumnDetail struct {
	ColumnName             string  `json:"column_name"`
	DataType               string  `json:"data_type"`
	UDTName                string  `json:"udt_name"`
	IsNullable             string  `json:"is_nullable"`
	ColumnDefault          *string `json:"column_default"`
	CharacterMaximumLength *int64  `json:"character_maximum_length"`
	NumericPrecision       *int64  `json:"numeric_precision"`
	NumericScale           *int64  `json:"numeric_scale"`
	OrdinalPosition        int     `json:"ordinal_position"`
	IsIdentity             string  `json:"is_identity"`
	IdentityGeneration     *string `json:"identity_generation"`
	IsGenerated            string  `json:"is_generated"`
	GenerationExpression   *string `json:"generation_expression"`
	ColumnComment          *string `json:"column_comment"`
}

// Nullable reports whether the column accepts NULL.
func (c ColumnDetail) Nullable() bool { return c.IsNullable == "YES" }

// Identity reports whether the column value is generated by the engine.
func (c ColumnDetail) Identity() bool { return c.IsIdentity == "YES" }

// ForeignKey links a local column to a column of another table.
type ForeignKey struct {
	ConstraintName     string `json:"constraint_name"`
	ColumnName         string `json:"column_name"`
	ForeignTableSchema string `json:"foreign_table_schema"`
	ForeignTableName   string `json:"foreign_table_name"`
	ForeignColumnName  string `json:"foreign_column_name"`
	UpdateRule         string `json:"update_rule"`
	DeleteRule         string `json:"delete_rule"`
}

// Index describes an index on a table.
type Index struct {
	IndexName string   `json:"index_name"`
	IndexType string   `json:"index_type"`
	IsUnique  bool     `json:"is_unique"`
	IsPrimary bool     `json:"is_primary"`
	Columns   []string `json:"columns"`
}

// TableIntrospection is the structural snapshot of one table.
type TableIntrospection struct {
	Columns     []ColumnDetail `json:"columns"`
	PrimaryKeys []string       `json:"primaryKeys"`
	ForeignKeys []ForeignKey   `json:"foreignKeys"`
	Indexes     []Index        `json:"indexes"`
}

// SchemaColumn is the column summary used in schema briefings.
type SchemaColumn struct {
	Name       string  `json:"column_name"`
	DataType   string  `json:"data_type"`
	IsNullable bool    `json:"is_nullable"`
	Default    *string `json:"column_default"`
}

// SchemaTable is a table or view with its columns.
type SchemaTable struct {
	Table   string         `json:"table"`
	Schema  string         `json:"schema"`
	Type    TableType      `json:"type"`
	Columns []SchemaColumn `json:"columns"`
}
