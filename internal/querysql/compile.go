package querysql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/layerq/internal/layer"
	"github.com/roach88/layerq/internal/queryir"
)

// DefaultTable is the catalog table the store creates.
const DefaultTable = "layers"

// likeEscape is the ESCAPE character for LIKE operands.
const likeEscape = `\`

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLCompiler compiles queryir to parameterized SQL for SQLite.
//
// CRITICAL: every row-returning statement ends in an id tiebreak so
// paging and the generator's first-row pick are deterministic.
// CRITICAL: values are always bound as ? parameters, never interpolated.
// Column names are interpolated, so they must pass the layer column
// registry first.
type SQLCompiler struct {
	Table string
}

// NewSQLCompiler creates a compiler for the given table.
// An empty table name selects DefaultTable.
func NewSQLCompiler(table string) *SQLCompiler {
	if table == "" {
		table = DefaultTable
	}
	return &SQLCompiler{Table: table}
}

// CompileSelect converts a Select to (sql, params).
//
// Parameter order follows the statement text: computed columns, then
// WHERE, then LIMIT/OFFSET.
func (c *SQLCompiler) CompileSelect(q queryir.Select) (string, []any, error) {
	columns := q.Columns
	if len(columns) == 0 {
		columns = layer.StoredColumns
	}

	var (
		parts  []string
		params []any
	)
	for _, col := range columns {
		if !layer.IsStored(col) {
			return "", nil, fmt.Errorf("select: unknown column %q", col)
		}
		parts = append(parts, quoteIdent(col))
	}

	for _, comp := range q.Computed {
		if !identPattern.MatchString(comp.Name) {
			return "", nil, fmt.Errorf("select: invalid computed column name %q", comp.Name)
		}
		predSQL, predParams, err := c.CompilePredicate(comp.Predicate)
		if err != nil {
			return "", nil, fmt.Errorf("compile computed %s: %w", comp.Name, err)
		}
		parts = append(parts, fmt.Sprintf("CASE WHEN %s THEN 1 ELSE 0 END AS %s", predSQL, quoteIdent(comp.Name)))
		params = append(params, predParams...)
	}

	whereClause, whereParams, err := c.whereClause(q.Where)
	if err != nil {
		return "", nil, err
	}
	params = append(params, whereParams...)

	orderBy, err := stableOrderKey(q.OrderBy)
	if err != nil {
		return "", nil, err
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s",
		strings.Join(parts, ", "),
		quoteIdent(c.Table),
		whereClause,
		orderBy)

	switch {
	case q.Limit > 0 && q.Offset > 0:
		sql += " LIMIT ? OFFSET ?"
		params = append(params, int64(q.Limit), int64(q.Offset))
	case q.Limit > 0:
		sql += " LIMIT ?"
		params = append(params, int64(q.Limit))
	case q.Offset > 0:
		// SQLite needs a LIMIT before OFFSET; -1 means unbounded.
		sql += " LIMIT -1 OFFSET ?"
		params = append(params, int64(q.Offset))
	}

	return sql, params, nil
}

// CompileCount converts a predicate to a COUNT(*) statement.
func (c *SQLCompiler) CompileCount(where queryir.Predicate) (string, []any, error) {
	whereClause, params, err := c.whereClause(where)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", quoteIdent(c.Table), whereClause), params, nil
}

// CompileDistinct converts (column, predicate) to a SELECT DISTINCT
// statement ordered by the column itself.
func (c *SQLCompiler) CompileDistinct(column string, where queryir.Predicate) (string, []any, error) {
	if !layer.IsStored(column) {
		return "", nil, fmt.Errorf("distinct: unknown column %q", column)
	}
	whereClause, params, err := c.whereClause(where)
	if err != nil {
		return "", nil, err
	}
	orderBy, err := orderTerm(queryir.OrderKey{Column: column, Direction: queryir.Asc})
	if err != nil {
		return "", nil, err
	}
	sql := fmt.Sprintf("SELECT DISTINCT %s FROM %s%s ORDER BY %s",
		quoteIdent(column),
		quoteIdent(c.Table),
		whereClause,
		orderBy)
	return sql, params, nil
}

func (c *SQLCompiler) whereClause(where queryir.Predicate) (string, []any, error) {
	if where == nil {
		return "", nil, nil
	}
	sql, params, err := c.CompilePredicate(where)
	if err != nil {
		return "", nil, fmt.Errorf("compile where: %w", err)
	}
	return " WHERE " + sql, params, nil
}

// stableOrderKey renders the ORDER BY list.
// MANDATORY: the id tiebreak is always the last key.
func stableOrderKey(keys []queryir.OrderKey) (string, error) {
	terms := make([]string, 0, len(keys)+1)
	for _, key := range keys {
		if key.Column == layer.ColID {
			// A caller-supplied id key already totally orders the rows.
			term, err := orderTerm(key)
			if err != nil {
				return "", err
			}
			return strings.Join(append(terms, term), ", "), nil
		}
		term, err := orderTerm(key)
		if err != nil {
			return "", err
		}
		terms = append(terms, term)
	}
	terms = append(terms, quoteIdent(layer.ColID)+" COLLATE BINARY ASC")
	return strings.Join(terms, ", "), nil
}

func orderTerm(key queryir.OrderKey) (string, error) {
	col, ok := layer.LookupColumn(key.Column)
	if !ok || col.Paired {
		return "", fmt.Errorf("order by: unknown column %q", key.Column)
	}
	dir := key.Direction
	switch dir {
	case "":
		dir = queryir.Asc
	case queryir.Asc, queryir.Desc:
	default:
		return "", fmt.Errorf("order by %s: unknown direction %q", key.Column, key.Direction)
	}
	if col.Type == layer.TypeString {
		// COLLATE BINARY ensures deterministic text ordering across SQLite
		// versions. The collation must precede the direction.
		return fmt.Sprintf("%s COLLATE BINARY %s", quoteIdent(key.Column), dir), nil
	}
	return fmt.Sprintf("%s %s", quoteIdent(key.Column), dir), nil
}

// CompilePredicate compiles a predicate to a WHERE fragment.
// The predicate is validated first; see queryir.Validate.
func (c *SQLCompiler) CompilePredicate(p queryir.Predicate) (string, []any, error) {
	if err := queryir.Validate(p); err != nil {
		return "", nil, err
	}
	return compilePredicate(p)
}

func compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Const:
		if pred.Value {
			return "1 = 1", nil, nil
		}
		return "0 = 1", nil, nil

	case queryir.Compare:
		return compileCompare(pred)

	case queryir.In:
		if len(pred.Values) == 0 {
			return "0 = 1", nil, nil
		}
		placeholders := make([]string, len(pred.Values))
		params := make([]any, len(pred.Values))
		for i, v := range pred.Values {
			param, err := toParam(v)
			if err != nil {
				return "", nil, fmt.Errorf("%s: %w", pred.Column, err)
			}
			placeholders[i] = "?"
			params[i] = param
		}
		return fmt.Sprintf("%s IN (%s)", quoteIdent(pred.Column), strings.Join(placeholders, ", ")), params, nil

	case queryir.And:
		if len(pred.Predicates) == 0 {
			return "1 = 1", nil, nil // vacuous truth
		}
		return compileJunction(pred.Predicates, " AND ")

	case queryir.Or:
		if len(pred.Predicates) == 0 {
			return "0 = 1", nil, nil
		}
		return compileJunction(pred.Predicates, " OR ")

	case queryir.Not:
		sql, params, err := compilePredicate(pred.Predicate)
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + sql + ")", params, nil

	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileCompare(cmp queryir.Compare) (string, []any, error) {
	if cmp.Op == queryir.OpLike {
		s, _ := cmp.Value.(string)
		sql := fmt.Sprintf("%s LIKE ? ESCAPE '%s'", quoteIdent(cmp.Column), likeEscape)
		return sql, []any{"%" + escapeLike(s) + "%"}, nil
	}

	param, err := toParam(cmp.Value)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", cmp.Column, err)
	}
	return fmt.Sprintf("%s %s ?", quoteIdent(cmp.Column), cmp.Op), []any{param}, nil
}

// compileJunction joins children, parenthesizing each one so mixed
// AND/OR nesting keeps its meaning.
func compileJunction(children []queryir.Predicate, sep string) (string, []any, error) {
	if len(children) == 1 {
		return compilePredicate(children[0])
	}
	var (
		parts  []string
		params []any
	)
	for _, child := range children {
		sql, childParams, err := compilePredicate(child)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+sql+")")
		params = append(params, childParams...)
	}
	return strings.Join(parts, sep), params, nil
}

// toParam converts a literal to its bound form. Booleans bind as 0/1
// to match the stored encoding.
func toParam(v any) (any, error) {
	val, err := queryir.NormalizeValue(v)
	if err != nil {
		return nil, err
	}
	if b, ok := val.(bool); ok {
		if b {
			return int64(1), nil
		}
		return int64(0), nil
	}
	return val, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return r.Replace(s)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
