package sqlstore

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/strata/pkg/types"
)

var identRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// quote validates name and returns it as a quoted identifier. Table and
// column names come from type descriptors, never from row data, but they
// are still checked before being spliced into SQL.
func quote(name string) (string, error) {
	if !identRE.MatchString(name) {
		return "", fmt.Errorf("%w: bad identifier %q", types.ErrInvalidQuery, name)
	}
	return `"` + name + `"`, nil
}

func qualify(alias, column string) (string, error) {
	q, err := quote(column)
	if err != nil {
		return "", err
	}
	if alias == "" {
		return q, nil
	}
	return alias + "." + q, nil
}

// builder accumulates bind arguments while a statement is rendered.
type builder struct {
	dialect Dialect
	args    []any
}

func newBuilder(d Dialect) *builder {
	return &builder{dialect: d}
}

func (b *builder) bind(v any) string {
	if w, ok := v.(types.WKT); ok {
		b.args = append(b.args, w.Text)
		srid := w.SRID
		if srid == 0 {
			srid = types.SRID4326
		}
		return b.dialect.GeomFromText(b.dialect.Placeholder(len(b.args)), srid)
	}
	b.args = append(b.args, v)
	return b.dialect.Placeholder(len(b.args))
}

func sortedKeys(values types.Row) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (b *builder) returning(columns []string) (string, error) {
	if len(columns) == 0 {
		return "", nil
	}
	quoted := make([]string, len(columns))
	for i, c := range columns {
		q, err := quote(c)
		if err != nil {
			return "", err
		}
		quoted[i] = q
	}
	return " RETURNING " + strings.Join(quoted, ", "), nil
}

func (b *builder) insert(table string, values types.Row, returning []string) (string, error) {
	qt, err := quote(table)
	if err != nil {
		return "", err
	}
	ret, err := b.returning(returning)
	if err != nil {
		return "", err
	}
	if len(values) == 0 {
		return "INSERT INTO " + qt + " DEFAULT VALUES" + ret, nil
	}

	cols := sortedKeys(values)
	names := make([]string, len(cols))
	params := make([]string, len(cols))
	for i, c := range cols {
		if names[i], err = quote(c); err != nil {
			return "", err
		}
		params[i] = b.bind(values[c])
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)%s",
		qt, strings.Join(names, ", "), strings.Join(params, ", "), ret), nil
}

func (b *builder) update(table string, id any, values types.Row) (string, error) {
	if len(values) == 0 {
		return "", fmt.Errorf("%w: update of %s without columns", types.ErrInvalidQuery, table)
	}
	qt, err := quote(table)
	if err != nil {
		return "", err
	}
	cols := sortedKeys(values)
	sets := make([]string, len(cols))
	for i, c := range cols {
		qc, err := quote(c)
		if err != nil {
			return "", err
		}
		sets[i] = qc + " = " + b.bind(values[c])
	}
	return fmt.Sprintf(`UPDATE %s SET %s WHERE "id" = %s`, qt, strings.Join(sets, ", "), b.bind(id)), nil
}

func (b *builder) delete(table string, where []types.Predicate) (string, error) {
	qt, err := quote(table)
	if err != nil {
		return "", err
	}
	stmt := "DELETE FROM " + qt
	if len(where) > 0 {
		cond, err := b.where(where, "", 0)
		if err != nil {
			return "", err
		}
		stmt += " WHERE " + cond
	}
	return stmt, nil
}

const selectAlias = "t"

func (b *builder) selectQuery(q types.Query) (string, error) {
	qt, err := quote(q.Table)
	if err != nil {
		return "", err
	}

	geometry := make(map[string]bool, len(q.Geometry))
	for _, g := range q.Geometry {
		geometry[g] = true
	}
	if len(q.Columns) == 0 && len(geometry) > 0 {
		return "", fmt.Errorf("%w: geometry projection needs explicit columns", types.ErrInvalidQuery)
	}

	proj := selectAlias + ".*"
	if len(q.Columns) > 0 {
		parts := make([]string, len(q.Columns))
		for i, c := range q.Columns {
			col, err := qualify(selectAlias, c)
			if err != nil {
				return "", err
			}
			if geometry[c] {
				name, _ := quote(c)
				col = b.dialect.AsGeoJSON(col) + " AS " + name
			}
			parts[i] = col
		}
		proj = strings.Join(parts, ", ")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s AS %s", proj, qt, selectAlias)
	for i, through := range q.Through {
		tt, err := quote(through)
		if err != nil {
			return "", err
		}
		alias := "j" + strconv.Itoa(i)
		fmt.Fprintf(&sb, ` JOIN %s AS %s ON %s."id" = %s."id"`, tt, alias, alias, selectAlias)
	}
	if len(q.Where) > 0 {
		cond, err := b.where(q.Where, selectAlias, 0)
		if err != nil {
			return "", err
		}
		sb.WriteString(" WHERE " + cond)
	}
	if q.OrderBy != "" {
		col, err := qualify(selectAlias, q.OrderBy)
		if err != nil {
			return "", err
		}
		sb.WriteString(" ORDER BY " + col)
	}
	if q.Limit > 0 {
		sb.WriteString(" LIMIT " + strconv.Itoa(q.Limit))
	}
	return sb.String(), nil
}

func (b *builder) where(preds []types.Predicate, alias string, depth int) (string, error) {
	parts := make([]string, 0, len(preds))
	for _, p := range preds {
		s, err := b.predicate(p, alias, depth)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " AND "), nil
}

func (b *builder) predicate(p types.Predicate, alias string, depth int) (string, error) {
	switch p := p.(type) {
	case types.Eq:
		col, err := qualify(alias, p.Column)
		if err != nil {
			return "", err
		}
		if p.Value == nil {
			return col + " IS NULL", nil
		}
		return col + " = " + b.bind(p.Value), nil

	case types.In:
		col, err := qualify(alias, p.Column)
		if err != nil {
			return "", err
		}
		if len(p.Values) == 0 {
			return "1 = 0", nil
		}
		params := make([]string, len(p.Values))
		for i, v := range p.Values {
			params[i] = b.bind(v)
		}
		return col + " IN (" + strings.Join(params, ", ") + ")", nil

	case types.Intersects:
		col, err := qualify(alias, p.Column)
		if err != nil {
			return "", err
		}
		return b.dialect.Intersects(col, b.bind(p.Geometry)), nil

	case types.Related:
		id, err := qualify(alias, "id")
		if err != nil {
			return "", err
		}
		qt, err := quote(p.Table)
		if err != nil {
			return "", err
		}
		sub := "s" + strconv.Itoa(depth)
		stmt := fmt.Sprintf(`%s IN (SELECT %s."id" FROM %s AS %s`, id, sub, qt, sub)
		if len(p.Where) > 0 {
			cond, err := b.where(p.Where, sub, depth+1)
			if err != nil {
				return "", err
			}
			stmt += " WHERE " + cond
		}
		return stmt + ")", nil

	case types.And:
		return b.join([]types.Predicate(p), " AND ", "1 = 1", alias, depth)

	case types.Or:
		return b.join([]types.Predicate(p), " OR ", "1 = 0", alias, depth)

	default:
		return "", fmt.Errorf("%w: unsupported predicate %T", types.ErrInvalidQuery, p)
	}
}

func (b *builder) join(preds []types.Predicate, sep, empty, alias string, depth int) (string, error) {
	if len(preds) == 0 {
		return empty, nil
	}
	parts := make([]string, len(preds))
	for i, p := range preds {
		s, err := b.predicate(p, alias, depth)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}
