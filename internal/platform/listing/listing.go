package listing

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// FilterKind defines how a declared query parameter translates to SQL.
type FilterKind int

const (
	// FilterEquals matches the column exactly against the parameter value.
	FilterEquals FilterKind = iota
	// FilterTrueString applies the predicate only when the parameter is the
	// literal string "true"; any other value is treated as filter-absent.
	FilterTrueString
	// FilterDateFrom compares the date portion of a timestamp column with >=.
	FilterDateFrom
	// FilterDateTo compares the date portion of a timestamp column with <=.
	FilterDateTo
)

// Filter declares one recognized query parameter for a resource.
type Filter struct {
	Kind   FilterKind
	Column string
	// Predicate overrides the generated clause for FilterTrueString filters
	// that need more than "column = TRUE" (e.g. "expiration_date < NOW()").
	Predicate string
}

// Config declares one resource's listing behavior: its table, the filters it
// recognizes, the columns substring search runs over, and its sort allowlist.
// Every resource controller shares this one engine instead of hand-rolling
// the same filter/sort/paginate logic.
type Config struct {
	Table       string
	Columns     string
	Filters     map[string]Filter
	SearchCols  []string
	PatientJoin bool   // also search the joined patient's name columns
	JoinColumn  string // FK column joined to patients.id, default "patient_id"
	SortAllow   map[string]string
	DefaultSort string // e.g. "consultation_date DESC"
}

// Query is a built listing query: WHERE clause, ordered args, ORDER BY.
type Query struct {
	cfg     Config
	where   string
	args    []interface{}
	idx     int
	orderBy string
}

// patientNameCols are the joined columns substring search also covers; the
// patient's name is stored under both its canonical and legacy alias field.
var patientNameCols = []string{"patients.patient_name", "patients.nome_completo"}

// Build turns the request parameters into a bounded query scoped to the
// owning doctor. Unrecognized parameters are ignored, empty values are
// treated as filter-absent.
func (cfg Config) Build(doctorID uuid.UUID, params map[string]string) *Query {
	q := &Query{
		cfg:   cfg,
		where: fmt.Sprintf("%s.doctor_id = $1 AND %s.deleted_at IS NULL", cfg.Table, cfg.Table),
		args:  []interface{}{doctorID},
		idx:   2,
	}

	for name, f := range cfg.Filters {
		value, ok := params[name]
		if !ok || value == "" {
			continue
		}
		q.apply(f, value)
	}

	if term := params["search"]; term != "" {
		q.applySearch(term)
	}

	q.applySort(params["sort_by"], params["sort_direction"])
	return q
}

func (q *Query) apply(f Filter, value string) {
	col := f.Column
	if col != "" && !strings.Contains(col, ".") {
		col = q.cfg.Table + "." + col
	}
	switch f.Kind {
	case FilterEquals:
		q.where += fmt.Sprintf(" AND %s = $%d", col, q.idx)
		q.args = append(q.args, value)
		q.idx++
	case FilterTrueString:
		if value != "true" {
			return
		}
		if f.Predicate != "" {
			q.where += " AND " + f.Predicate
		} else {
			q.where += fmt.Sprintf(" AND %s = TRUE", col)
		}
	case FilterDateFrom:
		q.where += fmt.Sprintf(" AND %s::date >= $%d::date", col, q.idx)
		q.args = append(q.args, value)
		q.idx++
	case FilterDateTo:
		q.where += fmt.Sprintf(" AND %s::date <= $%d::date", col, q.idx)
		q.args = append(q.args, value)
		q.idx++
	}
}

func (q *Query) applySearch(term string) {
	cols := make([]string, 0, len(q.cfg.SearchCols)+2)
	for _, c := range q.cfg.SearchCols {
		if !strings.Contains(c, ".") {
			c = q.cfg.Table + "." + c
		}
		cols = append(cols, c)
	}
	if q.cfg.PatientJoin {
		cols = append(cols, patientNameCols...)
	}

	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("%s ILIKE $%d", c, q.idx)
	}
	q.where += " AND (" + strings.Join(parts, " OR ") + ")"
	q.args = append(q.args, "%"+EscapeLike(term)+"%")
	q.idx++
}

// applySort restricts sort_by to the allowlist; anything else falls back to
// the resource default.
func (q *Query) applySort(sortBy, direction string) {
	col, ok := q.cfg.SortAllow[sortBy]
	if !ok {
		q.orderBy = q.cfg.DefaultSort
		return
	}
	dir := "ASC"
	if strings.EqualFold(direction, "desc") {
		dir = "DESC"
	}
	q.orderBy = col + " " + dir
}

func (q *Query) from() string {
	from := q.cfg.Table
	if q.cfg.PatientJoin {
		joinCol := q.cfg.JoinColumn
		if joinCol == "" {
			joinCol = "patient_id"
		}
		from += fmt.Sprintf(" LEFT JOIN patients ON patients.id = %s.%s", q.cfg.Table, joinCol)
	}
	return from
}

// CountSQL returns the total-count query.
func (q *Query) CountSQL() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", q.from(), q.where)
}

// CountArgs returns the arguments for the count query.
func (q *Query) CountArgs() []interface{} {
	return q.args
}

// DataSQL returns the page query with ORDER BY and LIMIT/OFFSET.
func (q *Query) DataSQL() string {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s", q.cfg.Columns, q.from(), q.where)
	if q.orderBy != "" {
		sql += " ORDER BY " + q.orderBy
	}
	sql += fmt.Sprintf(" LIMIT $%d OFFSET $%d", q.idx, q.idx+1)
	return sql
}

// DataArgs returns the arguments for the page query.
func (q *Query) DataArgs(limit, offset int) []interface{} {
	result := make([]interface{}, len(q.args)+2)
	copy(result, q.args)
	result[len(q.args)] = limit
	result[len(q.args)+1] = offset
	return result
}

// EscapeLike escapes LIKE wildcards so a search term matches literally.
// Repositories use it for quick-search terms too.
func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// ExtractParams collects the request's single-value query parameters.
// The engine ignores anything a resource's Config does not declare.
func ExtractParams(c echo.Context) map[string]string {
	params := map[string]string{}
	for k, v := range c.QueryParams() {
		if len(v) == 0 {
			continue
		}
		params[k] = v[0]
	}
	return params
}
