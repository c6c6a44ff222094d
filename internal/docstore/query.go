package docstore

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Op is a filter operator.
type Op string

const (
	OpEqual         Op = "=="
	OpArrayContains Op = "array-contains"
	OpIn            Op = "in"
)

// FieldDocumentID addresses the document id instead of a data field.
const FieldDocumentID = "__name__"

// Filter is one where-clause. Dotted field names address nested objects.
type Filter struct {
	Field string
	Op    Op
	Value interface{}
}

// Query selects documents of one collection.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string
	Desc       bool
}

// NewQuery starts a query over a collection path.
func NewQuery(collection string) Query {
	return Query{Collection: collection}
}

// Where returns a copy of q with an extra filter.
func (q Query) Where(field string, op Op, value interface{}) Query {
	filters := make([]Filter, len(q.Filters), len(q.Filters)+1)
	copy(filters, q.Filters)
	q.Filters = append(filters, Filter{Field: field, Op: op, Value: value})
	return q
}

// Order returns a copy of q ordered by field.
func (q Query) Order(field string, desc bool) Query {
	q.OrderBy = field
	q.Desc = desc
	return q
}

const selectColumns = "path, collection, doc_id, data, created_at, updated_at"

type sqlBuilder struct {
	conds []string
	args  []interface{}
}

func (b *sqlBuilder) arg(v interface{}) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

// buildQuery renders q as SQL over the documents table.
func buildQuery(q Query) (string, []interface{}, error) {
	if err := validateCollection(q.Collection); err != nil {
		return "", nil, err
	}

	b := &sqlBuilder{}
	b.conds = append(b.conds, "collection = "+b.arg(q.Collection))

	for _, f := range q.Filters {
		cond, err := b.filter(f)
		if err != nil {
			return "", nil, err
		}
		b.conds = append(b.conds, cond)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(selectColumns)
	sb.WriteString(" FROM documents WHERE ")
	sb.WriteString(strings.Join(b.conds, " AND "))

	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	switch q.OrderBy {
	case "":
		sb.WriteString(" ORDER BY doc_id")
	case FieldDocumentID:
		sb.WriteString(" ORDER BY doc_id " + dir)
	default:
		sb.WriteString(" ORDER BY data #> " + b.arg(fieldPath(q.OrderBy)) + "::text[] " + dir + ", doc_id")
	}

	return sb.String(), b.args, nil
}

func (b *sqlBuilder) filter(f Filter) (string, error) {
	if f.Field == "" {
		return "", fmt.Errorf("%w: filter without field", ErrInvalidQuery)
	}

	if f.Field == FieldDocumentID {
		switch f.Op {
		case OpEqual:
			id, ok := f.Value.(string)
			if !ok {
				return "", fmt.Errorf("%w: document id must be a string", ErrInvalidQuery)
			}
			return "doc_id = " + b.arg(id), nil
		case OpIn:
			ids, err := toStrings(f.Value)
			if err != nil {
				return "", err
			}
			return "doc_id = ANY(" + b.arg(ids) + "::text[])", nil
		default:
			return "", fmt.Errorf("%w: %s on document id", ErrInvalidQuery, f.Op)
		}
	}

	switch f.Op {
	case OpEqual:
		return b.contains(f.Field, f.Value)
	case OpArrayContains:
		return b.contains(f.Field, []interface{}{f.Value})
	case OpIn:
		values, err := toSlice(f.Value)
		if err != nil {
			return "", err
		}
		if len(values) == 0 {
			return "FALSE", nil
		}
		ors := make([]string, 0, len(values))
		for _, v := range values {
			cond, err := b.contains(f.Field, v)
			if err != nil {
				return "", err
			}
			ors = append(ors, cond)
		}
		return "(" + strings.Join(ors, " OR ") + ")", nil
	default:
		return "", fmt.Errorf("%w: unsupported operator %q", ErrInvalidQuery, f.Op)
	}
}

func (b *sqlBuilder) contains(field string, value interface{}) (string, error) {
	doc, err := json.Marshal(nest(fieldPath(field), value))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return "data @> " + b.arg(string(doc)) + "::jsonb", nil
}

func fieldPath(field string) []string {
	return strings.Split(field, ".")
}

// nest wraps value in objects keyed by path: ["a","b"], 1 -> {"a":{"b":1}}.
func nest(path []string, value interface{}) interface{} {
	out := value
	for i := len(path) - 1; i >= 0; i-- {
		out = map[string]interface{}{path[i]: out}
	}
	return out
}

func toSlice(v interface{}) ([]interface{}, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: %q needs a slice value", ErrInvalidQuery, OpIn)
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

func toStrings(v interface{}) ([]string, error) {
	values, err := toSlice(v)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(values))
	for _, x := range values {
		s, ok := x.(string)
		if !ok {
			return nil, fmt.Errorf("%w: document ids must be strings", ErrInvalidQuery)
		}
		out = append(out, s)
	}
	return out, nil
}
