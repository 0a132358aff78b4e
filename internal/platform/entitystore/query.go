package entitystore

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	apperrors "worklens/internal/platform/errors"
)

type Op string

const (
	Eq  Op = "="
	Ne  Op = "!="
	Lt  Op = "<"
	Lte Op = "<="
	Gt  Op = ">"
	Gte Op = ">="
)

type Order string

const (
	Asc  Order = "ASC"
	Desc Order = "DESC"
)

// Condition compares a top-level document field. time.Time values are
// compared as Unix nanoseconds, so the stored field must hold that form.
type Condition struct {
	Field string
	Op    Op
	Value any
}

type Query struct {
	Where  []Condition
	SortBy string
	Order  Order
	Limit  int
}

func Where(field string, op Op, value any) Condition {
	return Condition{Field: field, Op: op, Value: value}
}

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (q Query) build(collection string) (string, []any, error) {
	var sb strings.Builder
	args := []any{collection}
	sb.WriteString("SELECT data FROM entities WHERE collection = ?")
	for _, cond := range q.Where {
		if !fieldName.MatchString(cond.Field) {
			return "", nil, fmt.Errorf("%w: field %q", apperrors.ErrInvalidInput, cond.Field)
		}
		switch cond.Op {
		case Eq, Ne, Lt, Lte, Gt, Gte:
		default:
			return "", nil, fmt.Errorf("%w: operator %q", apperrors.ErrInvalidInput, cond.Op)
		}
		fmt.Fprintf(&sb, " AND json_extract(data, '$.%s') %s ?", cond.Field, cond.Op)
		args = append(args, bindValue(cond.Value))
	}
	order := q.Order
	if order == "" {
		order = Asc
	}
	if order != Asc && order != Desc {
		return "", nil, fmt.Errorf("%w: order %q", apperrors.ErrInvalidInput, order)
	}
	if q.SortBy != "" {
		if !fieldName.MatchString(q.SortBy) {
			return "", nil, fmt.Errorf("%w: sort field %q", apperrors.ErrInvalidInput, q.SortBy)
		}
		fmt.Fprintf(&sb, " ORDER BY json_extract(data, '$.%s') %s, id %s", q.SortBy, order, order)
	} else {
		fmt.Fprintf(&sb, " ORDER BY id %s", order)
	}
	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}
	return sb.String(), args, nil
}

func bindValue(v any) any {
	switch value := v.(type) {
	case time.Time:
		return value.UTC().UnixNano()
	case fmt.Stringer:
		return value.String()
	default:
		return v
	}
}
