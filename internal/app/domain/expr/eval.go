package expr

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

type node interface {
	eval(vars map[string]any) (any, error)
}

type literal struct{ value any }

func (l *literal) eval(map[string]any) (any, error) { return l.value, nil }

type variable struct{ name string }

func (v *variable) eval(vars map[string]any) (any, error) {
	val, ok := vars[v.name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariable, v.name)
	}
	return normalize(val), nil
}

type notNode struct{ inner node }

func (n *notNode) eval(vars map[string]any) (any, error) {
	v, err := n.inner.eval(vars)
	if err != nil {
		return nil, err
	}
	return !truthy(v), nil
}

type logicalNode struct {
	op          string
	left, right node
}

func (n *logicalNode) eval(vars map[string]any) (any, error) {
	l, err := n.left.eval(vars)
	if err != nil {
		return nil, err
	}

	if n.op == "&&" && !truthy(l) {
		return false, nil
	}
	if n.op == "||" && truthy(l) {
		return true, nil
	}

	r, err := n.right.eval(vars)
	if err != nil {
		return nil, err
	}
	return truthy(r), nil
}

type compareNode struct {
	op          string
	left, right node
}

func (n *compareNode) eval(vars map[string]any) (any, error) {
	l, err := n.left.eval(vars)
	if err != nil {
		return nil, err
	}
	r, err := n.right.eval(vars)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case "==":
		return equal(l, r), nil
	case "!=":
		return !equal(l, r), nil
	}

	ln, lok := toNumber(l)
	rn, rok := toNumber(r)
	if lok && rok {
		switch n.op {
		case "<":
			return ln < rn, nil
		case "<=":
			return ln <= rn, nil
		case ">":
			return ln > rn, nil
		default:
			return ln >= rn, nil
		}
	}

	ls, lstr := l.(string)
	rs, rstr := r.(string)
	if !lstr || !rstr {
		return nil, fmt.Errorf("%w: cannot compare %T %s %T", ErrType, l, n.op, r)
	}
	c := strings.Compare(ls, rs)
	switch n.op {
	case "<":
		return c < 0, nil
	case "<=":
		return c <= 0, nil
	case ">":
		return c > 0, nil
	default:
		return c >= 0, nil
	}
}

type function struct {
	arity int
	call  func(args []any) (any, error)
}

var functions = map[string]function{
	"contains": {arity: 2, call: func(a []any) (any, error) {
		return strings.Contains(toString(a[0]), toString(a[1])), nil
	}},
	"startsWith": {arity: 2, call: func(a []any) (any, error) {
		return strings.HasPrefix(toString(a[0]), toString(a[1])), nil
	}},
	"endsWith": {arity: 2, call: func(a []any) (any, error) {
		return strings.HasSuffix(toString(a[0]), toString(a[1])), nil
	}},
	"lower": {arity: 1, call: func(a []any) (any, error) {
		return strings.ToLower(toString(a[0])), nil
	}},
	"len": {arity: 1, call: func(a []any) (any, error) {
		return float64(utf8.RuneCountInString(toString(a[0]))), nil
	}},
}

type callNode struct {
	name string
	fn   function
	args []node
}

func (n *callNode) eval(vars map[string]any) (any, error) {
	args := make([]any, len(n.args))
	for i, a := range n.args {
		v, err := a.eval(vars)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return n.fn.call(args)
}

// normalize сводит значения переменных к string, float64 или bool.
func normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case string, bool, float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case int32:
		return float64(t)
	case float32:
		return float64(t)
	case time.Duration:
		return t.Seconds()
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return v != nil
	}
}

func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case bool:
		return 0, false
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return n, err == nil
	}
	return 0, false
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}

func equal(l, r any) bool {
	if lb, ok := l.(bool); ok {
		if rb, ok := r.(bool); ok {
			return lb == rb
		}
		return false
	}
	if _, ok := r.(bool); ok {
		return false
	}

	ln, lok := toNumber(l)
	rn, rok := toNumber(r)
	if lok && rok {
		return ln == rn
	}
	return toString(l) == toString(r)
}
