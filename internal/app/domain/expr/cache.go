package expr

import (
	"chatcore/internal/app/domain/errs"
	"chatcore/internal/app/infrastructure/storage"
	"time"
)

type compiled struct {
	prog *Program
	err  error
}

// Cache хранит скомпилированные фильтры, включая ошибки компиляции.
type Cache struct {
	programs *storage.Cache[string, compiled]
}

func NewCache(capacity int, ttl time.Duration) *Cache {
	return &Cache{programs: storage.NewCache[string, compiled](capacity, ttl, storage.ExpireAfterAccess)}
}

func (c *Cache) Compile(src string) (*Program, error) {
	if entry, ok := c.programs.Get(src); ok {
		return entry.prog, entry.err
	}

	prog, err := Compile(src)
	c.programs.Set(src, compiled{prog: prog, err: err})
	return prog, err
}

// Evaluate компилирует (один раз) и вычисляет фильтр; любая ошибка - errs.FilterEvaluationError.
func (c *Cache) Evaluate(src string, vars map[string]any) (bool, error) {
	prog, err := c.Compile(src)
	if err != nil {
		return false, &errs.FilterEvaluationError{Expr: src, Err: err}
	}

	ok, err := prog.Eval(vars)
	if err != nil {
		return false, &errs.FilterEvaluationError{Expr: src, Err: err}
	}
	return ok, nil
}
