package ports

import "context"

// UserResolver находит id пользователя по логину; неизвестный логин - errs.ErrNotFound.
type UserResolver interface {
	UserID(ctx context.Context, login string) (string, error)
}
