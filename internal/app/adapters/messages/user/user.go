package user

import (
	"chatcore/internal/app/domain"
	"chatcore/internal/app/domain/parser"
	"chatcore/internal/app/infrastructure/config"
	"chatcore/internal/app/infrastructure/storage"
	"chatcore/internal/app/ports"
	"chatcore/pkg/logger"
	"context"
	"golang.org/x/time/rate"
	"time"
)

// User - встроенные команды, доступные всем зрителям.
type User struct {
	log        logger.Logger
	manager    *config.Manager
	translator ports.Translator
	points     ports.PointsRepository
	limiters   *storage.Cache[string, *rate.Limiter]
}

func New(log logger.Logger, manager *config.Manager, translator ports.Translator, points ports.PointsRepository) *User {
	return &User{
		log:        log,
		manager:    manager,
		translator: translator,
		points:     points,
		limiters:   storage.NewCache[string, *rate.Limiter](10_000, 10*time.Minute, storage.ExpireAfterAccess),
	}
}

func (u *User) Register(e *parser.Engine) {
	e.RegisterCommand("!points", u.handlePoints, domain.TierViewers)
}

// allow - не больше 3 запросов в минуту от одного зрителя, лишние молча игнорируются.
func (u *User) allow(userID string) bool {
	l, ok := u.limiters.Get(userID)
	if !ok {
		l = rate.NewLimiter(rate.Every(20*time.Second), 3)
		u.limiters.Set(userID, l)
	}
	return l.Allow()
}

func (u *User) handlePoints(ctx context.Context, pc *parser.Context, _ string) ([]parser.Response, error) {
	sender := pc.Sender()
	if !u.allow(sender.UserID) {
		u.log.Debug("Points request rate limited", "user", sender.Username)
		return nil, nil
	}

	amount, err := u.points.Get(ctx, sender.UserID)
	if err != nil {
		return nil, err
	}

	return []parser.Response{{Text: u.translator.Prepare("points.balance", map[string]any{
		"sender":     "@" + sender.Name(),
		"amount":     amount,
		"pointsName": u.manager.Get().Points.Name,
	})}}, nil
}
