package commands

import (
	"chatcore/internal/app/domain/errs"
	"chatcore/internal/app/domain/parser"
	"chatcore/internal/app/infrastructure/config"
	"chatcore/internal/app/ports"
	"chatcore/pkg/logger"
	"context"
	"errors"
	"fmt"
)

const (
	PriceParserName   = "price"
	PriceRollbackName = "price"
)

// Charge - списание за команду, возвращается при вето.
type Charge struct {
	ViewerID string
	Amount   int64
	Command  string
}

type Pricing struct {
	log        logger.Logger
	manager    *config.Manager
	prices     ports.PriceRepository
	points     ports.PointsRepository
	translator ports.Translator
}

func NewPricing(log logger.Logger, manager *config.Manager, store ports.Store, translator ports.Translator) *Pricing {
	return &Pricing{
		log:        log,
		manager:    manager,
		prices:     store.Prices(),
		points:     store.Points(),
		translator: translator,
	}
}

// Register ставит списание сразу после кулдаунов.
func (p *Pricing) Register(e *parser.Engine) error {
	e.RegisterRollback(PriceRollbackName, p.refund)
	return e.RegisterParser(PriceParserName, p.Check, parser.Options{Priority: parser.High + 1})
}

func (p *Pricing) Check(ctx context.Context, pc *parser.Context) (bool, error) {
	res, err := pc.Command(ctx)
	if err != nil || res == nil {
		return true, err
	}

	price, err := p.prices.FindByCommand(ctx, res.Name)
	if errors.Is(err, errs.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return true, err
	}
	if !price.Enabled || price.Price <= 0 {
		return true, nil
	}

	// без доступа к команде списывать нечего, отказ выдаст диспетчер
	ok, err := pc.Permissions().CheckAccess(ctx, pc.Sender(), res.Permission)
	if err != nil || !ok {
		return true, err
	}

	sender := pc.Sender()
	charged, err := p.points.TryDecrement(ctx, sender.UserID, price.Price)
	if err != nil {
		return true, fmt.Errorf("charge %s: %w", res.Name, err)
	}
	if !charged {
		pc.Reply(p.translator.Prepare("price.user-have-not-enough-points", map[string]any{
			"sender":     "@" + sender.Name(),
			"amount":     price.Price,
			"pointsName": p.manager.Get().Points.Name,
			"command":    res.Name,
		}))
		return false, nil
	}

	pc.Commit(PriceRollbackName, &Charge{ViewerID: sender.UserID, Amount: price.Price, Command: res.Name})
	return true, nil
}

func (p *Pricing) refund(ctx context.Context, _ *parser.Context, token any) error {
	charge, ok := token.(*Charge)
	if !ok {
		return fmt.Errorf("unexpected price token %T", token)
	}

	p.log.Debug("Refunding command price", "command", charge.Command, "user", charge.ViewerID, "amount", charge.Amount)
	return p.points.Increment(ctx, charge.ViewerID, charge.Amount)
}
