package commands

import (
	"chatcore/internal/app/domain"
	"chatcore/internal/app/domain/errs"
	"chatcore/internal/app/domain/permissions"
	"chatcore/internal/app/ports"
	"context"
	"errors"
	"strconv"
	"strings"
)

// Service - администрирование команд, алиасов и цен (чат и HTTP API).
type Service struct {
	store  ports.Store
	router *Router
	perms  *permissions.Directory
}

func NewService(store ports.Store, router *Router, perms *permissions.Directory) *Service {
	return &Service{store: store, router: router, perms: perms}
}

func validateCommandName(name string) error {
	if !strings.HasPrefix(strings.TrimSpace(name), "!") || domain.NormalizeCommand(name) == "!" {
		return errs.Invalid("command %q must start with '!'", name)
	}
	return nil
}

func (s *Service) validatePermission(ctx context.Context, tier string) (string, error) {
	if tier == "" {
		return "", nil
	}

	t, err := s.perms.Find(ctx, tier)
	if err != nil {
		return "", err
	}
	if t == nil {
		return "", errs.Invalid("unknown permission %q", tier)
	}
	return t.ID, nil
}

func (s *Service) ListCommands(ctx context.Context) ([]domain.Command, error) {
	return s.store.Commands().List(ctx)
}

func (s *Service) GetCommand(ctx context.Context, command string) (*domain.Command, error) {
	return s.store.Commands().FindByCommand(ctx, command)
}

// AddResponse добавляет ответ, создавая команду при необходимости.
func (s *Service) AddResponse(ctx context.Context, command string, resp domain.Response) (*domain.Command, error) {
	if err := validateCommandName(command); err != nil {
		return nil, err
	}
	if s.router.IsBuiltin(command) {
		return nil, errs.Invalid("command %s collides with a core command", command)
	}
	if strings.TrimSpace(resp.Text) == "" {
		return nil, errs.Invalid("response must not be empty")
	}

	perm, err := s.validatePermission(ctx, resp.Permission)
	if err != nil {
		return nil, err
	}
	resp.Permission = perm

	cmd, err := s.store.Commands().FindByCommand(ctx, command)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		cmd = &domain.Command{Command: command, Enabled: true, Visible: true}
	case err != nil:
		return nil, err
	}

	cmd.Reindex()
	resp.ID = ""
	resp.Order = len(cmd.Responses)
	cmd.Responses = append(cmd.Responses, resp)

	if err := s.store.Commands().Save(ctx, cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}

// EditResponse заменяет ответ с номером rid (с 1), пустые поля не трогает.
func (s *Service) EditResponse(ctx context.Context, command string, rid int, resp domain.Response) (*domain.Command, error) {
	cmd, err := s.store.Commands().FindByCommand(ctx, command)
	if err != nil {
		return nil, err
	}

	cmd.Reindex()
	if rid < 1 || rid > len(cmd.Responses) {
		return nil, errs.NotFound("response", command+"#"+strconv.Itoa(rid))
	}

	target := &cmd.Responses[rid-1]
	if resp.Text != "" {
		target.Text = resp.Text
	}
	if resp.Permission != "" {
		perm, err := s.validatePermission(ctx, resp.Permission)
		if err != nil {
			return nil, err
		}
		target.Permission = perm
	}
	if resp.Filter != "" {
		target.Filter = resp.Filter
	}
	target.StopIfExecuted = resp.StopIfExecuted

	if err := s.store.Commands().Save(ctx, cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}

// RemoveResponse удаляет ответ; rid == 0 удаляет всю команду.
func (s *Service) RemoveResponse(ctx context.Context, command string, rid int) error {
	if rid == 0 {
		return s.store.Commands().Delete(ctx, command)
	}

	cmd, err := s.store.Commands().FindByCommand(ctx, command)
	if err != nil {
		return err
	}

	cmd.Reindex()
	if rid < 1 || rid > len(cmd.Responses) {
		return errs.NotFound("response", command+"#"+strconv.Itoa(rid))
	}
	cmd.Responses = append(cmd.Responses[:rid-1], cmd.Responses[rid:]...)
	cmd.Reindex()
	return s.store.Commands().Save(ctx, cmd)
}

func (s *Service) ToggleCommand(ctx context.Context, command string) (bool, error) {
	cmd, err := s.store.Commands().FindByCommand(ctx, command)
	if err != nil {
		return false, err
	}
	cmd.Enabled = !cmd.Enabled
	return cmd.Enabled, s.store.Commands().Save(ctx, cmd)
}

func (s *Service) ToggleCommandVisibility(ctx context.Context, command string) (bool, error) {
	cmd, err := s.store.Commands().FindByCommand(ctx, command)
	if err != nil {
		return false, err
	}
	cmd.Visible = !cmd.Visible
	return cmd.Visible, s.store.Commands().Save(ctx, cmd)
}

func (s *Service) ListAliases(ctx context.Context) ([]domain.Alias, error) {
	return s.store.Aliases().List(ctx)
}

func (s *Service) AddAlias(ctx context.Context, alias, command, permission string) (*domain.Alias, error) {
	if err := validateCommandName(alias); err != nil {
		return nil, err
	}
	if err := validateCommandName(command); err != nil {
		return nil, err
	}
	if domain.NormalizeCommand(alias) == domain.NormalizeCommand(command) {
		return nil, errs.Invalid("alias %s cannot point to itself", alias)
	}

	if _, err := s.store.Aliases().FindByAlias(ctx, alias); err == nil {
		return nil, errs.ErrAlreadyExists
	} else if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	perm, err := s.validatePermission(ctx, permission)
	if err != nil {
		return nil, err
	}

	a := &domain.Alias{Alias: alias, Command: command, Permission: perm, Enabled: true, Visible: true}
	if err := s.store.Aliases().Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) EditAlias(ctx context.Context, alias, command, permission string) (*domain.Alias, error) {
	a, err := s.store.Aliases().FindByAlias(ctx, alias)
	if err != nil {
		return nil, err
	}

	if command != "" {
		if err := validateCommandName(command); err != nil {
			return nil, err
		}
		if domain.NormalizeCommand(command) == a.Alias {
			return nil, errs.Invalid("alias %s cannot point to itself", alias)
		}
		a.Command = command
	}
	if permission != "" {
		if a.Permission, err = s.validatePermission(ctx, permission); err != nil {
			return nil, err
		}
	}

	if err := s.store.Aliases().Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) RemoveAlias(ctx context.Context, alias string) error {
	return s.store.Aliases().Delete(ctx, alias)
}

func (s *Service) ToggleAlias(ctx context.Context, alias string) (bool, error) {
	a, err := s.store.Aliases().FindByAlias(ctx, alias)
	if err != nil {
		return false, err
	}
	a.Enabled = !a.Enabled
	return a.Enabled, s.store.Aliases().Save(ctx, a)
}

func (s *Service) ToggleAliasVisibility(ctx context.Context, alias string) (bool, error) {
	a, err := s.store.Aliases().FindByAlias(ctx, alias)
	if err != nil {
		return false, err
	}
	a.Visible = !a.Visible
	return a.Visible, s.store.Aliases().Save(ctx, a)
}

func (s *Service) ListPrices(ctx context.Context) ([]domain.Price, error) {
	return s.store.Prices().List(ctx)
}

func (s *Service) SetPrice(ctx context.Context, command string, amount int64) (*domain.Price, error) {
	if err := validateCommandName(command); err != nil {
		return nil, err
	}
	if amount < 0 {
		return nil, errs.Invalid("price must not be negative")
	}

	p, err := s.store.Prices().FindByCommand(ctx, command)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		p = &domain.Price{Command: command, Enabled: true}
	case err != nil:
		return nil, err
	}

	p.Price = amount
	if err := s.store.Prices().Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) UnsetPrice(ctx context.Context, command string) error {
	return s.store.Prices().Delete(ctx, command)
}

func (s *Service) TogglePrice(ctx context.Context, command string) (bool, error) {
	p, err := s.store.Prices().FindByCommand(ctx, command)
	if err != nil {
		return false, err
	}
	p.Enabled = !p.Enabled
	return p.Enabled, s.store.Prices().Save(ctx, p)
}

// IsBuiltin - занято ли имя встроенной командой.
func (s *Service) IsBuiltin(name string) bool {
	return s.router.IsBuiltin(name)
}

func (s *Service) Builtins() map[string]string {
	return s.router.Builtins()
}
