package sqlstore

import (
	"chatcore/internal/app/domain"
	"chatcore/internal/app/domain/errs"
	"context"
	"database/sql"
	"encoding/json"
	"github.com/google/uuid"
	"time"
)

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

type commandRepo struct{ s *Store }

func (r commandRepo) List(ctx context.Context) ([]domain.Command, error) {
	rows, err := r.s.query(ctx, r.s.db, `SELECT id, command, enabled, visible FROM commands ORDER BY command`)
	if err != nil {
		return nil, errs.Store("list commands", err)
	}
	defer rows.Close()

	var out []domain.Command
	for rows.Next() {
		var c domain.Command
		if err := rows.Scan(&c.ID, &c.Command, &c.Enabled, &c.Visible); err != nil {
			return nil, errs.Store("scan command", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Store("list commands", err)
	}

	for i := range out {
		if out[i].Responses, err = r.responses(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r commandRepo) responses(ctx context.Context, commandID string) ([]domain.Response, error) {
	rows, err := r.s.query(ctx, r.s.db,
		`SELECT id, ord, body, permission, stop_if_executed, filter_expr FROM command_responses WHERE command_id = ? ORDER BY ord`,
		commandID)
	if err != nil {
		return nil, errs.Store("list responses", err)
	}
	defer rows.Close()

	var out []domain.Response
	for rows.Next() {
		var resp domain.Response
		if err := rows.Scan(&resp.ID, &resp.Order, &resp.Text, &resp.Permission, &resp.StopIfExecuted, &resp.Filter); err != nil {
			return nil, errs.Store("scan response", err)
		}
		out = append(out, resp)
	}
	return out, errs.Store("list responses", rows.Err())
}

func (r commandRepo) FindByCommand(ctx context.Context, command string) (*domain.Command, error) {
	var c domain.Command
	err := r.s.queryRow(ctx, r.s.db, `SELECT id, command, enabled, visible FROM commands WHERE command = ?`,
		domain.NormalizeCommand(command)).Scan(&c.ID, &c.Command, &c.Enabled, &c.Visible)
	if isNoRows(err) {
		return nil, errs.NotFound("command", command)
	}
	if err != nil {
		return nil, errs.Store("find command", err)
	}

	if c.Responses, err = r.responses(ctx, c.ID); err != nil {
		return nil, err
	}
	return &c, nil
}

// Save пишет команду и ее ответы одной транзакцией.
func (r commandRepo) Save(ctx context.Context, cmd *domain.Command) error {
	ensureID(&cmd.ID)
	cmd.Command = domain.NormalizeCommand(cmd.Command)
	cmd.SortResponses()
	for i := range cmd.Responses {
		ensureID(&cmd.Responses[i].ID)
	}

	return r.s.withTx(ctx, "save command", func(tx *sql.Tx) error {
		if _, err := r.s.exec(ctx, tx,
			`INSERT INTO commands (id, command, enabled, visible) VALUES (?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET command = excluded.command, enabled = excluded.enabled, visible = excluded.visible`,
			cmd.ID, cmd.Command, cmd.Enabled, cmd.Visible); err != nil {
			return err
		}

		if _, err := r.s.exec(ctx, tx, `DELETE FROM command_responses WHERE command_id = ?`, cmd.ID); err != nil {
			return err
		}

		for _, resp := range cmd.Responses {
			if _, err := r.s.exec(ctx, tx,
				`INSERT INTO command_responses (id, command_id, ord, body, permission, stop_if_executed, filter_expr) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				resp.ID, cmd.ID, resp.Order, resp.Text, resp.Permission, resp.StopIfExecuted, resp.Filter); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r commandRepo) Delete(ctx context.Context, command string) error {
	key := domain.NormalizeCommand(command)
	return r.s.withTx(ctx, "delete command", func(tx *sql.Tx) error {
		if _, err := r.s.exec(ctx, tx,
			`DELETE FROM command_responses WHERE command_id IN (SELECT id FROM commands WHERE command = ?)`, key); err != nil {
			return err
		}

		res, err := r.s.exec(ctx, tx, `DELETE FROM commands WHERE command = ?`, key)
		if err != nil {
			return err
		}
		return mustAffect(res, "command", command)
	})
}

type aliasRepo struct{ s *Store }

func (r aliasRepo) List(ctx context.Context) ([]domain.Alias, error) {
	rows, err := r.s.query(ctx, r.s.db, `SELECT id, alias, command, permission, enabled, visible FROM aliases ORDER BY alias`)
	if err != nil {
		return nil, errs.Store("list aliases", err)
	}
	defer rows.Close()

	var out []domain.Alias
	for rows.Next() {
		var a domain.Alias
		if err := rows.Scan(&a.ID, &a.Alias, &a.Command, &a.Permission, &a.Enabled, &a.Visible); err != nil {
			return nil, errs.Store("scan alias", err)
		}
		out = append(out, a)
	}
	return out, errs.Store("list aliases", rows.Err())
}

func (r aliasRepo) FindByAlias(ctx context.Context, alias string) (*domain.Alias, error) {
	var a domain.Alias
	err := r.s.queryRow(ctx, r.s.db, `SELECT id, alias, command, permission, enabled, visible FROM aliases WHERE alias = ?`,
		domain.NormalizeCommand(alias)).Scan(&a.ID, &a.Alias, &a.Command, &a.Permission, &a.Enabled, &a.Visible)
	if isNoRows(err) {
		return nil, errs.NotFound("alias", alias)
	}
	if err != nil {
		return nil, errs.Store("find alias", err)
	}
	return &a, nil
}

func (r aliasRepo) Save(ctx context.Context, alias *domain.Alias) error {
	ensureID(&alias.ID)
	alias.Alias = domain.NormalizeCommand(alias.Alias)
	alias.Command = domain.NormalizeCommand(alias.Command)

	_, err := r.s.exec(ctx, r.s.db,
		`INSERT INTO aliases (id, alias, command, permission, enabled, visible) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET alias = excluded.alias, command = excluded.command, permission = excluded.permission,
			enabled = excluded.enabled, visible = excluded.visible`,
		alias.ID, alias.Alias, alias.Command, alias.Permission, alias.Enabled, alias.Visible)
	return errs.Store("save alias", err)
}

func (r aliasRepo) Delete(ctx context.Context, alias string) error {
	res, err := r.s.exec(ctx, r.s.db, `DELETE FROM aliases WHERE alias = ?`, domain.NormalizeCommand(alias))
	if err != nil {
		return errs.Store("delete alias", err)
	}
	return mustAffect(res, "alias", alias)
}

type priceRepo struct{ s *Store }

func (r priceRepo) List(ctx context.Context) ([]domain.Price, error) {
	rows, err := r.s.query(ctx, r.s.db, `SELECT id, command, price, enabled FROM prices ORDER BY command`)
	if err != nil {
		return nil, errs.Store("list prices", err)
	}
	defer rows.Close()

	var out []domain.Price
	for rows.Next() {
		var p domain.Price
		if err := rows.Scan(&p.ID, &p.Command, &p.Price, &p.Enabled); err != nil {
			return nil, errs.Store("scan price", err)
		}
		out = append(out, p)
	}
	return out, errs.Store("list prices", rows.Err())
}

func (r priceRepo) FindByCommand(ctx context.Context, command string) (*domain.Price, error) {
	var p domain.Price
	err := r.s.queryRow(ctx, r.s.db, `SELECT id, command, price, enabled FROM prices WHERE command = ?`,
		domain.NormalizeCommand(command)).Scan(&p.ID, &p.Command, &p.Price, &p.Enabled)
	if isNoRows(err) {
		return nil, errs.NotFound("price", command)
	}
	if err != nil {
		return nil, errs.Store("find price", err)
	}
	return &p, nil
}

func (r priceRepo) Save(ctx context.Context, price *domain.Price) error {
	ensureID(&price.ID)
	price.Command = domain.NormalizeCommand(price.Command)

	_, err := r.s.exec(ctx, r.s.db,
		`INSERT INTO prices (id, command, price, enabled) VALUES (?, ?, ?, ?)
		ON CONFLICT (command) DO UPDATE SET price = excluded.price, enabled = excluded.enabled`,
		price.ID, price.Command, price.Price, price.Enabled)
	return errs.Store("save price", err)
}

func (r priceRepo) Delete(ctx context.Context, command string) error {
	res, err := r.s.exec(ctx, r.s.db, `DELETE FROM prices WHERE command = ?`, domain.NormalizeCommand(command))
	if err != nil {
		return errs.Store("delete price", err)
	}
	return mustAffect(res, "price", command)
}

type cooldownRepo struct{ s *Store }

const cooldownColumns = `id, cd_key, scope, seconds, enabled, quiet, exempt_owners, exempt_moderators, exempt_subscribers, exempt_followers`

func scanCooldown(row interface{ Scan(...any) error }) (*domain.Cooldown, error) {
	var c domain.Cooldown
	var scope string
	err := row.Scan(&c.ID, &c.Key, &scope, &c.Seconds, &c.Enabled, &c.Quiet,
		&c.Exempt.Owners, &c.Exempt.Moderators, &c.Exempt.Subscribers, &c.Exempt.Followers)
	c.Scope = domain.CooldownScope(scope)
	return &c, err
}

func (r cooldownRepo) List(ctx context.Context) ([]domain.Cooldown, error) {
	rows, err := r.s.query(ctx, r.s.db, `SELECT `+cooldownColumns+` FROM cooldowns ORDER BY cd_key`)
	if err != nil {
		return nil, errs.Store("list cooldowns", err)
	}
	defer rows.Close()

	var out []domain.Cooldown
	for rows.Next() {
		c, err := scanCooldown(rows)
		if err != nil {
			return nil, errs.Store("scan cooldown", err)
		}
		out = append(out, *c)
	}
	return out, errs.Store("list cooldowns", rows.Err())
}

func (r cooldownRepo) FindByKey(ctx context.Context, key string) (*domain.Cooldown, error) {
	c, err := scanCooldown(r.s.queryRow(ctx, r.s.db, `SELECT `+cooldownColumns+` FROM cooldowns WHERE cd_key = ?`,
		domain.NormalizeCommand(key)))
	if isNoRows(err) {
		return nil, errs.NotFound("cooldown", key)
	}
	if err != nil {
		return nil, errs.Store("find cooldown", err)
	}
	return c, nil
}

func (r cooldownRepo) Save(ctx context.Context, cd *domain.Cooldown) error {
	ensureID(&cd.ID)
	cd.Key = domain.NormalizeCommand(cd.Key)

	_, err := r.s.exec(ctx, r.s.db,
		`INSERT INTO cooldowns (`+cooldownColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (cd_key) DO UPDATE SET scope = excluded.scope, seconds = excluded.seconds, enabled = excluded.enabled,
			quiet = excluded.quiet, exempt_owners = excluded.exempt_owners, exempt_moderators = excluded.exempt_moderators,
			exempt_subscribers = excluded.exempt_subscribers, exempt_followers = excluded.exempt_followers`,
		cd.ID, cd.Key, string(cd.Scope), cd.Seconds, cd.Enabled, cd.Quiet,
		cd.Exempt.Owners, cd.Exempt.Moderators, cd.Exempt.Subscribers, cd.Exempt.Followers)
	return errs.Store("save cooldown", err)
}

func (r cooldownRepo) Delete(ctx context.Context, key string) error {
	k := domain.NormalizeCommand(key)
	return r.s.withTx(ctx, "delete cooldown", func(tx *sql.Tx) error {
		if _, err := r.s.exec(ctx, tx,
			`DELETE FROM cooldown_timestamps WHERE cooldown_id IN (SELECT id FROM cooldowns WHERE cd_key = ?)`, k); err != nil {
			return err
		}

		res, err := r.s.exec(ctx, tx, `DELETE FROM cooldowns WHERE cd_key = ?`, k)
		if err != nil {
			return err
		}
		return mustAffect(res, "cooldown", key)
	})
}

func (r cooldownRepo) Timestamp(ctx context.Context, cooldownID, viewerID string) (time.Time, bool, error) {
	var ns int64
	err := r.s.queryRow(ctx, r.s.db, `SELECT ts FROM cooldown_timestamps WHERE cooldown_id = ? AND viewer_id = ?`,
		cooldownID, viewerID).Scan(&ns)
	if isNoRows(err) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, errs.Store("get cooldown timestamp", err)
	}
	return time.Unix(0, ns), true, nil
}

func (r cooldownRepo) SetTimestamp(ctx context.Context, cooldownID, viewerID string, ts time.Time) error {
	_, err := r.s.exec(ctx, r.s.db,
		`INSERT INTO cooldown_timestamps (cooldown_id, viewer_id, ts) VALUES (?, ?, ?)
		ON CONFLICT (cooldown_id, viewer_id) DO UPDATE SET ts = excluded.ts`,
		cooldownID, viewerID, ts.UnixNano())
	return errs.Store("set cooldown timestamp", err)
}

func (r cooldownRepo) ClearTimestamp(ctx context.Context, cooldownID, viewerID string) error {
	_, err := r.s.exec(ctx, r.s.db, `DELETE FROM cooldown_timestamps WHERE cooldown_id = ? AND viewer_id = ?`,
		cooldownID, viewerID)
	return errs.Store("clear cooldown timestamp", err)
}

type warningRepo struct{ s *Store }

func (r warningRepo) Get(ctx context.Context, viewerID string) ([]time.Time, error) {
	rows, err := r.s.query(ctx, r.s.db, `SELECT ts FROM warnings WHERE viewer_id = ? ORDER BY ts`, viewerID)
	if err != nil {
		return nil, errs.Store("list warnings", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var ns int64
		if err := rows.Scan(&ns); err != nil {
			return nil, errs.Store("scan warning", err)
		}
		out = append(out, time.Unix(0, ns))
	}
	return out, errs.Store("list warnings", rows.Err())
}

func (r warningRepo) Set(ctx context.Context, viewerID string, warnings []time.Time) error {
	return r.s.withTx(ctx, "set warnings", func(tx *sql.Tx) error {
		if _, err := r.s.exec(ctx, tx, `DELETE FROM warnings WHERE viewer_id = ?`, viewerID); err != nil {
			return err
		}
		for _, ts := range warnings {
			if _, err := r.s.exec(ctx, tx, `INSERT INTO warnings (viewer_id, ts) VALUES (?, ?)`, viewerID, ts.UnixNano()); err != nil {
				return err
			}
		}
		return nil
	})
}

type permitRepo struct{ s *Store }

func (r permitRepo) Add(ctx context.Context, viewerID string, count int) error {
	_, err := r.s.exec(ctx, r.s.db,
		`INSERT INTO permits (viewer_id, count) VALUES (?, ?)
		ON CONFLICT (viewer_id) DO UPDATE SET count = permits.count + excluded.count`,
		viewerID, count)
	return errs.Store("add permit", err)
}

func (r permitRepo) Consume(ctx context.Context, viewerID string) (bool, error) {
	res, err := r.s.exec(ctx, r.s.db, `UPDATE permits SET count = count - 1 WHERE viewer_id = ? AND count > 0`, viewerID)
	if err != nil {
		return false, errs.Store("consume permit", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errs.Store("consume permit", err)
	}
	return n > 0, nil
}

type tierRepo struct{ s *Store }

func (r tierRepo) List(ctx context.Context) ([]domain.Tier, error) {
	rows, err := r.s.query(ctx, r.s.db,
		`SELECT id, name, ord, automation, user_ids, exclude_user_ids, is_core FROM tiers ORDER BY ord`)
	if err != nil {
		return nil, errs.Store("list tiers", err)
	}
	defer rows.Close()

	var out []domain.Tier
	for rows.Next() {
		var t domain.Tier
		var automation, users, excluded string
		if err := rows.Scan(&t.ID, &t.Name, &t.Order, &automation, &users, &excluded, &t.IsCore); err != nil {
			return nil, errs.Store("scan tier", err)
		}
		t.Automation = domain.Automation(automation)
		if err := json.Unmarshal([]byte(users), &t.UserIDs); err != nil {
			return nil, errs.Store("decode tier users", err)
		}
		if err := json.Unmarshal([]byte(excluded), &t.ExcludeUserIDs); err != nil {
			return nil, errs.Store("decode tier excluded users", err)
		}
		out = append(out, t)
	}
	return out, errs.Store("list tiers", rows.Err())
}

func (r tierRepo) Save(ctx context.Context, tier *domain.Tier) error {
	ensureID(&tier.ID)

	users, err := json.Marshal(nonNil(tier.UserIDs))
	if err != nil {
		return errs.Store("encode tier users", err)
	}
	excluded, err := json.Marshal(nonNil(tier.ExcludeUserIDs))
	if err != nil {
		return errs.Store("encode tier excluded users", err)
	}

	_, err = r.s.exec(ctx, r.s.db,
		`INSERT INTO tiers (id, name, ord, automation, user_ids, exclude_user_ids, is_core) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, ord = excluded.ord, automation = excluded.automation,
			user_ids = excluded.user_ids, exclude_user_ids = excluded.exclude_user_ids, is_core = excluded.is_core`,
		tier.ID, tier.Name, tier.Order, string(tier.Automation), string(users), string(excluded), tier.IsCore)
	return errs.Store("save tier", err)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type pointsRepo struct{ s *Store }

func (r pointsRepo) Get(ctx context.Context, viewerID string) (int64, error) {
	var points int64
	err := r.s.queryRow(ctx, r.s.db, `SELECT points FROM points WHERE viewer_id = ?`, viewerID).Scan(&points)
	if isNoRows(err) {
		return 0, nil
	}
	if err != nil {
		return 0, errs.Store("get points", err)
	}
	return points, nil
}

func (r pointsRepo) Increment(ctx context.Context, viewerID string, amount int64) error {
	_, err := r.s.exec(ctx, r.s.db,
		`INSERT INTO points (viewer_id, points) VALUES (?, ?)
		ON CONFLICT (viewer_id) DO UPDATE SET points = points.points + excluded.points`,
		viewerID, amount)
	return errs.Store("increment points", err)
}

// TryDecrement - условный UPDATE, проверка и списание одной командой.
func (r pointsRepo) TryDecrement(ctx context.Context, viewerID string, amount int64) (bool, error) {
	res, err := r.s.exec(ctx, r.s.db,
		`UPDATE points SET points = points - ? WHERE viewer_id = ? AND points >= ?`,
		amount, viewerID, amount)
	if err != nil {
		return false, errs.Store("decrement points", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errs.Store("decrement points", err)
	}
	return n > 0, nil
}
