package domain

import (
	"sort"
	"strings"
	"time"
)

type Command struct {
	ID        string     `json:"id"`
	Command   string     `json:"command"`
	Enabled   bool       `json:"enabled"`
	Visible   bool       `json:"visible"`
	Responses []Response `json:"responses"`
}

type Response struct {
	ID             string `json:"id"`
	Order          int    `json:"order"`
	Text           string `json:"text"`
	Permission     string `json:"permission"` // id тира, пусто - без ограничений
	StopIfExecuted bool   `json:"stop_if_executed"`
	Filter         string `json:"filter"`
}

// SortResponses упорядочивает ответы по Order, стабильно.
func (c *Command) SortResponses() {
	sort.SliceStable(c.Responses, func(i, j int) bool {
		return c.Responses[i].Order < c.Responses[j].Order
	})
}

// Reindex восстанавливает непрерывную нумерацию 0..n-1 после удаления.
func (c *Command) Reindex() {
	c.SortResponses()
	for i := range c.Responses {
		c.Responses[i].Order = i
	}
}

func (c *Command) Clone() *Command {
	cp := *c
	cp.Responses = append([]Response(nil), c.Responses...)
	return &cp
}

type Alias struct {
	ID         string `json:"id"`
	Alias      string `json:"alias"`
	Command    string `json:"command"`
	Permission string `json:"permission"`
	Enabled    bool   `json:"enabled"`
	Visible    bool   `json:"visible"`
}

type Price struct {
	ID      string `json:"id"`
	Command string `json:"command"`
	Price   int64  `json:"price"`
	Enabled bool   `json:"enabled"`
}

type CooldownScope string

const (
	ScopeGlobal CooldownScope = "global"
	ScopeUser   CooldownScope = "user"
)

func (s CooldownScope) Valid() bool {
	return s == ScopeGlobal || s == ScopeUser
}

// Exemptions - флаги обхода для кулдаунов и фильтров модерации.
type Exemptions struct {
	Owners      bool `json:"owners"`
	Moderators  bool `json:"moderators"`
	Subscribers bool `json:"subscribers"`
	Followers   bool `json:"followers"`
}

func DefaultExemptions() Exemptions {
	return Exemptions{Owners: true, Moderators: true}
}

type Cooldown struct {
	ID      string        `json:"id"`
	Key     string        `json:"key"`
	Scope   CooldownScope `json:"scope"`
	Seconds int           `json:"seconds"`
	Enabled bool          `json:"enabled"`
	Quiet   bool          `json:"quiet"`
	Exempt  Exemptions    `json:"exempt"`
}

func (c *Cooldown) Duration() time.Duration {
	return time.Duration(c.Seconds) * time.Second
}

// IsKeyword - ключ без "!" сработает на слово в любом месте сообщения.
func (c *Cooldown) IsKeyword() bool {
	return !strings.HasPrefix(c.Key, "!")
}

type Automation string

const (
	AutomationNone        Automation = "none"
	AutomationCasters     Automation = "casters"
	AutomationModerators  Automation = "moderators"
	AutomationSubscribers Automation = "subscribers"
	AutomationVIP         Automation = "vip"
	AutomationFollowers   Automation = "followers"
	AutomationViewers     Automation = "viewers"
)

// Идентификаторы базовых тиров.
const (
	TierCasters     = "casters"
	TierModerators  = "moderators"
	TierSubscribers = "subscribers"
	TierVIP         = "vip"
	TierFollowers   = "followers"
	TierViewers     = "viewers"
)

type Tier struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Order          int        `json:"order"` // 0 - самый высокий
	Automation     Automation `json:"automation"`
	UserIDs        []string   `json:"user_ids"`
	ExcludeUserIDs []string   `json:"exclude_user_ids"`
	IsCore         bool       `json:"is_core"`
}

func (t *Tier) Includes(userID string) bool {
	for _, id := range t.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (t *Tier) Excludes(userID string) bool {
	for _, id := range t.ExcludeUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// NormalizeCommand приводит строку команды к ключу хранилища: "!Command   ADD" -> "!command add".
func NormalizeCommand(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// TokenCount - число слов в строке команды.
func TokenCount(s string) int {
	return len(strings.Fields(s))
}
