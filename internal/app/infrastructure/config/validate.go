package config

import (
	"chatcore/internal/app/domain"
	"errors"
	"fmt"
	"strings"
)

const maxTimeout = 1209600

func (m *Manager) validate(cfg *Config) error {
	return Validate(cfg)
}

// Validate проверяет диапазоны и заполняет nil-карты, чтобы потребители могли писать в них без проверок.
func Validate(cfg *Config) error {
	// app
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if cfg.App.LogLevel != "" && !validLevels[cfg.App.LogLevel] {
		return fmt.Errorf("app.log_level must be one of trace, debug, info, warn, error; got %s", cfg.App.LogLevel)
	}

	switch cfg.App.Store.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if cfg.App.Store.DSN == "" {
			return fmt.Errorf("app.store.dsn is required for driver %s", cfg.App.Store.Driver)
		}
	default:
		return fmt.Errorf("app.store.driver must be one of memory, sqlite3, pgx; got %q", cfg.App.Store.Driver)
	}

	// parser
	if cfg.Parser.ResponseStaggerMS < 0 || cfg.Parser.ResponseStaggerMS > 60000 {
		return errors.New("parser.response_stagger_ms must be [0,60000]")
	}

	if cfg.Twitch.MessagesPer30s < 0 || cfg.Twitch.MessagesPer30s > 100 {
		return errors.New("twitch.messages_per_30s must be [0,100]")
	}

	if cfg.Commands.Permissions == nil {
		cfg.Commands.Permissions = make(map[string]string)
	}
	for cmd := range cfg.Commands.Permissions {
		if !strings.HasPrefix(cmd, "!") {
			return fmt.Errorf("commands.permissions: %q must start with '!'", cmd)
		}
	}

	if cfg.Translations == nil {
		cfg.Translations = make(map[string]string)
	}
	if cfg.Variables == nil {
		cfg.Variables = make(map[string]string)
	}

	return validateModeration(&cfg.Moderation)
}

func validateModeration(mod *Moderation) error {
	if mod.Warnings.Allowed < 0 || mod.Warnings.Allowed > 100 {
		return errors.New("moderation.warnings.allowed must be [0,100]")
	}

	if mod.Exemptions == nil {
		mod.Exemptions = make(map[string]domain.Exemptions)
	}
	for name := range mod.Exemptions {
		if !isFilterName(name) {
			return fmt.Errorf("moderation.exemptions: unknown filter %q", name)
		}
	}

	if mod.Links == nil {
		mod.Links = make(map[string]*LinksSettings)
	}
	for tier, s := range mod.Links {
		if s == nil {
			return fmt.Errorf("moderation.links.%s is required", tier)
		}
		if err := checkTimeout("links", tier, s.Timeout); err != nil {
			return err
		}
	}

	if mod.Symbols == nil {
		mod.Symbols = make(map[string]*SymbolsSettings)
	}
	for tier, s := range mod.Symbols {
		if s == nil {
			return fmt.Errorf("moderation.symbols.%s is required", tier)
		}
		if err := checkTimeout("symbols", tier, s.Timeout); err != nil {
			return err
		}
		if err := checkPercent("symbols", tier, s.MaxPercent); err != nil {
			return err
		}
		if s.MaxConsecutive < 1 {
			return fmt.Errorf("moderation.symbols.%s.max_consecutive must be >= 1", tier)
		}
	}

	if mod.LongMessage == nil {
		mod.LongMessage = make(map[string]*LongMessageSettings)
	}
	for tier, s := range mod.LongMessage {
		if s == nil {
			return fmt.Errorf("moderation.long_message.%s is required", tier)
		}
		if err := checkTimeout("long_message", tier, s.Timeout); err != nil {
			return err
		}
		if s.TriggerLength < 1 {
			return fmt.Errorf("moderation.long_message.%s.trigger_length must be >= 1", tier)
		}
	}

	if mod.Caps == nil {
		mod.Caps = make(map[string]*CapsSettings)
	}
	for tier, s := range mod.Caps {
		if s == nil {
			return fmt.Errorf("moderation.caps.%s is required", tier)
		}
		if err := checkTimeout("caps", tier, s.Timeout); err != nil {
			return err
		}
		if err := checkPercent("caps", tier, s.MaxPercent); err != nil {
			return err
		}
	}

	if mod.Spam == nil {
		mod.Spam = make(map[string]*SpamSettings)
	}
	for tier, s := range mod.Spam {
		if s == nil {
			return fmt.Errorf("moderation.spam.%s is required", tier)
		}
		if err := checkTimeout("spam", tier, s.Timeout); err != nil {
			return err
		}
		if s.MaxLength < 1 {
			return fmt.Errorf("moderation.spam.%s.max_length must be >= 1", tier)
		}
	}

	if mod.Color == nil {
		mod.Color = make(map[string]*ColorSettings)
	}
	for tier, s := range mod.Color {
		if s == nil {
			return fmt.Errorf("moderation.color.%s is required", tier)
		}
		if err := checkTimeout("color", tier, s.Timeout); err != nil {
			return err
		}
	}

	if mod.Emotes == nil {
		mod.Emotes = make(map[string]*EmotesSettings)
	}
	for tier, s := range mod.Emotes {
		if s == nil {
			return fmt.Errorf("moderation.emotes.%s is required", tier)
		}
		if err := checkTimeout("emotes", tier, s.Timeout); err != nil {
			return err
		}
	}

	if mod.Blacklist == nil {
		mod.Blacklist = make(map[string]*BlacklistSettings)
	}
	for tier, s := range mod.Blacklist {
		if s == nil {
			return fmt.Errorf("moderation.blacklist.%s is required", tier)
		}
		if err := checkTimeout("blacklist", tier, s.Timeout); err != nil {
			return err
		}
	}

	if mod.WhitelistPhrases == nil {
		mod.WhitelistPhrases = []string{}
	}
	if mod.BlacklistPhrases == nil {
		mod.BlacklistPhrases = []string{}
	}

	return nil
}

func checkTimeout(filter, tier string, v int) error {
	if v < 0 || v > maxTimeout {
		return fmt.Errorf("moderation.%s.%s.timeout must be [0,%d]", filter, tier, maxTimeout)
	}
	return nil
}

func checkPercent(filter, tier string, v int) error {
	if v < 1 || v > 100 {
		return fmt.Errorf("moderation.%s.%s.max_percent must be [1,100]", filter, tier)
	}
	return nil
}

func isFilterName(name string) bool {
	for _, n := range FilterNames {
		if n == name {
			return true
		}
	}
	return false
}
