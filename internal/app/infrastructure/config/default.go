package config

import "chatcore/internal/app/domain"

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// Имена фильтров модерации, используются как ключи исключений и категории дедупликации.
const (
	FilterLinks       = "links"
	FilterSymbols     = "symbols"
	FilterLongMessage = "longMessage"
	FilterCaps        = "caps"
	FilterSpam        = "spam"
	FilterColor       = "color"
	FilterEmotes      = "emotes"
	FilterBlacklist   = "blacklist"
)

var FilterNames = []string{
	FilterLinks, FilterSymbols, FilterLongMessage, FilterCaps,
	FilterSpam, FilterColor, FilterEmotes, FilterBlacklist,
}

func (m *Manager) GetDefault() *Config {
	return Default()
}

func Default() *Config {
	exemptions := make(map[string]domain.Exemptions, len(FilterNames))
	for _, name := range FilterNames {
		exemptions[name] = domain.DefaultExemptions()
	}

	return &Config{
		App: App{
			LogLevel: "info",
			LogFile:  "logs/main.log",
			GinMode:  "release",
			Listen:   ":8080",
			Store: Store{
				Driver: DriverSQLite,
				DSN:    "chatcore.db",
			},
		},
		Twitch: Twitch{
			MessagesPer30s: 20,
		},
		General: General{
			Owners:       []string{},
			IgnoredUsers: []string{"nightbot", "streamelements", "moobot"},
		},
		Parser: Parser{
			ResponseStaggerMS: 750,
		},
		Commands: Commands{
			Permissions: make(map[string]string),
			Disabled:    []string{},
		},
		Points: Points{
			Name: "points",
		},
		Cooldown: Cooldown{
			NotifyAsWhisper: false,
			NotifyInChat:    true,
		},
		Moderation: Moderation{
			Links: map[string]*LinksSettings{
				domain.TierCasters:    {Enabled: false, Timeout: 120},
				domain.TierModerators: {Enabled: false, Timeout: 120},
				domain.TierViewers:    {Enabled: true, IncludeSpaces: false, IncludeClips: true, Timeout: 120},
			},
			Symbols: map[string]*SymbolsSettings{
				domain.TierCasters:    {Enabled: false, TriggerLength: 15, MaxConsecutive: 10, MaxPercent: 50, Timeout: 120},
				domain.TierModerators: {Enabled: false, TriggerLength: 15, MaxConsecutive: 10, MaxPercent: 50, Timeout: 120},
				domain.TierViewers:    {Enabled: true, TriggerLength: 15, MaxConsecutive: 10, MaxPercent: 50, Timeout: 120},
			},
			LongMessage: map[string]*LongMessageSettings{
				domain.TierCasters:    {Enabled: false, TriggerLength: 300, Timeout: 120},
				domain.TierModerators: {Enabled: false, TriggerLength: 300, Timeout: 120},
				domain.TierViewers:    {Enabled: true, TriggerLength: 300, Timeout: 120},
			},
			Caps: map[string]*CapsSettings{
				domain.TierCasters:    {Enabled: false, TriggerLength: 15, MaxPercent: 50, Timeout: 120},
				domain.TierModerators: {Enabled: false, TriggerLength: 15, MaxPercent: 50, Timeout: 120},
				domain.TierViewers:    {Enabled: true, TriggerLength: 15, MaxPercent: 50, Timeout: 120},
			},
			Spam: map[string]*SpamSettings{
				domain.TierCasters:    {Enabled: false, TriggerLength: 15, MaxLength: 50, Timeout: 300},
				domain.TierModerators: {Enabled: false, TriggerLength: 15, MaxLength: 50, Timeout: 300},
				domain.TierViewers:    {Enabled: true, TriggerLength: 15, MaxLength: 50, Timeout: 300},
			},
			Color: map[string]*ColorSettings{
				domain.TierCasters:    {Enabled: false, Timeout: 300},
				domain.TierModerators: {Enabled: false, Timeout: 300},
				domain.TierViewers:    {Enabled: true, Timeout: 300},
			},
			Emotes: map[string]*EmotesSettings{
				domain.TierCasters:    {Enabled: false, MaxCount: 15, Timeout: 120},
				domain.TierModerators: {Enabled: false, MaxCount: 15, Timeout: 120},
				domain.TierViewers:    {Enabled: true, EmojisAreEmotes: true, MaxCount: 15, Timeout: 120},
			},
			Blacklist: map[string]*BlacklistSettings{
				domain.TierCasters:    {Enabled: false, Timeout: 120},
				domain.TierModerators: {Enabled: false, Timeout: 120},
				domain.TierViewers:    {Enabled: true, Timeout: 120},
			},
			Exemptions: exemptions,
			Warnings: Warnings{
				Allowed:          3,
				ShouldTimeout:    true,
				Announce:         true,
				AnnounceTimeouts: true,
			},
			WhitelistPhrases:   []string{},
			BlacklistPhrases:   []string{},
			SongRequestCommand: "!songrequest",
		},
		Translations: make(map[string]string),
		Variables:    make(map[string]string),
	}
}
