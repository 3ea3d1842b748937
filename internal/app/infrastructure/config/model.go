package config

import "chatcore/internal/app/domain"

type Config struct {
	App          App               `json:"app"`
	Twitch       Twitch            `json:"twitch"`
	General      General           `json:"general"`
	Parser       Parser            `json:"parser"`
	Commands     Commands          `json:"commands"`
	Points       Points            `json:"points"`
	Cooldown     Cooldown          `json:"cooldown"`
	Moderation   Moderation        `json:"moderation"`
	Translations map[string]string `json:"translations"` // переопределения каталога, ключ - ключ перевода
	Variables    map[string]string `json:"variables"`    // $_name в ответах и фильтрах
}

type App struct {
	LogLevel        string `json:"log_level"`
	LogFile         string `json:"log_file"`
	GinMode         string `json:"gin_mode"`
	Listen          string `json:"listen"`
	AuthToken       string `json:"auth_token"`
	Store           Store  `json:"store"`
	TracingEndpoint string `json:"tracing_endpoint"`
}

type Store struct {
	Driver string `json:"driver"` // memory, sqlite3, pgx
	DSN    string `json:"dsn"`
}

type Twitch struct {
	Channel       string `json:"channel"`
	BroadcasterID string `json:"broadcaster_id"`
	BotUsername   string `json:"bot_username"`
	BotUserID     string `json:"bot_user_id"`
	OAuth         string `json:"oauth"`
	ClientID      string `json:"client_id"`
	AccessToken   string `json:"access_token"`
	// MessagesPer30s - лимит исходящих сообщений (20 для обычного аккаунта, 100 для модератора).
	MessagesPer30s int `json:"messages_per_30s"`
}

type General struct {
	Owners       []string `json:"owners"`
	IgnoredUsers []string `json:"ignored_users"`
}

type Parser struct {
	ResponseStaggerMS int `json:"response_stagger_ms"`
}

type Commands struct {
	Permissions map[string]string `json:"permissions"` // команда -> id тира
	Disabled    []string          `json:"disabled"`
}

type Points struct {
	Name string `json:"name"`
}

type Cooldown struct {
	NotifyAsWhisper bool `json:"notify_as_whisper"`
	NotifyInChat    bool `json:"notify_in_chat"`
}

type Moderation struct {
	Links       map[string]*LinksSettings       `json:"links"` // ключ - id тира
	Symbols     map[string]*SymbolsSettings     `json:"symbols"`
	LongMessage map[string]*LongMessageSettings `json:"long_message"`
	Caps        map[string]*CapsSettings        `json:"caps"`
	Spam        map[string]*SpamSettings        `json:"spam"`
	Color       map[string]*ColorSettings       `json:"color"`
	Emotes      map[string]*EmotesSettings      `json:"emotes"`
	Blacklist   map[string]*BlacklistSettings   `json:"blacklist"`

	Exemptions map[string]domain.Exemptions `json:"exemptions"` // ключ - имя фильтра
	Warnings   Warnings                     `json:"warnings"`

	WhitelistPhrases   []string `json:"whitelist_phrases"`
	BlacklistPhrases   []string `json:"blacklist_phrases"`
	SongRequestCommand string   `json:"song_request_command"`
}

type Warnings struct {
	Allowed int `json:"allowed"`
	// ShouldTimeout - предупреждение выдается таймаутом на 1 секунду.
	ShouldTimeout bool `json:"should_timeout"`
	Announce      bool `json:"announce"`
	// AnnounceTimeouts - писать в чат о полноценных таймаутах.
	AnnounceTimeouts bool `json:"announce_timeouts"`
}

type LinksSettings struct {
	Enabled       bool `json:"enabled"`
	IncludeSpaces bool `json:"include_spaces"`
	IncludeClips  bool `json:"include_clips"`
	Timeout       int  `json:"timeout"`
}

type SymbolsSettings struct {
	Enabled        bool `json:"enabled"`
	TriggerLength  int  `json:"trigger_length"`
	MaxConsecutive int  `json:"max_consecutive"`
	MaxPercent     int  `json:"max_percent"`
	Timeout        int  `json:"timeout"`
}

type LongMessageSettings struct {
	Enabled       bool `json:"enabled"`
	TriggerLength int  `json:"trigger_length"`
	Timeout       int  `json:"timeout"`
}

type CapsSettings struct {
	Enabled       bool `json:"enabled"`
	TriggerLength int  `json:"trigger_length"`
	MaxPercent    int  `json:"max_percent"`
	Timeout       int  `json:"timeout"`
}

type SpamSettings struct {
	Enabled       bool `json:"enabled"`
	TriggerLength int  `json:"trigger_length"`
	MaxLength     int  `json:"max_length"`
	Timeout       int  `json:"timeout"`
}

type ColorSettings struct {
	Enabled bool `json:"enabled"`
	Timeout int  `json:"timeout"`
}

type EmotesSettings struct {
	Enabled         bool `json:"enabled"`
	EmojisAreEmotes bool `json:"emojis_are_emotes"`
	MaxCount        int  `json:"max_count"`
	Timeout         int  `json:"timeout"`
}

type BlacklistSettings struct {
	Enabled bool `json:"enabled"`
	Timeout int  `json:"timeout"`
}
