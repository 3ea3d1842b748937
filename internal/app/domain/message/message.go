package message

import (
	"strings"
	"sync"
	"time"
	"unicode"
)

type Badges struct {
	Broadcaster bool
	Moderator   bool
	Subscriber  bool
	VIP         bool
}

type Sender struct {
	UserID      string
	Username    string
	DisplayName string
	Badges      Badges
	// IsFollower заполняется транспортом, если известно заранее.
	IsFollower *bool
}

func (s Sender) Name() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Username
}

type Emote struct {
	ID    string
	Name  string
	Count int
}

type ChatMessage struct {
	ID         string
	Channel    string
	Sender     Sender
	Text       *Text
	Emotes     []Emote
	IsAction   bool // отправлено через /me
	IsWhisper  bool
	ReceivedAt time.Time
}

func New(sender Sender, text string) *ChatMessage {
	return &ChatMessage{
		Sender:     sender,
		Text:       NewText(text),
		ReceivedAt: time.Now(),
	}
}

// WithText копирует сообщение с другим текстом (алиасы переписывают сообщение).
func (m *ChatMessage) WithText(text string) *ChatMessage {
	cp := *m
	cp.Text = NewText(text)
	return &cp
}

func (m *ChatMessage) EmoteCount() int {
	total := 0
	for _, e := range m.Emotes {
		if e.Count <= 0 {
			total++
			continue
		}
		total += e.Count
	}
	return total
}

func (m *ChatMessage) EmoteNames() map[string]struct{} {
	names := make(map[string]struct{}, len(m.Emotes))
	for _, e := range m.Emotes {
		names[e.Name] = struct{}{}
	}
	return names
}

type Text struct {
	Original string

	mu         sync.Mutex
	cacheText  map[uint64]string
	cacheWords map[uint64][]string
}

func NewText(original string) *Text {
	return &Text{Original: original}
}

type TextOption struct {
	Fn func(string) string
	ID uint64
}

var LowerOption = TextOption{
	Fn: strings.ToLower,
	ID: 1,
}

var RemovePunctuationOption = TextOption{
	Fn: removePunctuation,
	ID: 2,
}

var TrimOption = TextOption{
	Fn: strings.TrimSpace,
	ID: 3,
}

func optionsKey(opts []TextOption) uint64 {
	var key uint64
	for _, opt := range opts {
		key = key*31 + opt.ID
	}
	return key
}

func (t *Text) Text(opts ...TextOption) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.textLocked(opts)
}

func (t *Text) textLocked(opts []TextOption) string {
	if t.cacheText == nil {
		t.cacheText = make(map[uint64]string)
	}

	key := optionsKey(opts)
	if val, ok := t.cacheText[key]; ok {
		return val
	}

	result := removeInvisibleRunes(t.Original)
	for _, opt := range opts {
		result = opt.Fn(result)
	}

	t.cacheText[key] = result
	return result
}

func (t *Text) Words(opts ...TextOption) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cacheWords == nil {
		t.cacheWords = make(map[uint64][]string)
	}

	key := optionsKey(opts)
	if val, ok := t.cacheWords[key]; ok {
		return val
	}

	result := strings.Fields(t.textLocked(opts))
	t.cacheWords[key] = result
	return result
}

func (t *Text) Lower() string {
	return t.Text(LowerOption)
}

func removePunctuation(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	atWordStart := true
	lastWasSpace := false

	for _, r := range s {
		if atWordStart {
			atWordStart = false
			if r == '!' {
				b.WriteRune(r)
				continue
			}
		}

		if unicode.IsSpace(r) {
			atWordStart = true
			if b.Len() != 0 {
				lastWasSpace = true
			}
			continue
		}

		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			if lastWasSpace {
				b.WriteRune(' ')
				lastWasSpace = false
			}
			b.WriteRune(r)
		}
	}

	return b.String()
}

func isInvisibleRune(r rune) bool {
	switch {
	case r == '\t' || r == '\n':
		return false
	case r <= 0x001F, r == 0x007F, r >= 0x0080 && r <= 0x009F:
		return true
	case r >= 0x200B && r <= 0x200F, r >= 0x202A && r <= 0x202E, r >= 0x2060 && r <= 0x206F:
		return true
	case r == 0xFEFF, r == 0x180E:
		return true
	case r >= 0xFE00 && r <= 0xFE0F: // variation selectors
		return true
	case r >= 0xE0000 && r <= 0xE01EF: // tags + supplement selectors
		return true
	}
	return false
}

func removeInvisibleRunes(s string) string {
	idx := strings.IndexFunc(s, isInvisibleRune)
	if idx == -1 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	b.WriteString(s[:idx])
	for _, r := range s[idx:] {
		if isInvisibleRune(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
