package moderation

import (
	"chatcore/internal/app/infrastructure/storage"
	"github.com/dlclark/regexp2"
	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
	"strings"
	"time"
	"unicode/utf8"
)

const matchTimeout = 250 * time.Millisecond

var (
	schemeRe       = mustCompile(`https?://\S+`)
	domainRe       = mustCompile(`(?<![\p{L}\p{N}_.-])(?:[\p{L}\p{N}-]+\.)+[\p{L}\p{N}-]+`)
	spacedDomainRe = mustCompile(`(?<![\p{L}\p{N}_.-])(?:[\p{L}\p{N}-]+\s*\.\s*)+[\p{L}\p{N}-]+`)
	// точка сразу после слова с пробелом за ней - конец предложения
	sentenceBreak = mustCompile(`(?<=[^\s.])\.\s+`)
	clipRe        = mustCompile(`(?:https?://)?(?:clips\.twitch\.tv/\S+|(?:www\.|m\.)?twitch\.tv/\w+/clip/\S+)`)
	songRe        = mustCompile(`(?:https?://)?(?:(?:www\.|m\.|music\.)?youtube\.com/(?:watch\?\S*|shorts/\S+)|youtu\.be/\S+|open\.spotify\.com/\S+)`)
	repeatRe      = mustCompile(`(.+)(\1+)`)
)

// isTLD сверяет метку с доменами верхнего уровня из ICANN-раздела списка публичных суффиксов.
func isTLD(label string) bool {
	if utf8.RuneCountInString(label) < 2 {
		return false
	}

	ascii, err := idna.Lookup.ToASCII(strings.ToLower(label))
	if err != nil || ascii == "" {
		return false
	}

	suffix, icann := publicsuffix.PublicSuffix(ascii)
	return icann && suffix == ascii
}

// containsTLD ищет в кандидате метку, которая является доменом верхнего уровня.
// Проверяются все метки справа налево, так что google.com.evil тоже ссылка.
func containsTLD(candidate string, spaced bool) (bool, error) {
	parts := []string{candidate}
	if spaced {
		split, err := sentenceBreak.Replace(candidate, "\n", -1, -1)
		if err != nil {
			return false, err
		}
		parts = strings.Split(split, "\n")
	}

	for _, part := range parts {
		labels := strings.Split(strings.Join(strings.Fields(part), ""), ".")
		for i := len(labels) - 1; i >= 1; i-- {
			if isTLD(labels[i]) {
				return true, nil
			}
		}
	}
	return false, nil
}

func mustCompile(pattern string) *regexp2.Regexp {
	re := regexp2.MustCompile(pattern, regexp2.IgnoreCase)
	re.MatchTimeout = matchTimeout
	return re
}

// compilePhrase строит выражение для фразы белого или черного списка:
// * - любая последовательность непробельных символов, + - хотя бы один такой символ.
// Фраза совпадает только целыми словами.
func compilePhrase(phrase string) (*regexp2.Regexp, error) {
	var b strings.Builder
	b.WriteString(`(?<![\p{L}\p{N}_])`)
	for _, r := range strings.TrimSpace(phrase) {
		switch r {
		case '*':
			b.WriteString(`\S*`)
		case '+':
			b.WriteString(`\S+`)
		default:
			b.WriteString(regexp2.Escape(string(r)))
		}
	}
	b.WriteString(`(?![\p{L}\p{N}_])`)

	re, err := regexp2.Compile(b.String(), regexp2.IgnoreCase)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = matchTimeout
	return re, nil
}

// compileDomain - любой URL на домене или его поддоменах.
func compileDomain(domain string) (*regexp2.Regexp, error) {
	pattern := `(?<![\w.-])(?:https?://)?(?:[\w-]+\.)*` + regexp2.Escape(strings.ToLower(strings.TrimSpace(domain))) + `(?![\w-])(?:[/?#]\S*)?`

	re, err := regexp2.Compile(pattern, regexp2.IgnoreCase)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = matchTimeout
	return re, nil
}

type compiled struct {
	re  *regexp2.Regexp
	err error
}

// patterns кеширует скомпилированные фразы из конфига.
type patterns struct {
	cache *storage.Cache[string, compiled]
}

func newPatterns() *patterns {
	return &patterns{cache: storage.NewCache[string, compiled](512, time.Hour, storage.ExpireAfterAccess)}
}

func (p *patterns) phrase(src string) (*regexp2.Regexp, error) {
	return p.get("phrase:"+src, func() (*regexp2.Regexp, error) { return compilePhrase(src) })
}

func (p *patterns) domain(src string) (*regexp2.Regexp, error) {
	return p.get("domain:"+src, func() (*regexp2.Regexp, error) { return compileDomain(src) })
}

func (p *patterns) get(key string, build func() (*regexp2.Regexp, error)) (*regexp2.Regexp, error) {
	if c, ok := p.cache.Get(key); ok {
		return c.re, c.err
	}

	re, err := build()
	p.cache.Set(key, compiled{re: re, err: err})
	return re, err
}

func remove(re *regexp2.Regexp, text string) (string, error) {
	out, err := re.Replace(text, " ", -1, -1)
	if err != nil {
		return text, err
	}
	return out, nil
}
