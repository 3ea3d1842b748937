package moderation

import (
	"chatcore/internal/app/domain/message"
	"chatcore/internal/app/infrastructure/config"
	"strings"
	"unicode"
	"unicode/utf8"
)

// percent - доля part от total в процентах с округлением вверх.
func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return (part*100 + total - 1) / total
}

func hasLink(text string, s *config.LinksSettings) (bool, error) {
	if ok, err := schemeRe.MatchString(text); ok || err != nil {
		return ok, err
	}

	re := domainRe
	if s.IncludeSpaces {
		re = spacedDomainRe
	}

	m, err := re.FindStringMatch(text)
	for m != nil && err == nil {
		ok, cerr := containsTLD(m.String(), s.IncludeSpaces)
		if ok || cerr != nil {
			return ok, cerr
		}
		m, err = re.FindNextMatch(m)
	}
	return false, err
}

func isSymbol(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

func tooManySymbols(text string, s *config.SymbolsSettings) bool {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < s.TriggerLength {
		return false
	}

	var total, symbols, run, longest int
	for _, r := range text {
		if unicode.IsSpace(r) {
			run = 0
			continue
		}

		total++
		if !isSymbol(r) {
			run = 0
			continue
		}

		symbols++
		run++
		longest = max(longest, run)
	}

	if s.MaxConsecutive > 0 && longest >= s.MaxConsecutive {
		return true
	}
	return s.MaxPercent > 0 && percent(symbols, total) >= s.MaxPercent
}

func tooLong(text string, s *config.LongMessageSettings) bool {
	return s.TriggerLength > 0 && utf8.RuneCountInString(strings.TrimSpace(text)) >= s.TriggerLength
}

// tooManyCaps считает долю заглавных среди букв; слова-эмоуты отправителя не учитываются.
func tooManyCaps(text string, emotes map[string]struct{}, s *config.CapsSettings) bool {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < s.TriggerLength {
		return false
	}

	var letters, upper int
	for _, word := range strings.Fields(text) {
		if _, ok := emotes[word]; ok {
			continue
		}
		for _, r := range word {
			if !unicode.IsLetter(r) {
				continue
			}
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	return letters > 0 && percent(upper, letters) >= s.MaxPercent
}

// repeatedRun - длина самого длинного повтора вида "abab" или "aaaa" в рунах.
func repeatedRun(text string) (int, error) {
	longest := 0
	m, err := repeatRe.FindStringMatch(text)
	for m != nil && err == nil {
		longest = max(longest, utf8.RuneCountInString(m.String()))
		m, err = repeatRe.FindNextMatch(m)
	}
	return longest, err
}

func isSpam(text string, s *config.SpamSettings) (bool, error) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < s.TriggerLength {
		return false, nil
	}

	run, err := repeatedRun(text)
	if err != nil {
		return false, err
	}
	return s.MaxLength > 0 && run >= s.MaxLength, nil
}

func tooManyEmotes(msg *message.ChatMessage, text string, s *config.EmotesSettings) bool {
	count := msg.EmoteCount()
	if s.EmojisAreEmotes {
		count += countEmoji(text)
	}
	return count > s.MaxCount
}
