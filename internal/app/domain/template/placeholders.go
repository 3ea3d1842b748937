package template

import (
	"chatcore/internal/app/infrastructure/config"
	"chatcore/internal/app/ports"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
)

var (
	randintRe  = regexp.MustCompile(`\{randint\s+(-?\d+)\s+(-?\d+)\s*\}`)
	variableRe = regexp.MustCompile(`\$(_?[A-Za-z][A-Za-z0-9_]*)`)
)

// Vars - значения для подстановки в ответ команды.
type Vars struct {
	Sender string
	Param  string
	Count  int64
}

// Renderer заполняет плейсхолдеры ответов: $sender, $param, $touser, $channel,
// $count, $_name и {randint a b}.
type Renderer struct {
	manager *config.Manager
	stream  ports.StreamPort
	randInt func(n int) int
}

func NewRenderer(manager *config.Manager, stream ports.StreamPort) *Renderer {
	return &Renderer{
		manager: manager,
		stream:  stream,
		randInt: rand.IntN,
	}
}

func (r *Renderer) Render(text string, v Vars) string {
	text = randintRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := randintRe.FindStringSubmatch(m)
		lo, err1 := strconv.Atoi(sub[1])
		hi, err2 := strconv.Atoi(sub[2])
		if err1 != nil || err2 != nil {
			return m
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		return strconv.Itoa(lo + r.randInt(hi-lo+1))
	})

	return variableRe.ReplaceAllStringFunc(text, func(m string) string {
		name := m[1:]
		switch name {
		case "sender":
			return "@" + v.Sender
		case "param":
			return v.Param
		case "touser":
			return "@" + toUser(v)
		case "channel":
			if r.stream == nil {
				return ""
			}
			return r.stream.ChannelName()
		case "count":
			return strconv.FormatInt(v.Count, 10)
		}

		if strings.HasPrefix(name, "_") && r.manager != nil {
			if val, ok := r.manager.Get().Variables[name[1:]]; ok {
				return val
			}
		}
		return m
	})
}

// toUser - первое слово параметра без "@", иначе сам отправитель.
func toUser(v Vars) string {
	if fields := strings.Fields(v.Param); len(fields) > 0 {
		return strings.TrimPrefix(fields[0], "@")
	}
	return v.Sender
}
