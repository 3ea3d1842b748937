package template

import (
	"chatcore/internal/app/infrastructure/config"
	"chatcore/internal/app/ports"
	"fmt"
	"sort"
	"strings"
)

var _ ports.Translator = (*Translator)(nil)

// Translator - каталог сообщений бота; ключи переопределяются через translations в конфиге.
type Translator struct {
	manager *config.Manager
	catalog map[string]string
}

func NewTranslator(manager *config.Manager) *Translator {
	return &Translator{manager: manager, catalog: defaultCatalog}
}

func (t *Translator) Translate(key string) string {
	if t.manager != nil {
		if v, ok := t.manager.Get().Translations[key]; ok && v != "" {
			return v
		}
	}
	if v, ok := t.catalog[key]; ok {
		return v
	}
	return key
}

// Prepare подставляет vars вместо $name; длинные имена заменяются первыми ($count до $co).
func (t *Translator) Prepare(key string, vars map[string]any) string {
	text := t.Translate(key)

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	for _, name := range names {
		text = strings.ReplaceAll(text, "$"+name, fmt.Sprint(vars[name]))
	}
	return text
}

// Keys возвращает все ключи каталога, для админки.
func (t *Translator) Keys() []string {
	keys := make([]string, 0, len(t.catalog))
	for k := range t.catalog {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
