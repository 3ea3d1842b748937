package admin

import (
	"chatcore/internal/app/domain/errs"
	"strconv"
	"strings"
	"unicode"
)

// flagSet - разобранные аргументы вида "-p moderators -s -c !cmd -r текст ответа".
type flagSet struct {
	values     map[string]string
	bools      map[string]bool
	positional []string
}

func (f *flagSet) value(name string) string {
	return f.values[name]
}

func (f *flagSet) has(name string) bool {
	_, ok := f.values[name]
	return ok || f.bools[name]
}

// parseFlags разбирает params по известным флагам. Значение флага - все слова до
// следующего известного флага; значение rest-флага забирает остаток строки как есть.
func parseFlags(params, usage string, valueFlags, boolFlags []string, rest string) (*flagSet, error) {
	fs := &flagSet{values: make(map[string]string), bools: make(map[string]bool)}

	isValue := make(map[string]bool, len(valueFlags))
	for _, name := range valueFlags {
		isValue[name] = true
	}
	isBool := make(map[string]bool, len(boolFlags))
	for _, name := range boolFlags {
		isBool[name] = true
	}

	current := ""
	var words []string
	flush := func() {
		if current != "" {
			fs.values[current] = strings.Join(words, " ")
		}
		current, words = "", nil
	}

	for _, tok := range fields(params) {
		switch {
		case tok.text == rest:
			flush()
			if _, dup := fs.values[rest]; dup {
				return nil, errs.NewParseError(usage, "duplicate flag "+rest)
			}
			fs.values[rest] = strings.TrimSpace(params[tok.end:])
			return fs, checkValues(fs, usage)
		case isValue[tok.text]:
			flush()
			if _, dup := fs.values[tok.text]; dup {
				return nil, errs.NewParseError(usage, "duplicate flag "+tok.text)
			}
			current = tok.text
			fs.values[current] = ""
		case isBool[tok.text]:
			flush()
			fs.bools[tok.text] = true
		case current != "":
			words = append(words, tok.text)
		default:
			fs.positional = append(fs.positional, tok.text)
		}
	}
	flush()
	return fs, checkValues(fs, usage)
}

func checkValues(fs *flagSet, usage string) error {
	for name, v := range fs.values {
		if v == "" {
			return errs.NewParseError(usage, "flag "+name+" requires a value")
		}
	}
	return nil
}

type token struct {
	text string
	end  int
}

// fields - strings.Fields с позицией конца каждого слова.
func fields(s string) []token {
	var out []token
	start := -1
	for i, r := range s {
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, token{text: s[start:i], end: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, token{text: s[start:], end: len(s)})
	}
	return out
}

func parseIntArg(s, usage string, min int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errs.NewParseError(usage, strconv.Quote(s)+" is not a number")
	}
	if v < min {
		return 0, errs.NewParseError(usage, strconv.Quote(s)+" must be at least "+strconv.Itoa(min))
	}
	return v, nil
}
