package ports

type Translator interface {
	Translate(key string) string
	Prepare(key string, vars map[string]any) string
}
