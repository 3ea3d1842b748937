package trie

import "strings"

// Trie - префиксное дерево по словам: ключ "good morning" матчит только целые слова подряд.
type Trie[T any] struct {
	root *node[T]
}

type node[T any] struct {
	children map[string]*node[T]
	value    *T
	key      string
}

func newNode[T any]() *node[T] {
	return &node[T]{children: make(map[string]*node[T])}
}

func New[T any](m map[string]T) *Trie[T] {
	t := &Trie[T]{}
	t.Update(m)
	return t
}

// Update полностью пересобирает дерево. Ключи сравниваются без учета регистра.
func (t *Trie[T]) Update(m map[string]T) {
	root := newNode[T]()
	for k, v := range m {
		words := strings.Fields(strings.ToLower(k))
		if len(words) == 0 {
			continue
		}

		cur := root
		for _, w := range words {
			if cur.children[w] == nil {
				cur.children[w] = newNode[T]()
			}
			cur = cur.children[w]
		}
		cur.value = new(T)
		*cur.value = v
		cur.key = strings.Join(words, " ")
	}
	t.root = root
}

func (t *Trie[T]) Empty() bool {
	return len(t.root.children) == 0
}

// FindAll возвращает значения всех ключей, встретившихся в words, каждый ключ один раз,
// в порядке первого вхождения.
func (t *Trie[T]) FindAll(words []string) []T {
	lower := make([]string, len(words))
	for i, w := range words {
		lower[i] = strings.ToLower(w)
	}

	var out []T
	seen := make(map[string]struct{})
	for i := range lower {
		cur := t.root
		for j := i; j < len(lower); j++ {
			next, ok := cur.children[lower[j]]
			if !ok {
				break
			}
			cur = next
			if cur.value == nil {
				continue
			}
			if _, dup := seen[cur.key]; dup {
				continue
			}
			seen[cur.key] = struct{}{}
			out = append(out, *cur.value)
		}
	}
	return out
}
