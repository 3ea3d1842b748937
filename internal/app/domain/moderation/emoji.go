package moderation

const (
	zwj             = 0x200D
	variationSelect = 0xFE0F
)

var emojiRanges = [][2]rune{
	{0x1F300, 0x1F5FF}, // символы и пиктограммы
	{0x1F600, 0x1F64F}, // смайлы
	{0x1F680, 0x1F6FF}, // транспорт и карты
	{0x1F900, 0x1F9FF},
	{0x1FA70, 0x1FAFF},
	{0x2600, 0x26FF},
	{0x2700, 0x27BF},
	{0x1F1E6, 0x1F1FF}, // региональные индикаторы, флаг - пара
}

func isEmoji(r rune) bool {
	for _, rg := range emojiRanges {
		if r >= rg[0] && r <= rg[1] {
			return true
		}
	}
	return false
}

func isRegional(r rune) bool {
	return r >= 0x1F1E6 && r <= 0x1F1FF
}

// countEmoji считает эмодзи как видимые символы: последовательность через ZWJ
// и флаг из двух индикаторов - один эмодзи.
func countEmoji(s string) int {
	count := 0
	joined := false
	pendingFlag := false

	for _, r := range s {
		switch {
		case r == zwj:
			joined = true
			continue
		case r == variationSelect:
			continue
		case isRegional(r):
			if pendingFlag {
				pendingFlag = false
				joined = false
				continue
			}
			pendingFlag = true
			count++
		case isEmoji(r):
			pendingFlag = false
			if !joined {
				count++
			}
		default:
			pendingFlag = false
		}
		joined = false
	}
	return count
}
