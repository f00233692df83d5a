package tracking

import "strings"

// BotDetector filters engagement from crawlers and link scanners so
// automated prefetches don't inflate open/click counts.
type BotDetector struct {
	patterns []string
}

// NewBotDetector creates a detector with the default pattern list.
func NewBotDetector() *BotDetector {
	return &BotDetector{
		patterns: []string{
			"bot", "crawler", "spider", "slurp", "googlebot", "bingbot",
			"yahoo", "baidu", "yandex", "preview", "proxy", "scanner",
		},
	}
}

// IsBot checks if the user agent looks automated.
func (bd *BotDetector) IsBot(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, p := range bd.patterns {
		if strings.Contains(ua, p) {
			return true
		}
	}
	return false
}
