package resolver

import (
	"math/rand/v2"
	"net/http"
	"sync"
)

// userAgents is a fixed pool of current desktop browser strings. Rotation
// reduces trivial blocking; it is not an evasion guarantee.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
}

var referers = []string{
	"https://www.google.com/",
	"https://yandex.ru/",
	"https://www.wildberries.ru/",
	"https://www.ozon.ru/",
}

// headerSource picks browser-like headers with an injected random source so
// tests can pin the choice.
type headerSource struct {
	mu   sync.Mutex
	rand *rand.Rand
}

func newHeaderSource(r *rand.Rand) *headerSource {
	return &headerSource{rand: r}
}

// Apply sets rotating browser headers on req.
func (h *headerSource) Apply(req *http.Request) {
	h.mu.Lock()
	ua := userAgents[h.rand.IntN(len(userAgents))]
	ref := referers[h.rand.IntN(len(referers))]
	h.mu.Unlock()

	req.Header.Set("User-Agent", ua)
	req.Header.Set("Referer", ref)
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en;q=0.6")
	req.Header.Set("Accept", "application/json, text/plain, */*")
}
