package tools

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	fetchTimeout   = 15 * time.Second
	fetchUserAgent = "Mozilla/5.0 (compatible; KimiCLI/1.0)"
	fetchMaxChars  = 4000
	fetchMaxBody   = 2 << 20 // 2MB read cap
)

var (
	scriptRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	tagRe    = regexp.MustCompile(`<[^>]+>`)
	spaceRe  = regexp.MustCompile(`\s+`)
)

// FetchURL retrieves a URL, strips HTML down to readable text, and caps
// the result so a huge page never floods the conversation.
func (k *Toolkit) FetchURL(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, fetchMaxBody))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}

	text := StripHTML(string(body))
	if len(text) > fetchMaxChars {
		text = text[:fetchMaxChars] + "..."
	}
	if resp.StatusCode >= 400 {
		return fmt.Sprintf("[HTTP %d]\n%s", resp.StatusCode, text), nil
	}
	return text, nil
}

// StripHTML reduces an HTML document to whitespace-normalized text.
func StripHTML(raw string) string {
	text := scriptRe.ReplaceAllString(raw, "")
	text = styleRe.ReplaceAllString(text, "")
	text = tagRe.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
