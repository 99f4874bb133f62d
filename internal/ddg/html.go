package ddg

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dwizi/autobot/internal/boterr"
)

const adLinkMarker = "https://duckduckgo.com/y.js?ad_provider"

// FirstLink posts query to the HTML results page and returns the first organic
// result link. When the page redirects (a "!bang" query) the final URL is the
// answer. An empty link with a nil error means there were no results.
func (c *Client) FirstLink(ctx context.Context, query string) (string, error) {
	form := url.Values{}
	form.Set("q", query)
	form.Set("d", "")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.htmlURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", boterr.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "autobot/0.1")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", boterr.ErrTransport, err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return "", fmt.Errorf("%w: search page returned status %d: %s", boterr.ErrTransport, res.StatusCode, strings.TrimSpace(string(body)))
	}
	if res.Request != nil && res.Request.URL != nil && res.Request.URL.String() != req.URL.String() {
		return res.Request.URL.String(), nil
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return "", fmt.Errorf("%w: parse search page: %v", boterr.ErrTransport, err)
	}
	return firstResultLink(doc), nil
}

func firstResultLink(doc *goquery.Document) string {
	link := ""
	doc.Find("a.result__a").EachWithBreak(func(_ int, selection *goquery.Selection) bool {
		href, ok := selection.Attr("href")
		if !ok || strings.TrimSpace(href) == "" || strings.Contains(href, adLinkMarker) {
			return true
		}
		link = href
		return false
	})
	return link
}
