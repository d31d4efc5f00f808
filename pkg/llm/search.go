package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/Haithedotai/core/pkg/knowledge"
)

// DuckDuckGoEndpoint is the HTML search front end queried by DuckDuckGo.
const DuckDuckGoEndpoint = "https://html.duckduckgo.com/html/"

// SearchSource labels web results when they are attached as knowledge.
const SearchSource = "web-search"

// SearchResult is one web search hit.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Searcher runs a web search for a prompt.
type Searcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// DuckDuckGo searches the DuckDuckGo HTML endpoint.
type DuckDuckGo struct {
	Endpoint   string
	MaxResults int
	HTTPClient *http.Client
}

// NewDuckDuckGo returns a searcher returning at most 5 results.
func NewDuckDuckGo(httpClient *http.Client) *DuckDuckGo {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &DuckDuckGo{Endpoint: DuckDuckGoEndpoint, MaxResults: 5, HTTPClient: httpClient}
}

// Search implements Searcher.
func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]SearchResult, error) {
	searchURL := d.Endpoint + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}
	return parseResults(doc, d.MaxResults), nil
}

func parseResults(doc *html.Node, max int) []SearchResult {
	var results []SearchResult

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(results) >= max {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" {
			class := attr(n, "class")
			if strings.Contains(class, "result") && strings.Contains(class, "results_links") {
				if r := extractResult(n); r.URL != "" && r.Title != "" {
					results = append(results, r)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return results
}

func extractResult(n *html.Node) SearchResult {
	var r SearchResult

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			class := attr(n, "class")
			switch {
			case strings.Contains(class, "result__a"):
				r.URL = attr(n, "href")
				r.Title = textContent(n)
			case strings.Contains(class, "result__snippet"):
				r.Snippet = textContent(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	// result links go through a redirect carrying the target in uddg
	const redirect = "//duckduckgo.com/l/?uddg="
	if strings.HasPrefix(r.URL, redirect) {
		if decoded, err := url.QueryUnescape(strings.TrimPrefix(r.URL, redirect)); err == nil {
			if idx := strings.Index(decoded, "&"); idx > 0 {
				decoded = decoded[:idx]
			}
			r.URL = decoded
		}
	}
	return r
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				sb.WriteString(t)
				sb.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

// ResultsDocument renders search results as a knowledge document.
func ResultsDocument(query string, results []SearchResult) knowledge.Document {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Web search results for %q:", query)
	for i, r := range results {
		fmt.Fprintf(&sb, "\n%d. %s (%s)", i+1, r.Title, r.URL)
		if r.Snippet != "" {
			sb.WriteString("\n   ")
			sb.WriteString(r.Snippet)
		}
	}
	return knowledge.Document{Source: SearchSource, Text: sb.String()}
}
