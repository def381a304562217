// Package discovery implements the same-host crawl a full scan runs to find
// additional pages and parameterized URLs for the injection families.
package discovery

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/cayfen/webscan/internal/logging"
	"github.com/cayfen/webscan/internal/probe"
	"github.com/cayfen/webscan/internal/urlutil"
)

const (
	crawlTimeout = 5 * time.Second

	// DefaultMaxDepth keeps the crawl shallow; a full scan maps entry
	// points, it does not mirror the site.
	DefaultMaxDepth = 2

	// DefaultMaxPages bounds total pages fetched regardless of depth.
	DefaultMaxPages = 20
)

// Crawler walks same-host links breadth-first from the target up to MaxDepth
// and MaxPages.
type Crawler struct {
	MaxDepth int
	MaxPages int

	client *probe.Client
	logger logging.Logger
}

// Pages is a crawl result: every fetched page URL plus the subset carrying a
// query string, which the injection families test.
type Pages struct {
	All       []string
	ParamURLs []string
}

func NewCrawler(client *probe.Client, logger logging.Logger) *Crawler {
	return &Crawler{
		MaxDepth: DefaultMaxDepth,
		MaxPages: DefaultMaxPages,
		client:   client,
		logger:   logger.With(logging.Field{Key: "component", Value: "discovery"}),
	}
}

// Crawl walks from root. Fetch errors on individual pages are logged and
// skipped; the crawl itself only fails on an invalid root.
func (c *Crawler) Crawl(ctx context.Context, root string) (Pages, error) {
	rootURL, err := url.Parse(root)
	if err != nil {
		return Pages{}, fmt.Errorf("parse crawl root %q: %w", root, err)
	}

	depth := map[string]int{root: 0}
	queue := []string{root}

	var pages Pages
	for i := 0; i < len(queue) && i < c.MaxPages; i++ {
		if ctx.Err() != nil {
			break
		}
		page := queue[i]
		pages.All = append(pages.All, page)
		if u, err := url.Parse(page); err == nil && u.RawQuery != "" {
			pages.ParamURLs = append(pages.ParamURLs, page)
		}

		if depth[page] >= c.MaxDepth {
			continue
		}

		links, err := c.crawlPage(ctx, page)
		if err != nil {
			c.logger.Warn("page crawl failed",
				logging.Field{Key: "url", Value: page},
				logging.Field{Key: "error", Value: err.Error()})
			continue
		}

		for _, link := range links {
			linkURL, err := url.Parse(link)
			if err != nil || !urlutil.SameHost(rootURL, linkURL) {
				continue
			}
			if _, seen := depth[link]; seen {
				continue
			}
			depth[link] = depth[page] + 1
			queue = append(queue, link)
		}
	}

	c.logger.Debug("crawl completed",
		logging.Field{Key: "pages", Value: len(pages.All)},
		logging.Field{Key: "param_urls", Value: len(pages.ParamURLs)})
	return pages, nil
}

func (c *Crawler) crawlPage(ctx context.Context, page string) ([]string, error) {
	resp, err := c.client.Get(ctx, page, crawlTimeout)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Headers.Get("Content-Type"), "text/html") {
		return nil, nil
	}

	doc, err := html.Parse(strings.NewReader(string(resp.Body)))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", page, err)
	}

	base, err := url.Parse(page)
	if err != nil {
		return nil, err
	}

	var links []string
	extractLinks(doc, base, &links)
	return links, nil
}

// extractLinks collects href and src attributes, resolved against the page
// URL, with fragments dropped.
func extractLinks(node *html.Node, base *url.URL, links *[]string) {
	if node.Type == html.ElementNode {
		for _, attr := range node.Attr {
			if attr.Key != "href" && attr.Key != "src" {
				continue
			}
			ref, err := url.Parse(strings.TrimSpace(attr.Val))
			if err != nil {
				continue
			}
			resolved := base.ResolveReference(ref)
			if resolved.Scheme != "http" && resolved.Scheme != "https" {
				continue
			}
			resolved.Fragment = ""
			*links = append(*links, resolved.String())
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		extractLinks(child, base, links)
	}
}
