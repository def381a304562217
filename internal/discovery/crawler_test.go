package discovery_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/cayfen/webscan/internal/discovery"
	"github.com/cayfen/webscan/internal/probe"
	"github.com/cayfen/webscan/internal/testutil"
)

func htmlResponse(body string) testutil.DummyResponse {
	return testutil.DummyResponse{
		Body:    body,
		Headers: http.Header{"Content-Type": []string{"text/html"}},
	}
}

func newCrawler(wc *testutil.DummyWebClient) *discovery.Crawler {
	client := probe.NewClient(wc, 1000, 100, &testutil.DummyLogger{})
	return discovery.NewCrawler(client, &testutil.DummyLogger{})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestCrawl_FollowsSameHostLinks(t *testing.T) {
	t.Parallel()

	wc := &testutil.DummyWebClient{
		Responses: map[string]testutil.DummyResponse{
			"http://site.test/": htmlResponse(
				`<a href="/page1">1</a> <a href="/page2?id=5">2</a> <a href="http://other.test/x">ext</a>`),
			"http://site.test/page1":      htmlResponse(`<a href="/page3">3</a>`),
			"http://site.test/page2?id=5": htmlResponse(`no links`),
			"http://site.test/page3":      htmlResponse(`end`),
		},
	}

	pages, err := newCrawler(wc).Crawl(context.Background(), "http://site.test/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"http://site.test/",
		"http://site.test/page1",
		"http://site.test/page2?id=5",
		"http://site.test/page3",
	} {
		if !contains(pages.All, want) {
			t.Errorf("expected %s in crawl, got %v", want, pages.All)
		}
	}
	if contains(pages.All, "http://other.test/x") {
		t.Error("crawl left the target host")
	}
	if !contains(pages.ParamURLs, "http://site.test/page2?id=5") {
		t.Errorf("expected parameterized URL collected, got %v", pages.ParamURLs)
	}
}

func TestCrawl_RespectsMaxDepth(t *testing.T) {
	t.Parallel()

	wc := &testutil.DummyWebClient{
		Responses: map[string]testutil.DummyResponse{
			"http://deep.test/":   htmlResponse(`<a href="/d1">x</a>`),
			"http://deep.test/d1": htmlResponse(`<a href="/d2">x</a>`),
			"http://deep.test/d2": htmlResponse(`<a href="/d3">x</a>`),
			"http://deep.test/d3": htmlResponse(`<a href="/d4">x</a>`),
		},
	}
	c := newCrawler(wc)
	c.MaxDepth = 2

	pages, err := c.Crawl(context.Background(), "http://deep.test/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !contains(pages.All, "http://deep.test/d2") {
		t.Errorf("depth-2 page missing: %v", pages.All)
	}
	if contains(pages.All, "http://deep.test/d3") {
		t.Errorf("crawl exceeded max depth: %v", pages.All)
	}
}

func TestCrawl_RespectsMaxPages(t *testing.T) {
	t.Parallel()

	responses := map[string]testutil.DummyResponse{
		"http://wide.test/": htmlResponse(
			`<a href="/p1">1</a><a href="/p2">2</a><a href="/p3">3</a><a href="/p4">4</a><a href="/p5">5</a>`),
	}
	wc := &testutil.DummyWebClient{Responses: responses}
	c := newCrawler(wc)
	c.MaxPages = 3

	pages, err := c.Crawl(context.Background(), "http://wide.test/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages.All) > 3 {
		t.Errorf("expected at most 3 pages, got %d: %v", len(pages.All), pages.All)
	}
}

func TestCrawl_SkipsNonHTML(t *testing.T) {
	t.Parallel()

	wc := &testutil.DummyWebClient{
		Responses: map[string]testutil.DummyResponse{
			"http://api.test/": {
				Body:    `{"link": "http://api.test/other"}`,
				Headers: http.Header{"Content-Type": []string{"application/json"}},
			},
		},
	}

	pages, err := newCrawler(wc).Crawl(context.Background(), "http://api.test/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages.All) != 1 {
		t.Errorf("expected only the root page, got %v", pages.All)
	}
}
