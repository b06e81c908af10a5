package render

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RSS 2.0 feed of the posts section. Timestamps come from content dates, not
// the wall clock, so an unchanged site produces an unchanged feed.

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description,omitempty"`
}

const feedSize = 20

func writeFeed(outDir string, site *SiteView) error {
	channel := rssChannel{
		Title:       site.Title,
		Link:        site.BaseURL,
		Description: site.Description,
	}

	posts := site.Posts
	if len(posts) > feedSize {
		posts = posts[:feedSize]
	}
	for _, post := range posts {
		link := absoluteURL(site.BaseURL, post.Permalink)
		channel.Items = append(channel.Items, rssItem{
			Title:       post.Title,
			Link:        link,
			GUID:        link,
			PubDate:     post.Date.Format(time.RFC1123Z),
			Description: post.Description,
		})
	}
	if len(posts) > 0 {
		channel.LastBuildDate = posts[0].Date.Format(time.RFC1123Z)
	}

	return writeXML(filepath.Join(outDir, "feed.xml"), rssFeed{Version: "2.0", Channel: channel})
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func writeSitemap(outDir string, site *SiteView) error {
	set := urlSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, page := range site.Pages {
		u := sitemapURL{Loc: absoluteURL(site.BaseURL, page.Permalink)}
		if !page.Date.IsZero() {
			u.LastMod = page.Date.Format("2006-01-02")
		}
		set.URLs = append(set.URLs, u)
	}
	return writeXML(filepath.Join(outDir, "sitemap.xml"), set)
}

func writeXML(path string, v any) error {
	data, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	out := append([]byte(xml.Header), data...)
	out = append(out, '\n')
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func absoluteURL(baseURL, permalink string) string {
	return strings.TrimSuffix(baseURL, "/") + permalink
}
