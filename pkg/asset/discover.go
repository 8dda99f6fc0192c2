package asset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
)

// Discover fetches pageURL and builds a manifest from the media it
// references: img, video, audio and source elements, poster frames, and
// <link rel="preload"> hints. URLs are resolved against the page, limited to
// the page's host, and deduplicated in document order.
func Discover(ctx context.Context, client *http.Client, pageURL string) ([]Descriptor, error) {
	if client == nil {
		client = http.DefaultClient
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing page URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching page: bad status: %s", resp.Status)
	}

	return discoverFrom(resp.Body, base)
}

func discoverFrom(r io.Reader, base *url.URL) ([]Descriptor, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}

	var found []Descriptor
	add := func(kind Kind, ref string) {
		ref = strings.TrimSpace(ref)
		if ref == "" || strings.HasPrefix(ref, "data:") || strings.HasPrefix(ref, "blob:") {
			return
		}
		u, err := url.Parse(ref)
		if err != nil {
			return
		}
		abs := base.ResolveReference(u)
		if abs.Hostname() != base.Hostname() {
			return
		}
		abs.Fragment = ""
		found = append(found, Descriptor{Kind: kind, URL: abs.String()})
	}

	var f func(n *html.Node, parent Kind, inMedia bool)
	f = func(n *html.Node, parent Kind, inMedia bool) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "img":
				add(Image, attr(n, "src"))
			case "video":
				add(Image, attr(n, "poster"))
				add(Video, attr(n, "src"))
				parent, inMedia = Video, true
			case "audio":
				add(Audio, attr(n, "src"))
				parent, inMedia = Audio, true
			case "source":
				if inMedia {
					add(parent, attr(n, "src"))
				} else if kind, ok := kindFromType(attr(n, "type")); ok {
					add(kind, attr(n, "src"))
				} else if kind, ok := KindFromPath(attr(n, "src")); ok {
					add(kind, attr(n, "src"))
				}
			case "link":
				if strings.EqualFold(attr(n, "rel"), "preload") {
					if kind, ok := kindFromAs(attr(n, "as")); ok {
						add(kind, attr(n, "href"))
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c, parent, inMedia)
		}
	}
	f(doc, Image, false)

	return Dedupe(found), nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func kindFromAs(as string) (Kind, bool) {
	switch strings.ToLower(as) {
	case "image":
		return Image, true
	case "video":
		return Video, true
	case "audio":
		return Audio, true
	}
	return 0, false
}

func kindFromType(mime string) (Kind, bool) {
	major, _, _ := strings.Cut(strings.ToLower(mime), "/")
	return kindFromAs(major)
}

// KindFromPath guesses an asset kind from a URL's file extension.
func KindFromPath(p string) (Kind, bool) {
	if u, err := url.Parse(p); err == nil {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".tif", ".tiff":
		return Image, true
	case ".mp4", ".webm", ".mov", ".m4v", ".ogv":
		return Video, true
	case ".wav", ".mp3", ".ogg", ".oga", ".m4a", ".flac", ".aac":
		return Audio, true
	}
	return 0, false
}
