package assets

import (
	"bytes"
	"path"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// CollectStaticRefs parses rendered page HTML and returns every local
// static/ asset it references, normalized and deduplicated. External URLs,
// data URIs, and fragment links are ignored.
func CollectStaticRefs(htmlBytes []byte) []string {
	node, err := html.Parse(bytes.NewReader(htmlBytes))
	if err != nil {
		return nil
	}

	refs := make(map[string]struct{})

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			tag := strings.ToLower(n.Data)
			switch tag {
			case "link":
				addRef(refs, getAttr(n, "href"))
			case "script", "img", "source", "video", "audio", "track", "iframe", "image", "use":
				addRef(refs, getAttr(n, "src"))
				if tag == "video" {
					addRef(refs, getAttr(n, "poster"))
				}
				if srcset := getAttr(n, "srcset"); srcset != "" {
					for _, ref := range parseSrcSet(srcset) {
						addRef(refs, ref)
					}
				}
			case "meta":
				if name := strings.ToLower(getAttr(n, "property")); name == "og:image" || name == "twitter:image" {
					addRef(refs, getAttr(n, "content"))
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(node)

	list := make([]string, 0, len(refs))
	for ref := range refs {
		list = append(list, ref)
	}

	sort.Strings(list)

	return list
}

// AuditPages renders no judgment itself; it reports which static references
// across the given rendered pages are missing from the source. Used at
// startup to warn about broken asset links before any visitor hits them.
func AuditPages(src *Source, rendered map[string][]byte) []string {
	if src == nil {
		return nil
	}

	missing := make(map[string]struct{})

	for _, body := range rendered {
		for _, ref := range CollectStaticRefs(body) {
			rel := strings.TrimPrefix(ref, "static/")
			if !src.StaticExists(rel) {
				missing[ref] = struct{}{}
			}
		}
	}

	list := make([]string, 0, len(missing))
	for ref := range missing {
		list = append(list, ref)
	}

	sort.Strings(list)

	return list
}

func addRef(refs map[string]struct{}, raw string) {
	if normalized, ok := normalizeAssetPath(raw); ok {
		refs[normalized] = struct{}{}
	}
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, key) {
			return strings.TrimSpace(attr.Val)
		}
	}
	return ""
}

func parseSrcSet(srcset string) []string {
	parts := strings.Split(srcset, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Fields(part)
		if len(fields) > 0 {
			out = append(out, fields[0])
		}
	}
	return out
}

func normalizeAssetPath(p string) (string, bool) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", false
	}

	lower := strings.ToLower(p)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "//") {
		return "", false
	}
	if strings.HasPrefix(lower, "data:") || strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") {
		return "", false
	}
	if strings.HasPrefix(p, "#") {
		return "", false
	}

	if idx := strings.IndexAny(p, "?#"); idx >= 0 {
		p = p[:idx]
	}

	p = strings.TrimPrefix(p, "/")
	p = strings.TrimPrefix(p, "./")

	for strings.HasPrefix(p, "../") {
		p = strings.TrimPrefix(p, "../")
	}

	p = path.Clean(p)

	if !strings.HasPrefix(p, "static/") {
		return "", false
	}

	return p, true
}
