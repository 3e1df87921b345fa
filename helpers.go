package inkpress

import (
	"encoding/json"
	"net/url"
	"path"
	"strconv"
	"time"
)

// BuildURL joins a base URL with path segments.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	return u.String()
}

// PostURL returns the absolute URL of a post under the site base URL.
func PostURL(base string, p BlogPost) string {
	return BuildURL(base, "post", strconv.FormatInt(p.ID, 10))
}

// ParsePostDate parses the stored display date back into a time value.
func ParsePostDate(date string) (time.Time, bool) {
	t, err := time.Parse(postDateLayout, date)
	return t, err == nil
}

// WebsiteJsonLD returns a JSON-LD string for a WebSite schema using SiteConfig.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context":    "https://schema.org",
		"@type":       "WebSite",
		"name":        cfg.Name,
		"url":         BuildURL(cfg.URL),
		"description": cfg.Description,
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// BlogPostingJsonLD returns a JSON-LD string for a BlogPosting schema.
func BlogPostingJsonLD(post BlogPost, cfg SiteConfig) string {
	postURL := PostURL(cfg.URL, post)
	data := map[string]interface{}{
		"@context":    "https://schema.org",
		"@type":       "BlogPosting",
		"headline":    post.Title,
		"description": post.Subtitle,
		"url":         postURL,
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if t, ok := ParsePostDate(post.Date); ok {
		data["datePublished"] = t.Format("2006-01-02")
	}
	if post.AuthorName != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  post.AuthorName,
		}
	}
	if cfg.Name != "" {
		data["publisher"] = map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
