// Command inkpress runs the blog server with the default views.
// All site branding and secrets come from environment variables.
package main

import (
	"log"
	"strings"

	"github.com/eringen/inkpress"
)

func main() {
	cfg := inkpress.SiteConfig{
		Name:          inkpress.EnvOr("SITE_NAME", "Blog"),
		URL:           strings.TrimSuffix(inkpress.EnvOr("SITE_URL", "http://localhost:3000"), "/"),
		Description:   inkpress.EnvOr("SITE_DESCRIPTION", ""),
		Author:        inkpress.EnvOr("SITE_AUTHOR", ""),
		Addr:          inkpress.EnvOr("ADDR", ":3000"),
		DatabasePath:  inkpress.EnvOr("DATABASE_PATH", "data/blog.db"),
		SessionSecret: inkpress.MustEnv("SESSION_SECRET"),
		CookieSecure:  strings.EqualFold(inkpress.EnvOr("COOKIE_SECURE", ""), "true"),
	}

	app := inkpress.New(cfg, defaultViews())
	defer app.Close()

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
