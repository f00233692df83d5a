// Package personalize turns a campaign body template into the final
// per-recipient HTML and plain-text payloads: template substitution,
// open-pixel injection, and click-tracking link rewriting.
package personalize

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/osteele/liquid"
)

// NameVar is the template variable carrying the recipient's first name.
// Bodies reference it as {{ first_name }}.
const NameVar = "first_name"

// Personalizer renders campaign bodies. Rendering is deterministic:
// identical inputs always produce byte-identical output, which retry
// logic and tests depend on.
type Personalizer struct {
	engine   *liquid.Engine
	tracking *LinkRewriter
	cache    sync.Map // template source -> *liquid.Template
}

// New creates a Personalizer that routes tracking through the given
// base URL and signs click destinations with signingKey.
func New(trackingBaseURL, signingKey string) *Personalizer {
	engine := liquid.NewEngine()
	engine.RegisterFilter("default", func(value interface{}, fallback string) interface{} {
		if value == nil {
			return fallback
		}
		if s := fmt.Sprintf("%v", value); s == "" {
			return fallback
		}
		return value
	})
	return &Personalizer{
		engine:   engine,
		tracking: NewLinkRewriter(trackingBaseURL, signingKey),
	}
}

// Message is the personalized output for one recipient.
type Message struct {
	HTML string
	Text string
}

// Render produces the final payloads for one recipient.
//
// Order matters: the name substitution runs first, the open pixel and
// click rewriting are injected afterwards, so the template logic never
// sees tracking markup. The plain-text payload is derived from the
// rendered HTML before tracking injection and keeps the original
// hyperlinks untouched.
func (p *Personalizer) Render(body, firstName, token string) (*Message, error) {
	tmpl, err := p.template(body)
	if err != nil {
		return nil, fmt.Errorf("parse body template: %w", err)
	}

	// An empty first name renders as an empty string, never as the
	// verbatim placeholder.
	rendered, err := tmpl.RenderString(liquid.Bindings{NameVar: firstName})
	if err != nil {
		return nil, fmt.Errorf("render body template: %w", err)
	}

	text := htmlToText(rendered)

	html := p.tracking.RewriteLinks(rendered, token)
	html = injectPixel(html, p.tracking.PixelURL(token))

	return &Message{HTML: html, Text: text}, nil
}

func (p *Personalizer) template(body string) (*liquid.Template, error) {
	if cached, ok := p.cache.Load(body); ok {
		return cached.(*liquid.Template), nil
	}
	tmpl, err := p.engine.ParseString(body)
	if err != nil {
		return nil, err
	}
	p.cache.Store(body, tmpl)
	return tmpl, nil
}

var bodyCloseRe = regexp.MustCompile(`(?i)</body>`)

// injectPixel appends exactly one invisible open-tracking image. If the
// body has a closing </body> tag, matched case-insensitively, the pixel
// goes right before the last one, otherwise it is appended at the end.
func injectPixel(html, pixelURL string) string {
	pixel := fmt.Sprintf(`<img src="%s" width="1" height="1" style="display:none" alt="" />`, pixelURL)
	if matches := bodyCloseRe.FindAllStringIndex(html, -1); len(matches) > 0 {
		idx := matches[len(matches)-1][0]
		return html[:idx] + pixel + html[idx:]
	}
	return html + pixel
}
