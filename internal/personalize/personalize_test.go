package personalize

import (
	"fmt"
	"strings"
	"testing"
)

const (
	testBase = "https://track.medlemsys.no"
	testKey  = "test-signing-key"
	testTok  = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
)

func TestRenderSubstitutesFirstName(t *testing.T) {
	p := New(testBase, testKey)
	msg, err := p.Render("<p>Hei {{ first_name }}!</p>", "Kari", testTok)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(msg.HTML, "Hei Kari!") {
		t.Fatalf("expected substituted name, got: %s", msg.HTML)
	}
}

func TestRenderEmptyNameBecomesEmptyString(t *testing.T) {
	p := New(testBase, testKey)
	msg, err := p.Render("<p>Hei {{ first_name }}!</p>", "", testTok)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(msg.HTML, "first_name") {
		t.Fatalf("placeholder leaked into output: %s", msg.HTML)
	}
	if !strings.Contains(msg.HTML, "Hei !") {
		t.Fatalf("expected empty substitution, got: %s", msg.HTML)
	}
}

func TestRenderIdempotent(t *testing.T) {
	p := New(testBase, testKey)
	body := `<html><body><p>Hei {{ first_name }}</p><a href="https://example.com/a">A</a></body></html>`

	first, err := p.Render(body, "Ola", testTok)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	second, err := p.Render(body, "Ola", testTok)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if first.HTML != second.HTML || first.Text != second.Text {
		t.Fatal("expected byte-identical output for identical inputs")
	}
}

func TestRenderInjectsExactlyOnePixel(t *testing.T) {
	p := New(testBase, testKey)
	msg, err := p.Render("<html><body><p>hi</p></body></html>", "", testTok)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	pixel := testBase + "/track/open/" + testTok + ".gif"
	if n := strings.Count(msg.HTML, pixel); n != 1 {
		t.Fatalf("expected 1 pixel reference, got %d", n)
	}
	// Pixel sits inside the body, not after it.
	if strings.Index(msg.HTML, pixel) > strings.Index(msg.HTML, "</body>") {
		t.Fatal("pixel injected after </body>")
	}
}

func TestRenderPixelBeforeUppercaseBodyTag(t *testing.T) {
	p := New(testBase, testKey)
	msg, err := p.Render("<HTML><BODY><p>hi</p></BODY></HTML>", "", testTok)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	pixel := testBase + "/track/open/" + testTok + ".gif"
	if strings.Index(msg.HTML, pixel) > strings.Index(msg.HTML, "</BODY>") {
		t.Fatal("pixel injected after </BODY>")
	}
}

func TestRenderPixelAppendedWithoutBodyTag(t *testing.T) {
	p := New(testBase, testKey)
	msg, err := p.Render("<p>no body tag</p>", "", testTok)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(msg.HTML, "/track/open/"+testTok+".gif") {
		t.Fatal("pixel missing from fragment body")
	}
}

func TestRenderRewritesEveryLink(t *testing.T) {
	p := New(testBase, testKey)
	dests := []string{
		"https://example.com/one",
		"https://example.org/two?x=1&y=2",
		"http://plain.example.net/three",
	}
	var b strings.Builder
	b.WriteString("<html><body>")
	for i, d := range dests {
		fmt.Fprintf(&b, `<a href="%s">link %d</a>`, d, i)
	}
	b.WriteString("</body></html>")

	msg, err := p.Render(b.String(), "", testTok)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, d := range dests {
		if strings.Contains(msg.HTML, `href="`+d+`"`) {
			t.Fatalf("original link survived rewriting: %s", d)
		}
		// The plain-text alternative keeps the untouched link.
		if !strings.Contains(msg.Text, d) {
			t.Fatalf("plain text lost original link: %s", d)
		}
	}
	if n := strings.Count(msg.HTML, "/track/click/"+testTok); n != len(dests) {
		t.Fatalf("expected %d rewritten links, got %d", len(dests), n)
	}
}

func TestClickURLRoundTrip(t *testing.T) {
	lr := NewLinkRewriter(testBase, testKey)
	dest := "https://example.com/page?a=1&b=two words"

	clickURL := lr.ClickURL(testTok, dest)

	// Pull the d= parameter back out and decode it.
	idx := strings.Index(clickURL, "d=")
	end := strings.Index(clickURL[idx:], "&")
	encoded := clickURL[idx+2 : idx+end]

	decoded, err := DecodeDest(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != dest {
		t.Fatalf("round trip mismatch: got %q want %q", decoded, dest)
	}
	if !lr.Verify(testTok, dest, lr.Sign(testTok, dest)) {
		t.Fatal("signature did not verify")
	}
	if lr.Verify(testTok, "https://evil.example.com", lr.Sign(testTok, dest)) {
		t.Fatal("signature verified for a different destination")
	}
}

func TestRewriteSkipsTrackingHost(t *testing.T) {
	lr := NewLinkRewriter(testBase, testKey)
	already := testBase + "/track/click/" + testTok + "?d=abc&s=def"
	html := `<a href="` + already + `">x</a>`
	if got := lr.RewriteLinks(html, testTok); got != html {
		t.Fatalf("tracking link was double-wrapped: %s", got)
	}
}

func TestHTMLToText(t *testing.T) {
	in := `<html><body><h1>Nyhetsbrev</h1><p>Hei &amp; velkommen</p><a href="https://example.com">Les mer</a></body></html>`
	out := htmlToText(in)
	for _, want := range []string{"Nyhetsbrev", "Hei & velkommen", "Les mer (https://example.com)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
	if strings.Contains(out, "<") {
		t.Fatalf("tag leaked into text: %q", out)
	}
}
