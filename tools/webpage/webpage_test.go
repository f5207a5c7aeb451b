package webpage

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	errs "github.com/sweetpotato0/hfagents/errors"
)

const samplePage = `<html><head><title>Cake Guide</title><script>var x = 1;</script></head>
<body>
<nav><a href="/">Home</a></nav>
<h2>Ingredients</h2>
<ul><li>Flour</li><li>Eggs and <a href="https://example.com/sugar">sugar</a></li></ul>
<p>Mix   everything
together.</p>
<pre><code>bake(180)</code></pre>
<table><tr><th>Step</th><th>Time</th></tr><tr><td>Bake</td><td>30m</td></tr></table>
<footer>Copyright</footer>
</body></html>`

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestToMarkdown(t *testing.T) {
	md, err := ToMarkdown(strings.NewReader(samplePage))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"# Cake Guide",
		"## Ingredients",
		"- Flour",
		"- Eggs and [sugar](https://example.com/sugar)",
		"Mix everything\ntogether.",
		"```\nbake(180)\n```",
		"| Step | Time |\n| --- | --- |\n| Bake | 30m |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	for _, unwanted := range []string{"var x", "Copyright", "Home"} {
		if strings.Contains(md, unwanted) {
			t.Errorf("markdown should not contain %q", unwanted)
		}
	}
	if strings.Contains(md, "\n\n\n") {
		t.Error("blank lines not collapsed")
	}
}

func TestTruncate(t *testing.T) {
	tok := RuneTokenizer{}
	text := strings.Repeat("a", 50) + strings.Repeat("b", 50)

	if got := Truncate(tok, text, 200); got != text {
		t.Error("text within budget must be unchanged")
	}
	got := Truncate(tok, text, 10)
	if !strings.HasPrefix(got, "aaaaa\n") || !strings.HasSuffix(got, "\nbbbbb") {
		t.Errorf("expected head and tail to be kept, got %q", got)
	}
	if !strings.Contains(got, "truncated to stay below 10 tokens") {
		t.Errorf("missing truncation marker: %q", got)
	}
}

func TestTiktokenCountTokens(t *testing.T) {
	tok, err := NewTiktokenTokenizer(DefaultEncoding)
	if err != nil {
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}
	n := CountTokens(tok, "hello world")
	if n < 1 || n > 4 {
		t.Errorf("unexpected token count %d", n)
	}
	if got := tok.Decode(tok.Encode("hello world")); got != "hello world" {
		t.Errorf("round trip = %q", got)
	}
}

func TestVisit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = io.WriteString(w, samplePage)
		case "/plain":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = io.WriteString(w, "plain\n\n\n\ntext")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	v := New(quiet(), WithTokenizer(RuneTokenizer{}), WithMaxTokens(1000))
	ctx := context.Background()

	md, err := v.Visit(ctx, srv.URL+"/page")
	if err != nil || !strings.Contains(md, "## Ingredients") {
		t.Fatalf("unexpected page %q %v", md, err)
	}

	plain, err := v.Visit(ctx, srv.URL+"/plain")
	if err != nil || plain != "plain\n\ntext" {
		t.Errorf("unexpected plain content %q %v", plain, err)
	}

	if _, err := v.Visit(ctx, srv.URL+"/missing"); !errs.Is(err, errs.ErrUpstream) {
		t.Errorf("expected upstream error, got %v", err)
	}
	if _, err := v.Visit(ctx, "ftp://example.com"); !errs.Is(err, errs.ErrInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
}

func TestToolReportsErrorsAsText(t *testing.T) {
	v := New(quiet(), WithTokenizer(RuneTokenizer{}))
	out, err := v.Tool().Execute(context.Background(), map[string]any{"url": "not a url"})
	if err != nil {
		t.Fatalf("handler must not fail: %v", err)
	}
	if !strings.HasPrefix(out, "Error fetching the webpage:") {
		t.Errorf("unexpected output %q", out)
	}
}

// byteTokenizer makes one token per byte, so any cut can land inside a rune
// the way BPE merges do.
type byteTokenizer struct{}

func (byteTokenizer) Encode(text string) []int {
	out := make([]int, len(text))
	for i := 0; i < len(text); i++ {
		out[i] = int(text[i])
	}
	return out
}

func (byteTokenizer) Decode(tokens []int) string {
	b := make([]byte, len(tokens))
	for i, t := range tokens {
		b[i] = byte(t)
	}
	return string(b)
}

func TestTruncateKeepsValidUTF8(t *testing.T) {
	text := strings.Repeat("é", 40)
	for budget := 3; budget < 12; budget++ {
		got := Truncate(byteTokenizer{}, text, budget)
		if !utf8.ValidString(got) {
			t.Fatalf("budget %d produced invalid UTF-8: %q", budget, got)
		}
		if !strings.Contains(got, "truncated to stay below") {
			t.Fatalf("budget %d: missing truncation marker in %q", budget, got)
		}
	}
}
