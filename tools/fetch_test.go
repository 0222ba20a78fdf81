package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStripHTML(t *testing.T) {
	raw := `<html><head><style>body { color: red; }</style>
<script>alert("hi")</script></head>
<body><h1>Title</h1><p>Some &amp; text &lt;here&gt;</p></body></html>`
	text := StripHTML(raw)
	if strings.Contains(text, "alert") || strings.Contains(text, "color: red") {
		t.Errorf("script/style not stripped: %q", text)
	}
	if !strings.Contains(text, "Title") || !strings.Contains(text, "Some & text <here>") {
		t.Errorf("content or entities wrong: %q", text)
	}
	if strings.Contains(text, "<h1>") {
		t.Errorf("tags not stripped: %q", text)
	}
}

func TestFetchURLCapsOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<p>" + strings.Repeat("word ", 2000) + "</p>"))
	}))
	defer server.Close()

	k := newTestToolkit(t)
	out, err := k.FetchURL(context.Background(), server.URL)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) > 4010 {
		t.Errorf("output not capped: %d chars", len(out))
	}
	if !strings.HasSuffix(out, "...") {
		t.Error("capped output should end with ellipsis")
	}
}

func TestFetchURLErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	k := newTestToolkit(t)
	out, err := k.FetchURL(context.Background(), server.URL)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "HTTP 404") {
		t.Errorf("status not surfaced: %q", out)
	}
}

func TestFetchURLUnreachable(t *testing.T) {
	k := newTestToolkit(t)
	if _, err := k.FetchURL(context.Background(), "http://127.0.0.1:1/nope"); err == nil {
		t.Error("expected error for unreachable host")
	}
}
