package web

import (
	"io/fs"
	"testing"
)

func TestStaticFSServesStylesheet(t *testing.T) {
	assets, err := StaticFS()
	if err != nil {
		t.Fatalf("static fs: %v", err)
	}
	data, err := fs.ReadFile(assets, "css/app.css")
	if err != nil {
		t.Fatalf("read stylesheet: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected stylesheet content")
	}
}

func TestTemplatePatternsMatch(t *testing.T) {
	for _, pattern := range TemplatePatterns {
		matches, err := fs.Glob(Templates, pattern)
		if err != nil {
			t.Fatalf("glob %s: %v", pattern, err)
		}
		if len(matches) == 0 {
			t.Fatalf("pattern %s matched no templates", pattern)
		}
	}
}
