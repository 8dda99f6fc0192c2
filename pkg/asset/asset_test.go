package asset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParseKind_Good(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"image", Image},
		{"IMG", Image},
		{" video ", Video},
		{"Audio", Audio},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if err != nil {
			t.Errorf("ParseKind(%q) returned error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseKind_Bad(t *testing.T) {
	if _, err := ParseKind("font"); err == nil {
		t.Fatal("expected an error for an unknown kind, but got none")
	}
	if _, err := Kind(7).MarshalText(); err == nil {
		t.Fatal("expected MarshalText to reject an out of range kind")
	}
}

func TestSiteManifest(t *testing.T) {
	m := SiteManifest()
	if len(m) != 57 {
		t.Fatalf("expected 57 descriptors, got %d", len(m))
	}
	if m[0] != (Descriptor{Kind: Image, URL: "/img/logo.png"}) {
		t.Errorf("expected the logo first, got %v", m[0])
	}
	counts := map[Kind]int{}
	for _, d := range m {
		counts[d.Kind]++
	}
	if counts[Video] != 4 || counts[Audio] != 4 || counts[Image] != 49 {
		t.Errorf("unexpected kind counts: %v", counts)
	}

	// Callers get their own copy.
	m[0].URL = "changed"
	if SiteManifest()[0].URL != "/img/logo.png" {
		t.Error("SiteManifest returned shared state")
	}

	if s, ok := Soundtrack(SectionStory); !ok || s != "/audio/features-theme.wav" {
		t.Errorf("Soundtrack(story) = %q, %v", s, ok)
	}
	if _, ok := Soundtrack("experience"); ok {
		t.Error("expected no soundtrack for the experience section")
	}
}

func TestResolve(t *testing.T) {
	in := []Descriptor{
		{Kind: Video, URL: "/videos/hero-1.mp4"},
		{Kind: Image, URL: "img/a.png"},
		{Kind: Audio, URL: "https://cdn.example.com/a.wav"},
	}
	got, err := Resolve("https://example.com/site/", in)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	want := []string{
		"https://example.com/videos/hero-1.mp4",
		"https://example.com/site/img/a.png",
		"https://cdn.example.com/a.wav",
	}
	for i, d := range got {
		if d.URL != want[i] {
			t.Errorf("Resolve[%d] = %q, want %q", i, d.URL, want[i])
		}
	}
	if in[0].URL != "/videos/hero-1.mp4" {
		t.Error("Resolve mutated its input")
	}

	if _, err := Resolve("/relative", in); err == nil {
		t.Error("expected an error for a relative base URL")
	}
}

func TestDedupe(t *testing.T) {
	in := []Descriptor{
		{Kind: Video, URL: "/a.mp4"},
		{Kind: Image, URL: "/b.png"},
		{Kind: Video, URL: "/a.mp4"},
	}
	got := Dedupe(in)
	if len(got) != 2 || got[0].URL != "/a.mp4" || got[1].URL != "/b.png" {
		t.Errorf("unexpected Dedupe result: %v", got)
	}
}

func TestLoadFile_Good(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "assets.json")
	if err := os.WriteFile(jsonPath, []byte(`{"assets":[{"kind":"video","url":"/v.mp4"},{"kind":"image","url":"/i.png"}]}`), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFile(jsonPath)
	if err != nil {
		t.Fatalf("LoadFile(json) failed: %v", err)
	}
	want := []Descriptor{{Kind: Video, URL: "/v.mp4"}, {Kind: Image, URL: "/i.png"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadFile(json) = %v, want %v", got, want)
	}

	tomlPath := filepath.Join(dir, "assets.toml")
	tomlData := "[[asset]]\nkind = \"audio\"\nurl = \"/a.wav\"\n\n[[asset]]\nkind = \"video\"\nurl = \"/v.mp4\"\n"
	if err := os.WriteFile(tomlPath, []byte(tomlData), 0644); err != nil {
		t.Fatal(err)
	}
	got, err = LoadFile(tomlPath)
	if err != nil {
		t.Fatalf("LoadFile(toml) failed: %v", err)
	}
	want = []Descriptor{{Kind: Audio, URL: "/a.wav"}, {Kind: Video, URL: "/v.mp4"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadFile(toml) = %v, want %v", got, want)
	}
}

func TestLoadFile_Bad(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"kind.json":   `{"assets":[{"kind":"font","url":"/f.woff"}]}`,
		"nourl.json":  `{"assets":[{"kind":"video","url":""}]}`,
		"broken.toml": "[[asset]\n",
		"broken.json": `{"assets":`,
	}
	for name, body := range cases {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadFile(p); err == nil {
			t.Errorf("%s: expected an error, but got none", name)
		}
	}
	if _, err := LoadFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	data, err := Encode(SiteManifest()[:3])
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !strings.Contains(string(data), `"kind": "video"`) {
		t.Errorf("expected kinds encoded by name, got %s", data)
	}
	back, err := Parse(data, false)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !reflect.DeepEqual(back, SiteManifest()[:3]) {
		t.Errorf("round trip mismatch: %v", back)
	}
}

func TestDiscover(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`
			<!DOCTYPE html>
			<html>
			<head>
				<link rel="preload" as="audio" href="/audio/hero-theme.wav">
				<link rel="stylesheet" href="/main.css">
			</head>
			<body>
				<img src="/img/logo.png">
				<img src="data:image/png;base64,AAAA">
				<img src="https://elsewhere.example.com/x.png">
				<video poster="/img/poster.jpg" src="/videos/hero-1.mp4"></video>
				<video><source src="/videos/hero-2.webm" type="video/webm"></video>
				<audio><source src="/audio/about-theme.wav"></audio>
				<picture><source src="/img/wide.webp"></picture>
				<img src="/img/logo.png#again">
			</body>
			</html>
		`))
	}))
	defer server.Close()

	got, err := Discover(context.Background(), server.Client(), server.URL)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	want := []Descriptor{
		{Kind: Audio, URL: server.URL + "/audio/hero-theme.wav"},
		{Kind: Image, URL: server.URL + "/img/logo.png"},
		{Kind: Image, URL: server.URL + "/img/poster.jpg"},
		{Kind: Video, URL: server.URL + "/videos/hero-1.mp4"},
		{Kind: Video, URL: server.URL + "/videos/hero-2.webm"},
		{Kind: Audio, URL: server.URL + "/audio/about-theme.wav"},
		{Kind: Image, URL: server.URL + "/img/wide.webp"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Discover mismatch\n got: %v\nwant: %v", got, want)
	}
}

func TestDiscover_Bad(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	if _, err := Discover(context.Background(), nil, server.URL); err == nil {
		t.Fatal("expected an error for a missing page, but got none")
	}
}

func TestKindFromPath(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"/img/a.JPG", Image, true},
		{"https://x.test/v/hero.mp4?x=1", Video, true},
		{"/audio/theme.wav", Audio, true},
		{"/main.css", 0, false},
	}
	for _, tt := range tests {
		got, ok := KindFromPath(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("KindFromPath(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
