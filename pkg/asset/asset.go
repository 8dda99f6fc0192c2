// Package asset describes the media a site needs before it becomes
// interactive: what kind each asset is and where it lives.
package asset

import (
	"fmt"
	"net/url"
	"strings"
)

// Kind identifies how an asset is loaded.
type Kind int

const (
	// Image assets are decoded but never turned into handles.
	Image Kind = iota
	// Video assets are fetched into the handle store.
	Video
	// Audio assets are fetched into the handle store.
	Audio
)

// String returns the lower-case manifest name of the kind.
func (k Kind) String() string {
	switch k {
	case Image:
		return "image"
	case Video:
		return "video"
	case Audio:
		return "audio"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// HasHandle reports whether loaded assets of this kind are kept in memory
// and exposed through a handle.
func (k Kind) HasHandle() bool {
	return k == Video || k == Audio
}

// ParseKind parses a manifest kind name. Matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "image", "img":
		return Image, nil
	case "video":
		return Video, nil
	case "audio":
		return Audio, nil
	}
	return 0, fmt.Errorf("unknown asset kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k < Image || k > Audio {
		return nil, fmt.Errorf("unknown asset kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Descriptor names one asset. Descriptors are values and are never mutated
// once a manifest is built.
type Descriptor struct {
	Kind Kind   `json:"kind" toml:"kind"`
	URL  string `json:"url" toml:"url"`
}

func (d Descriptor) String() string {
	return d.Kind.String() + " " + d.URL
}

// Resolve rebases every relative descriptor URL onto base and returns a new
// slice. Absolute URLs are kept as they are. An empty base returns a copy of
// the input.
func Resolve(base string, descriptors []Descriptor) ([]Descriptor, error) {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	if base == "" {
		return out, nil
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", base)
	}
	for i, d := range out {
		ref, err := url.Parse(d.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", d.URL, err)
		}
		out[i].URL = baseURL.ResolveReference(ref).String()
	}
	return out, nil
}

// Dedupe returns descriptors with repeated URLs removed, keeping the first
// occurrence of each.
func Dedupe(descriptors []Descriptor) []Descriptor {
	seen := make(map[string]bool, len(descriptors))
	out := make([]Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if seen[d.URL] {
			continue
		}
		seen[d.URL] = true
		out = append(out, d)
	}
	return out
}
