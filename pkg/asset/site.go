package asset

import "fmt"

// Section names used by the navigation bar to pick a soundtrack.
const (
	SectionHero    = "hero"
	SectionAbout   = "about"
	SectionStory   = "story"
	SectionContact = "contact"
)

// aboutImageCount is the number of images in the about constellation.
const aboutImageCount = 48

// soundtracks maps a page section to its ambience track.
var soundtracks = map[string]string{
	SectionHero:    "/audio/hero-theme.wav",
	SectionAbout:   "/audio/about-theme.wav",
	SectionStory:   "/audio/features-theme.wav",
	SectionContact: "/audio/contact-theme.wav",
}

// Soundtrack returns the audio path for a section and whether one exists.
func Soundtrack(section string) (string, bool) {
	s, ok := soundtracks[section]
	return s, ok
}

// HeroVideo returns the path of the n-th hero video (1-based).
func HeroVideo(n int) string {
	return fmt.Sprintf("/videos/hero-%d.mp4", n)
}

// HeroVideoCount is the number of hero video loops.
const HeroVideoCount = 4

// SiteManifest returns the manifest of the promotional site: critical
// assets first (logo, hero loops, hero soundtrack) then secondary ones.
// Paths are site-relative; use Resolve to point them at a host.
// Each call returns a new slice.
func SiteManifest() []Descriptor {
	m := []Descriptor{{Kind: Image, URL: "/img/logo.png"}}
	for i := 1; i <= HeroVideoCount; i++ {
		m = append(m, Descriptor{Kind: Video, URL: HeroVideo(i)})
	}
	m = append(m,
		Descriptor{Kind: Audio, URL: soundtracks[SectionHero]},
		Descriptor{Kind: Audio, URL: soundtracks[SectionAbout]},
		Descriptor{Kind: Audio, URL: soundtracks[SectionStory]},
		Descriptor{Kind: Audio, URL: soundtracks[SectionContact]},
	)
	for i := 1; i <= aboutImageCount; i++ {
		m = append(m, Descriptor{Kind: Image, URL: fmt.Sprintf("/img/about%d.jpg", i)})
	}
	return m
}
