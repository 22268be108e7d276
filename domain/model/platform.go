package model

import "strings"

type Platform string

const (
	PlatformTikTok        Platform = "tiktok"
	PlatformInstagram     Platform = "instagram"
	PlatformYouTube       Platform = "youtube"
	PlatformYouTubeShorts Platform = "youtube_shorts"
	PlatformFacebook      Platform = "facebook"
	PlatformTwitter       Platform = "twitter"
	PlatformLinkedIn      Platform = "linkedin"
	PlatformPinterest     Platform = "pinterest"
)

// Platforms lists every platform the engine can publish to.
var Platforms = []Platform{
	PlatformTikTok,
	PlatformInstagram,
	PlatformYouTube,
	PlatformYouTubeShorts,
	PlatformFacebook,
	PlatformTwitter,
	PlatformLinkedIn,
	PlatformPinterest,
}

// ParsePlatform normalizes user input ("X", "Twitter", "youtube-shorts").
func ParsePlatform(s string) (Platform, bool) {
	p := strings.ToLower(strings.TrimSpace(s))
	p = strings.ReplaceAll(p, "-", "_")
	if p == "x" {
		p = string(PlatformTwitter)
	}
	for _, known := range Platforms {
		if string(known) == p {
			return known, true
		}
	}
	return "", false
}

func (p Platform) String() string { return string(p) }
