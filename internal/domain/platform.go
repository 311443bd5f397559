package domain

// PlatformFormat describes the posting constraints of one social platform.
type PlatformFormat struct {
	Name         string
	MaxLength    int
	HashtagStyle string
}

// PlatformFormats holds the per-platform posting constraints.
var PlatformFormats = map[string]PlatformFormat{
	"twitter": {
		Name:         "X (Twitter)",
		MaxLength:    280,
		HashtagStyle: "1-2 max, #buildinpublic primary",
	},
	"linkedin": {
		Name:         "LinkedIn",
		MaxLength:    3000,
		HashtagStyle: "bottom block, 3-5 tags",
	},
	"facebook": {
		Name:         "Facebook",
		MaxLength:    5000,
		HashtagStyle: "minimal, community-focused",
	},
	"instagram": {
		Name:         "Instagram",
		MaxLength:    2200,
		HashtagStyle: "separate comment or bottom block",
	},
}

// FormatFor returns the format for a platform, falling back to twitter's
// constraints for unknown platforms.
func FormatFor(platform string) PlatformFormat {
	if f, ok := PlatformFormats[platform]; ok {
		return f
	}
	return PlatformFormats["twitter"]
}
