package ingest

import (
	"strings"

	perr "chatmill/internal/platform/errors"
)

// Platform identifies a supported chat export source
type Platform string

const (
	PlatformTelegram  Platform = "telegram"
	PlatformWhatsApp  Platform = "whatsapp"
	PlatformInstagram Platform = "instagram"
	PlatformDiscord   Platform = "discord"
)

// Platforms lists all supported platforms in display order
func Platforms() []Platform {
	return []Platform{PlatformTelegram, PlatformWhatsApp, PlatformInstagram, PlatformDiscord}
}

// ParsePlatform resolves a user-supplied source name, accepting short aliases
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "telegram", "tg":
		return PlatformTelegram, nil
	case "whatsapp", "wa":
		return PlatformWhatsApp, nil
	case "instagram", "ig":
		return PlatformInstagram, nil
	case "discord", "dc":
		return PlatformDiscord, nil
	default:
		return "", perr.InvalidArgf("unknown source %q, expected one of telegram, whatsapp, instagram, discord", s)
	}
}

// String implements fmt.Stringer
func (p Platform) String() string { return string(p) }
