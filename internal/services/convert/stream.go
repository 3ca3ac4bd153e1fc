package convert

import (
	"chatmill/internal/ingest"
	"chatmill/internal/ingest/discord"
	"chatmill/internal/ingest/instagram"
	"chatmill/internal/ingest/telegram"
	"chatmill/internal/ingest/whatsapp"
	perr "chatmill/internal/platform/errors"
)

// OpenStream picks the dialect reader for the platform.
// The input is consumed by the returned stream; Close it when done
func OpenStream(p ingest.Platform, in *ingest.Input, cfg ingest.Config) (ingest.Stream, error) {
	cfg = cfg.Normalize()
	switch p {
	case ingest.PlatformTelegram:
		return telegram.NewReader(in, cfg)
	case ingest.PlatformWhatsApp:
		return whatsapp.NewReader(in, cfg)
	case ingest.PlatformInstagram:
		return instagram.NewReader(in, cfg)
	case ingest.PlatformDiscord:
		return discord.NewReader(in, cfg)
	default:
		return nil, perr.InvalidArgf("unknown platform %q", string(p))
	}
}
