package protocol

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// Kind identifies the playback backend able to render a media source.
type Kind string

const (
	// KindNone means nothing is playing.
	KindNone       Kind = "none"
	KindYouTube    Kind = "yt"
	KindSoundCloud Kind = "sc"
	KindNiconico   Kind = "2525"
	KindTestVideo  Kind = "testvideo"
	KindTestAudio  Kind = "testaudio"
)

// Kinds lists every backend kind, none excluded.
func Kinds() []Kind {
	return []Kind{KindYouTube, KindSoundCloud, KindNiconico, KindTestVideo, KindTestAudio}
}

// Valid reports whether k is none or a known backend kind.
func (k Kind) Valid() bool {
	return k == KindNone || lo.Contains(Kinds(), k)
}

// MediaState is the authoritative playback state pushed by the server.
// Version strictly increases across successive states of one session.
type MediaState struct {
	Kind        Kind   `json:"type" validate:"required,mediakind" jsonschema:"enum=none,enum=yt,enum=sc,enum=2525,enum=testvideo,enum=testaudio"`
	URL         string `json:"url,omitempty" validate:"required_unless=Kind none"`
	AspectRatio string `json:"aspectRatio,omitempty"`
	Version     int64  `json:"newVersion" validate:"min=0"`
}

func (s MediaState) String() string {
	if s.Kind == KindNone {
		return fmt.Sprintf("none@%d", s.Version)
	}
	return fmt.Sprintf("%s %s@%d", s.Kind, s.URL, s.Version)
}

// Validate checks the state against its struct tags.
func (s MediaState) Validate() error {
	return validate.Struct(s)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	lo.Must0(v.RegisterValidation("mediakind", func(fl validator.FieldLevel) bool {
		return Kind(fl.Field().String()).Valid()
	}))
	return v
}
