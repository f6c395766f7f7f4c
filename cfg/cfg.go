package cfg

import (
	"app/internal/app/api"
	"app/internal/app/processor"
	"app/pkg/audiocache"
	"app/pkg/tts"
)

type Config struct {
	Api api.Config `yaml:"api"`

	TTS   tts.Config        `yaml:"tts"`
	Synth processor.Config  `yaml:"synth"`
	Cache audiocache.Config `yaml:"cache"`
}
