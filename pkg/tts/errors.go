package tts

import "errors"

var (
	// ErrNoAudio means the provider completed the turn without sending audio.
	ErrNoAudio = errors.New("provider returned no audio")

	// ErrPoolClosed is returned by Acquire after Close.
	ErrPoolClosed = errors.New("client pool is closed")
)
