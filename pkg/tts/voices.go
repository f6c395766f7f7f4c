package tts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"golang.org/x/text/language"

	"app/pkg/tools"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Voice is one entry of the provider's voice catalog.
type Voice struct {
	Name      string `json:"Name"`
	ShortName string `json:"ShortName"`
	Gender    string `json:"Gender"`
	Locale    string `json:"Locale"`
}

// ListVoices fetches the provider's voice catalog. Used at startup to warn
// about configured voices the provider does not know.
func ListVoices(ctx context.Context, httpClient HTTPClient, cfg *Config) ([]Voice, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.voicesURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	request.Header.Set("User-Agent", userAgent)

	resp, err := httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch voice list: %w", err)
	}
	defer tools.DrainAndClose(resp.Body)

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	if resp.StatusCode > 299 {
		return nil, fmt.Errorf("status code %d, err - %s", resp.StatusCode, string(respData))
	}

	var voices []Voice
	if err := json.Unmarshal(respData, &voices); err != nil {
		return nil, fmt.Errorf("failed to unmarshal voice list: %w", err)
	}

	return voices, nil
}

// voiceMap resolves a request language to a voice identifier. Exact
// (case-insensitive) names from the config win; otherwise BCP-47 tags are
// matched so "en" finds an "en-US" voice. Anything else falls back to the
// pool's default voice.
type voiceMap struct {
	defaultVoice string

	byName map[string]string

	tags    []language.Tag
	voices  []string
	matcher language.Matcher
}

func newVoiceMap(cfg *Config) *voiceMap {
	m := &voiceMap{
		defaultVoice: cfg.voice(),
		byName:       make(map[string]string, len(cfg.Voices)),
	}

	keys := make([]string, 0, len(cfg.Voices))
	for key := range cfg.Voices {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		m.byName[strings.ToLower(key)] = cfg.Voices[key]

		if tag, err := language.Parse(key); err == nil {
			m.tags = append(m.tags, tag)
			m.voices = append(m.voices, cfg.Voices[key])
		}
	}

	if len(m.tags) > 0 {
		m.matcher = language.NewMatcher(m.tags)
	}

	return m
}

func (m *voiceMap) voiceFor(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return m.defaultVoice
	}

	if voice, ok := m.byName[strings.ToLower(lang)]; ok {
		return voice
	}

	if m.matcher == nil {
		return m.defaultVoice
	}

	tag, err := language.Parse(lang)
	if err != nil {
		return m.defaultVoice
	}

	if _, index, conf := m.matcher.Match(tag); conf > language.No {
		return m.voices[index]
	}

	return m.defaultVoice
}
