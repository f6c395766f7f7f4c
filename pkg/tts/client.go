// Package tts speaks the Edge neural-voice WebSocket protocol.
//
// A Client is a single connection to the provider; it performs one synthesis
// at a time and keeps the socket open between syntheses so the pool can
// amortize the TCP/TLS/WebSocket setup cost.
package tts

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	defaultURL       = "wss://speech.platform.bing.com/consumer/speech/synthesize/readaloud/edge/v1?TrustedClientToken=6A5AA1D4EAFF4E9FB37E23D68491D6F4"
	defaultVoicesURL = "https://speech.platform.bing.com/consumer/speech/synthesize/readaloud/voices/list?trustedclienttoken=6A5AA1D4EAFF4E9FB37E23D68491D6F4"

	defaultVoice        = "en-US-ChristopherNeural"
	defaultRate         = "-3%"
	defaultPitch        = "+15Hz"
	defaultVolume       = "+0%"
	defaultOutputFormat = "audio-24khz-96kbitrate-mono-mp3"

	defaultPoolSize           = 5
	defaultPoolAcquireTimeout = 200 * time.Millisecond

	origin    = "chrome-extension://jdiccldimpdaibmpdkjnbmckianbfold"
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// provider's pseudo-JS timestamp header format
	timestampFormat = "Mon Jan 02 2006 15:04:05 GMT+0000 (Coordinated Universal Time)"
)

type Config struct {
	URL       string `yaml:"url"`
	VoicesURL string `yaml:"voices_url"`

	Voice        string `yaml:"voice"`
	Rate         string `yaml:"rate"`
	Pitch        string `yaml:"pitch"`
	Volume       string `yaml:"volume"`
	OutputFormat string `yaml:"output_format"`

	PoolSize           int           `yaml:"pool_size"`
	PoolAcquireTimeout time.Duration `yaml:"pool_acquire_timeout"`

	// language -> voice, keyed by language name ("Japanese") or BCP-47 tag ("ja-JP")
	Voices map[string]string `yaml:"voices"`
}

func (cfg *Config) url() string {
	if cfg.URL != "" {
		return cfg.URL
	}
	return defaultURL
}

func (cfg *Config) voicesURL() string {
	if cfg.VoicesURL != "" {
		return cfg.VoicesURL
	}
	return defaultVoicesURL
}

func (cfg *Config) voice() string {
	if cfg.Voice != "" {
		return cfg.Voice
	}
	return defaultVoice
}

func (cfg *Config) rate() string {
	if cfg.Rate != "" {
		return cfg.Rate
	}
	return defaultRate
}

func (cfg *Config) pitch() string {
	if cfg.Pitch != "" {
		return cfg.Pitch
	}
	return defaultPitch
}

func (cfg *Config) volume() string {
	if cfg.Volume != "" {
		return cfg.Volume
	}
	return defaultVolume
}

func (cfg *Config) outputFormat() string {
	if cfg.OutputFormat != "" {
		return cfg.OutputFormat
	}
	return defaultOutputFormat
}

// Handle performs one synthesis at a time against the provider.
type Handle interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Close() error
}

var _ Handle = (*Client)(nil)

type Client struct {
	cfg   *Config
	voice string

	lock sync.Mutex
	conn *websocket.Conn
}

func NewClient(cfg *Config, voice string) *Client {
	if voice == "" {
		voice = cfg.voice()
	}

	return &Client{
		cfg:   cfg,
		voice: voice,
	}
}

func (c *Client) Voice() string {
	return c.voice
}

// Synthesize sends text through the socket and collects the audio frames of
// one turn. Any protocol or network error tears the connection down so the
// next call redials.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	start := time.Now()
	metrics.InFlight.Inc()
	defer metrics.InFlight.Dec()

	audio, err := c.synthesize(ctx, text)
	if err != nil {
		c.closeConn()
		return nil, err
	}

	if len(audio) == 0 {
		metrics.SynthErrors.WithLabelValues("empty").Inc()
		return nil, ErrNoAudio
	}

	metrics.SynthSeconds.Observe(time.Since(start).Seconds())

	return audio, nil
}

func (c *Client) synthesize(ctx context.Context, text string) ([]byte, error) {
	if c.conn == nil {
		if err := c.dial(ctx); err != nil {
			metrics.SynthErrors.WithLabelValues("dial").Inc()
			return nil, err
		}
	}

	deadline := time.Time{}
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	_ = c.conn.SetReadDeadline(deadline)
	_ = c.conn.SetWriteDeadline(deadline)

	msg := "X-RequestId:" + requestID() + "\r\n" +
		"Content-Type:application/ssml+xml\r\n" +
		"X-Timestamp:" + timestamp() + "\r\n" +
		"Path:ssml\r\n\r\n" +
		c.ssml(text)

	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		metrics.SynthErrors.WithLabelValues("write").Inc()
		return nil, fmt.Errorf("failed to send ssml: %w", err)
	}

	var audio bytes.Buffer

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			metrics.SynthErrors.WithLabelValues("read").Inc()
			return nil, fmt.Errorf("failed to read provider message: %w", err)
		}

		switch msgType {
		case websocket.TextMessage:
			if strings.Contains(string(data), "Path:turn.end") {
				return audio.Bytes(), nil
			}
		case websocket.BinaryMessage:
			if payload, ok := audioPayload(data); ok {
				audio.Write(payload)
			}
		}
	}
}

func (c *Client) dial(ctx context.Context) error {
	u := c.cfg.url()
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	u += sep + "ConnectionId=" + requestID()

	header := http.Header{}
	header.Set("Origin", origin)
	header.Set("User-Agent", userAgent)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("failed to dial provider (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("failed to dial provider: %w", err)
	}

	c.conn = conn

	if d, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(d)
	}

	config := "X-Timestamp:" + timestamp() + "\r\n" +
		"Content-Type:application/json; charset=utf-8\r\n" +
		"Path:speech.config\r\n\r\n" +
		`{"context":{"synthesis":{"audio":{"metadataoptions":{"sentenceBoundaryEnabled":"false","wordBoundaryEnabled":"false"},"outputFormat":"` + c.cfg.outputFormat() + `"}}}}`

	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(config)); err != nil {
		c.closeConn()
		return fmt.Errorf("failed to send speech config: %w", err)
	}

	return nil
}

func (c *Client) ssml(text string) string {
	var escaped bytes.Buffer
	_ = xml.EscapeText(&escaped, []byte(text))

	return fmt.Sprintf(
		"<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='en-US'>"+
			"<voice name='%s'><prosody pitch='%s' rate='%s' volume='%s'>%s</prosody></voice></speak>",
		c.voice, c.cfg.pitch(), c.cfg.rate(), c.cfg.volume(), escaped.String(),
	)
}

func (c *Client) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.closeConn()

	return nil
}

func (c *Client) closeConn() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// audioPayload extracts the audio bytes of one binary frame: a 2-byte
// big-endian header length, the header text, then the payload. Only frames
// whose header carries Path:audio contain audio.
func audioPayload(frame []byte) ([]byte, bool) {
	if len(frame) < 2 {
		return nil, false
	}

	headerLen := int(binary.BigEndian.Uint16(frame[:2]))
	if len(frame) < 2+headerLen {
		return nil, false
	}

	if !bytes.Contains(frame[2:2+headerLen], []byte("Path:audio")) {
		return nil, false
	}

	return frame[2+headerLen:], true
}

func requestID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func timestamp() string {
	return time.Now().UTC().Format(timestampFormat)
}
