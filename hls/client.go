package hls

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/anisan-cli/anistream/log"
	"github.com/anisan-cli/anistream/network"
)

// ErrDestroyed is returned by operations on a destroyed Client.
var ErrDestroyed = errors.New("hls client destroyed")

// Config bounds buffering and retries. Zero retry counts mean a single attempt.
type Config struct {
	MaxBufferLength  time.Duration
	BackBufferLength time.Duration
	ManifestRetries  int
	LevelRetries     int
	FragmentRetries  int
	// RetryDelay is the first backoff; it doubles per attempt up to 8x.
	RetryDelay     time.Duration
	RequestTimeout time.Duration
}

// DefaultConfig mirrors the configuration defaults.
func DefaultConfig() Config {
	return Config{
		MaxBufferLength:  30 * time.Second,
		BackBufferLength: 90 * time.Second,
		ManifestRetries:  2,
		LevelRetries:     2,
		FragmentRetries:  3,
		RetryDelay:       time.Second,
		RequestTimeout:   10 * time.Second,
	}
}

// Backoff returns the delay before retry attempt n (0-based).
func (c Config) Backoff(n int) time.Duration {
	d := c.RetryDelay
	for i := 0; i < n && d < 8*c.RetryDelay; i++ {
		d *= 2
	}
	if ceiling := 8 * c.RetryDelay; d > ceiling {
		d = ceiling
	}
	return d
}

// LevelSink applies a level selection to the playback surface. bitrate 0 means automatic.
type LevelSink interface {
	SetVariantBitrate(bitrate int) error
}

// Client loads a manifest, its selected level and first fragment, emitting events as it goes.
// It is safe for concurrent use; after Destroy no further events are emitted.
type Client struct {
	doer    network.Doer
	cfg     Config
	headers map[string]string
	emit    func(Event)

	mu        sync.Mutex
	sink      LevelSink
	levels    []Level
	level     int
	media     *Playlist
	destroyed bool
	cancel    context.CancelFunc
}

// New creates a Client. emit receives every event synchronously on the loading goroutine.
func New(doer network.Doer, cfg Config, headers map[string]string, emit func(Event)) *Client {
	return &Client{
		doer:    doer,
		cfg:     cfg,
		headers: headers,
		emit:    emit,
		level:   AutoLevel,
	}
}

// Attach sets where level selections are applied.
func (c *Client) Attach(sink LevelSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sink = sink
}

// Config returns the client's configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Levels returns the enumerated levels of the loaded master playlist.
func (c *Client) Levels() []Level {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Level(nil), c.levels...)
}

// Level returns the current selection, AutoLevel for automatic.
func (c *Client) Level() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

// SetStartLevel records a selection before the manifest is loaded. It is re-validated on parse.
func (c *Client) SetStartLevel(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.level = i
}

// Load fetches manifestURL, then the selected level playlist and its first fragment.
// It blocks until done, ctx is cancelled or the client is destroyed.
func (c *Client) Load(ctx context.Context, manifestURL string) error {
	ctx, err := c.begin(ctx)
	if err != nil {
		return err
	}

	base, err := url.Parse(manifestURL)
	if err != nil {
		return c.fail(&Error{Type: NetworkError, Details: ManifestLoadError, Fatal: true, URL: manifestURL, Err: err})
	}

	body, err := c.fetch(ctx, manifestURL, c.cfg.ManifestRetries)
	if err != nil {
		return c.fail(c.loadError(ctx, err, manifestURL, ManifestLoadError, ManifestLoadTimeout))
	}

	pl, err := Parse(body, base)
	if err != nil {
		return c.fail(&Error{Type: NetworkError, Details: ManifestParsingError, Fatal: true, URL: manifestURL, Err: err})
	}

	if !pl.Master {
		c.publish(ManifestParsed{})
		return c.loadMedia(ctx, pl, AutoLevel)
	}

	if len(pl.Levels) == 0 {
		return c.fail(&Error{Type: NetworkError, Details: ManifestParsingError, Fatal: true, URL: manifestURL, Err: errors.New("no level found in manifest")})
	}

	c.mu.Lock()
	c.levels = pl.Levels
	if c.level < AutoLevel || c.level >= len(pl.Levels) {
		c.level = AutoLevel
	}
	selected := c.level
	c.mu.Unlock()

	c.publish(ManifestParsed{Levels: append([]Level(nil), pl.Levels...)})
	c.apply(selected)

	lvl := pl.Levels[c.loadingIndex(selected)]
	levelURL, err := url.Parse(lvl.URL)
	if err != nil {
		return c.fail(&Error{Type: NetworkError, Details: LevelLoadError, Fatal: true, URL: lvl.URL, Err: fmt.Errorf("level url: %w", err)})
	}

	body, err = c.fetch(ctx, lvl.URL, c.cfg.LevelRetries)
	if err != nil {
		return c.fail(c.loadError(ctx, err, lvl.URL, LevelLoadError, LevelLoadTimeout))
	}

	media, err := Parse(body, levelURL)
	if err != nil || media.Master {
		if err == nil {
			err = errors.New("level playlist is a master playlist")
		}
		return c.fail(&Error{Type: NetworkError, Details: LevelLoadError, Fatal: true, URL: lvl.URL, Err: err})
	}

	return c.loadMedia(ctx, media, lvl.Index)
}

// RecoverMediaError retries the first fragment of the loaded level once.
func (c *Client) RecoverMediaError(ctx context.Context) error {
	ctx, err := c.begin(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	media := c.media
	c.mu.Unlock()

	if media == nil || len(media.Segments) == 0 {
		return c.fail(&Error{Type: MediaError, Details: FragParsingError, Fatal: true, Err: errors.New("nothing to recover")})
	}
	return c.loadFragment(ctx, media.Segments[0])
}

// SetLevel selects a level, AutoLevel for automatic, applying it to the sink without reloading.
// Selecting the current level again is a no-op.
func (c *Client) SetLevel(i int) error {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return ErrDestroyed
	}
	if i < AutoLevel || i >= len(c.levels) {
		n := len(c.levels)
		c.mu.Unlock()
		return fmt.Errorf("level %d out of range [-1, %d)", i, n)
	}
	if i == c.level {
		c.mu.Unlock()
		return nil
	}
	c.level = i
	c.mu.Unlock()

	if err := c.apply(i); err != nil {
		return err
	}
	c.publish(LevelSwitched{Level: i})
	return nil
}

// Destroy cancels in-flight loads and silences the client. It is idempotent.
func (c *Client) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.destroyed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Client) begin(ctx context.Context) (context.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return nil, ErrDestroyed
	}
	if c.cancel != nil {
		c.cancel()
	}
	ctx, c.cancel = context.WithCancel(ctx)
	return ctx, nil
}

func (c *Client) loadingIndex(selected int) int {
	if selected == AutoLevel {
		return 0
	}
	return selected
}

func (c *Client) loadMedia(ctx context.Context, media *Playlist, level int) error {
	c.mu.Lock()
	c.media = media
	c.mu.Unlock()

	c.publish(LevelLoaded{Level: level, Duration: media.Duration(), Ended: media.Ended})

	if len(media.Segments) == 0 {
		return c.fail(&Error{Type: NetworkError, Details: LevelEmptyError, Fatal: true, Err: errors.New("level has no segments")})
	}
	return c.loadFragment(ctx, media.Segments[0])
}

func (c *Client) loadFragment(ctx context.Context, seg Segment) error {
	body, err := c.fetch(ctx, seg.URL, c.cfg.FragmentRetries)
	if err != nil {
		return c.fail(c.loadError(ctx, err, seg.URL, FragLoadError, FragLoadTimeout))
	}
	if len(body) == 0 {
		return c.fail(&Error{Type: MediaError, Details: FragParsingError, Fatal: true, URL: seg.URL, Err: errors.New("empty fragment")})
	}

	c.publish(FragmentLoaded{URL: seg.URL, Bytes: len(body)})
	return nil
}

func (c *Client) apply(level int) error {
	c.mu.Lock()
	sink := c.sink
	bitrate := 0
	if level >= 0 && level < len(c.levels) {
		bitrate = c.levels[level].Bitrate
	}
	c.mu.Unlock()

	if sink == nil {
		return nil
	}
	if err := sink.SetVariantBitrate(bitrate); err != nil {
		c.publish(&Error{Type: OtherError, Details: LevelSwitchError, Err: err})
		return err
	}
	return nil
}

// fetch GETs rawURL with up to retries extra attempts and exponential backoff.
func (c *Client) fetch(ctx context.Context, rawURL string, retries int) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			log.Debugf("hls: retry %d for %s after %v", attempt, rawURL, lastErr)
			if err := sleep(ctx, c.cfg.Backoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		body, err := c.fetchOnce(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *Client) fetchOnce(ctx context.Context, rawURL string) ([]byte, error) {
	if c.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}
	return network.Fetch(ctx, c.doer, rawURL, c.headers)
}

func (c *Client) loadError(ctx context.Context, err error, rawURL string, failed, timeout ErrorDetails) *Error {
	details := failed
	if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		details = timeout
	}
	return &Error{Type: NetworkError, Details: details, Fatal: true, URL: rawURL, Err: err}
}

func (c *Client) fail(e *Error) error {
	c.publish(e)
	return e
}

func (c *Client) publish(ev Event) {
	c.mu.Lock()
	dead := c.destroyed
	c.mu.Unlock()

	if !dead && c.emit != nil {
		c.emit(ev)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
