package player

import (
	"crypto/rand"
	"fmt"
	"image/color"
	"math"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/anisan-cli/anistream/constant"
	"github.com/anisan-cli/anistream/log"
	"github.com/anisan-cli/anistream/where"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
	quitTimeout       = 3 * time.Second
	terminateGrace    = time.Second
	// assumedBytesPerSecond converts a back-buffer duration to mpv's byte based limit (about 8 Mbit/s).
	assumedBytesPerSecond = 1 << 20
)

// MPV implements Surface over mpv's JSON-IPC protocol. The process is started idle
// and media is swapped with loadfile, so one window lives for the whole session.
type MPV struct {
	path       string
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{}
	events     *eventListener
	gate       entryGate
	handler    func(Event)
	mu         sync.Mutex // serialises socket round trips
}

// NewMPV prepares an mpv surface. path is the executable; handler receives surface events
// on the listener goroutine.
func NewMPV(path string, handler func(Event)) *MPV {
	if path == "" {
		path = "mpv"
	}
	return &MPV{
		path:    path,
		handler: handler,
		exited:  make(chan struct{}),
	}
}

// Start launches mpv idle and attaches the event listener.
func (m *MPV) Start() error {
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return fmt.Errorf("generate socket name: %w", err)
	}
	m.socketPath = filepath.Join(where.Temp(), fmt.Sprintf("%s-%x.sock", constant.Anistream, randomBytes))

	// Only IPC and window flags; the user's mpv.conf stays authoritative for everything else.
	args := []string{
		"--no-terminal",
		"--really-quiet",
		fmt.Sprintf("--input-ipc-server=%s", m.socketPath),
		fmt.Sprintf("--title=%s", constant.Anistream),
		"--force-window=yes",
		"--idle=yes",
		"--keep-open=yes",
	}

	m.cmd = exec.Command(m.path, args...)
	m.cmd.SysProcAttr = sysProcAttr()
	m.cmd.Stdout = nil
	m.cmd.Stderr = nil
	m.cmd.Stdin = nil

	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	// Reap the process to prevent zombies.
	m.exited = make(chan struct{})
	go func() {
		_ = m.cmd.Wait()
		close(m.exited)
	}()

	if err := m.waitForSocket(); err != nil {
		if m.cmd.Process != nil {
			select {
			case <-m.exited:
			default:
				log.Warnf("killing mpv: socket never became ready")
				_ = terminate(m.cmd, m.exited, 0)
			}
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	m.events = newEventListener(m.socketPath, &m.gate, m.handler)
	return m.events.start(make(chan struct{}))
}

// Wait returns a channel that is closed when the mpv process exits.
func (m *MPV) Wait() <-chan struct{} {
	return m.exited
}

func (m *MPV) waitForSocket() error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		select {
		case <-m.exited:
			return fmt.Errorf("mpv exited before socket was ready")
		default:
		}

		conn, err := net.Dial("unix", m.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, socketWaitRetries)
}

func (m *MPV) Load(rawURL, title string) error {
	target, err := sanitizeMediaTarget(rawURL)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}
	if err := m.set("force-media-title", sanitizeTitle(title)); err != nil {
		log.Warnf("set media title: %v", err)
	}

	m.gate.mu.Lock()
	defer m.gate.mu.Unlock()

	reply, err := m.sendCommand("loadfile", target, "replace")
	if err != nil {
		return err
	}
	m.gate.expect(reply)
	return nil
}

func (m *MPV) Unload() error {
	m.gate.mu.Lock()
	defer m.gate.mu.Unlock()

	m.gate.want = noEntry
	_, err := m.sendCommand("stop")
	return err
}

func (m *MPV) SetPaused(paused bool) error {
	return m.set("pause", paused)
}

func (m *MPV) Seek(seconds float64) error {
	_, err := m.sendCommand("seek", seconds, "absolute")
	return err
}

func (m *MPV) SetVolume(level float64) error {
	return m.set("volume", math.Round(level*100))
}

func (m *MPV) SetMuted(muted bool) error {
	return m.set("mute", muted)
}

func (m *MPV) SetSpeed(rate float64) error {
	return m.set("speed", rate)
}

func (m *MPV) SetFullscreen(on bool) error {
	return m.set("fullscreen", on)
}

// SetVariantBitrate switches the playing variant. hls-bitrate only applies when a
// manifest is opened, so the live switch selects the matching video track.
func (m *MPV) SetVariantBitrate(bitrate int) error {
	if bitrate <= 0 {
		if err := m.set("hls-bitrate", "max"); err != nil {
			return err
		}
		return m.set("vid", "auto")
	}
	if err := m.set("hls-bitrate", bitrate); err != nil {
		return err
	}

	data, err := m.sendCommand("get_property", "track-list")
	if err != nil {
		return err
	}
	id, ok := variantTrack(data, bitrate)
	if !ok {
		return nil
	}
	return m.set("vid", id)
}

// variantTrack picks the video track of the highest variant not above bitrate,
// or the lowest variant when all are above it.
func variantTrack(trackList any, bitrate int) (float64, bool) {
	tracks, _ := trackList.([]any)

	var (
		best, lowest         float64
		bestRate, lowestRate float64
	)
	for _, t := range tracks {
		track, ok := t.(map[string]any)
		if !ok || track["type"] != "video" {
			continue
		}
		id, _ := track["id"].(float64)
		rate, _ := track["hls-bitrate"].(float64)
		if id <= 0 || rate <= 0 {
			continue
		}
		if rate <= float64(bitrate) && rate > bestRate {
			best, bestRate = id, rate
		}
		if lowestRate == 0 || rate < lowestRate {
			lowest, lowestRate = id, rate
		}
	}

	switch {
	case bestRate > 0:
		return best, true
	case lowestRate > 0:
		return lowest, true
	}
	return 0, false
}

func (m *MPV) SetBufferLimits(forward, back time.Duration) error {
	if err := m.set("demuxer-readahead-secs", forward.Seconds()); err != nil {
		return err
	}
	return m.set("demuxer-max-back-bytes", int64(back.Seconds()*assumedBytesPerSecond))
}

// SupportsNativeAdaptive is always true: mpv's demuxer plays HLS directly.
func (m *MPV) SupportsNativeAdaptive() bool {
	return true
}

func (m *MPV) AddTextTrack(path, label string) error {
	_, err := m.sendCommand("sub-add", path, "select", label, label)
	return err
}

func (m *MPV) RemoveTextTracks() error {
	if err := m.set("sid", "no"); err != nil {
		return err
	}

	data, err := m.sendCommand("get_property", "track-list")
	if err != nil {
		return err
	}
	tracks, _ := data.([]any)
	for _, t := range tracks {
		track, ok := t.(map[string]any)
		if !ok || track["type"] != "sub" || track["external"] != true {
			continue
		}
		if _, err := m.sendCommand("sub-remove", track["id"]); err != nil {
			return err
		}
	}
	return nil
}

func (m *MPV) ApplySubtitleStyle(style TextStyle) error {
	for name, value := range styleProperties(style) {
		if err := m.set(name, value); err != nil {
			return fmt.Errorf("set %s: %w", name, err)
		}
	}
	return nil
}

// SetChapters shows the markers on mpv's timeline.
func (m *MPV) SetChapters(chapters []Chapter) error {
	list := make([]map[string]any, 0, len(chapters))
	for _, c := range chapters {
		list = append(list, map[string]any{"title": c.Title, "time": c.Time})
	}
	return m.set("chapter-list", list)
}

// IsRunning reports whether mpv is responding to IPC commands.
func (m *MPV) IsRunning() bool {
	if m.socketPath == "" {
		return false
	}

	select {
	case <-m.exited:
		return false
	default:
	}

	_, err := m.sendCommand("get_property", "pid")
	return err == nil
}

// Close shuts mpv down and removes the socket.
func (m *MPV) Close() error {
	if m.socketPath == "" {
		return nil
	}
	if m.events != nil {
		m.events.stop()
	}

	_, _ = m.sendCommand("quit")

	select {
	case <-m.exited:
	case <-time.After(quitTimeout):
		log.Warnf("mpv ignored quit, terminating")
		_ = terminate(m.cmd, m.exited, terminateGrace)
	}

	_ = os.Remove(m.socketPath)
	return nil
}

func (m *MPV) set(property string, value any) error {
	_, err := m.sendCommand("set_property", property, value)
	return err
}

// styleProperties maps a TextStyle onto mpv subtitle options.
func styleProperties(style TextStyle) map[string]any {
	return map[string]any{
		"sub-font-size":    style.FontSize,
		"sub-color":        mpvColor(style.Color),
		"sub-back-color":   mpvColor(style.BackColor),
		"sub-border-style": "background-box",
		"sub-pos":          math.Round(style.Position*100) / 100,
	}
}

// mpvColor renders c in mpv's #AARRGGBB notation.
func mpvColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02X%02X%02X%02X", c.A, c.R, c.G, c.B)
}

// sanitizeMediaTarget validates that a URL is safe to pass to mpv.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in URL")
	}

	// Prevent flag injection
	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("url must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	return filepath.Clean(l), nil
}

func sanitizeTitle(title string) string {
	t := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ", "\x00", "").Replace(title)
	return strings.TrimSpace(t)
}
