package playback

import (
	"time"

	"github.com/anisan-cli/anistream/hls"
	"github.com/anisan-cli/anistream/key"
	"github.com/spf13/viper"
)

// Config tunes the controller.
type Config struct {
	// LoadTimeout is the watchdog that forces the loading indicator off.
	LoadTimeout time.Duration
	// ManifestClient resolves adaptive sources in-process; otherwise the surface plays them natively.
	ManifestClient bool
	HLS            hls.Config
}

// DefaultConfig mirrors the configuration defaults.
func DefaultConfig() Config {
	return Config{
		LoadTimeout:    15 * time.Second,
		ManifestClient: true,
		HLS:            hls.DefaultConfig(),
	}
}

// ConfigFromViper reads the player.* keys.
func ConfigFromViper() Config {
	cfg := DefaultConfig()
	cfg.LoadTimeout = time.Duration(viper.GetInt(key.PlayerLoadTimeout)) * time.Second
	cfg.ManifestClient = viper.GetBool(key.PlayerManifestClient)
	cfg.HLS.MaxBufferLength = time.Duration(viper.GetInt(key.PlayerMaxBufferSecs)) * time.Second
	cfg.HLS.BackBufferLength = time.Duration(viper.GetInt(key.PlayerBackBufferSecs)) * time.Second
	cfg.HLS.ManifestRetries = viper.GetInt(key.PlayerManifestRetries)
	cfg.HLS.LevelRetries = viper.GetInt(key.PlayerLevelRetries)
	cfg.HLS.FragmentRetries = viper.GetInt(key.PlayerFragmentRetries)
	cfg.HLS.RetryDelay = time.Duration(viper.GetInt(key.PlayerRetryDelayMs)) * time.Millisecond
	return cfg
}
