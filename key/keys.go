// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these settings govern the non-interactive command behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
	IconsVariant    = "icons.variant"
)

// Media Playback - these keys configure the playback surface and the manifest client.
const (
	Player                = "player.default"
	PlayerMpvPath         = "player.mpv_path"
	PlayerManifestClient  = "player.manifest_client"
	PlayerLoadTimeout     = "player.load_timeout"
	PlayerMaxBufferSecs   = "player.max_buffer_secs"
	PlayerBackBufferSecs  = "player.back_buffer_secs"
	PlayerManifestRetries = "player.manifest_retries"
	PlayerLevelRetries    = "player.level_retries"
	PlayerFragmentRetries = "player.fragment_retries"
	PlayerRetryDelayMs    = "player.retry_delay_ms"
	Aniskip               = "player.aniskip"
)

// Proxy Gateway - these keys locate or configure the same-origin rewriting gateway.
const (
	ProxyURL    = "proxy.url"
	ProxyListen = "proxy.listen"
	ProxyRPS    = "proxy.rps"
	ProxyBurst  = "proxy.burst"
)

// Preference Persistence - these keys choose the key-value backend for player preferences.
const (
	PrefsBackend   = "prefs.backend"
	PrefsRedisAddr = "prefs.redis_addr"
	PrefsRedisDB   = "prefs.redis_db"
)

// Input Handling - these keys tune device profile detection and gesture timing.
const (
	InputProfile        = "input.profile"
	InputMobileWidth    = "input.mobile_width"
	InputMobileHideSecs = "input.mobile_hide_secs"
	InputSeekStep       = "input.seek_step"
)

// Subtitles
const (
	SubtitleFetchTimeout = "subtitle.fetch_timeout"
)
