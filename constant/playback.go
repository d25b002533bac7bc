package constant

// PreferencesKey is the fixed key under which the player preference record is persisted.
const PreferencesKey = "anistream.player.preferences"

// Descriptor script entry points - global Lua functions a stream descriptor script must define.
const (
	EpisodesFn         = "Episodes"
	StreamDescriptorFn = "StreamDescriptor"
)

// Gateway endpoint paths.
const (
	ProxyManifestPath = "/proxy/hls/manifest.m3u8"
	ProxyStreamPath   = "/proxy/stream"
)
