package prefs

import (
	"context"
	"time"

	"github.com/anisan-cli/anistream/constant"
	"github.com/anisan-cli/anistream/key"
	"github.com/anisan-cli/anistream/kv"
	"github.com/anisan-cli/anistream/log"
	"github.com/anisan-cli/anistream/where"
	"github.com/spf13/viper"
)

const ioTimeout = 3 * time.Second

// Store loads and saves PlayerPreferences. It never reports errors to callers:
// failures are logged and degrade to defaults (load) or are dropped (save).
type Store struct {
	kv kv.Store
}

// New wraps a key-value backend.
func New(backend kv.Store) *Store {
	return &Store{kv: backend}
}

// Open builds a Store for the backend named by prefs.backend.
// An unreachable redis server falls back to the file backend.
func Open() *Store {
	if viper.GetString(key.PrefsBackend) == "redis" {
		ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
		defer cancel()

		addr := viper.GetString(key.PrefsRedisAddr)
		r, err := kv.DialRedis(ctx, addr, viper.GetInt(key.PrefsRedisDB))
		if err == nil {
			return New(r)
		}
		log.Warnw("redis preference backend unavailable, using file", log.Fields{"addr": addr, "error": err})
	}

	return New(kv.NewFileStore(where.Preferences()))
}

// Load returns the persisted preferences merged over Defaults.
func (s *Store) Load() PlayerPreferences {
	ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
	defer cancel()

	raw, ok, err := s.kv.Get(ctx, constant.PreferencesKey)
	if err != nil {
		log.Warnw("preferences unreadable, using defaults", log.Fields{"error": err})
		return Defaults()
	}
	if !ok {
		return Defaults()
	}

	p, parsed := decode([]byte(raw))
	if !parsed {
		log.Warn("preferences record is corrupt, using defaults")
	}
	return p
}

// Save writes p as the whole record. Last write wins.
func (s *Store) Save(p PlayerPreferences) {
	data, err := encode(p)
	if err != nil {
		log.Warnw("encode preferences", log.Fields{"error": err})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
	defer cancel()

	if err := s.kv.Set(ctx, constant.PreferencesKey, string(data)); err != nil {
		log.Warnw("save preferences", log.Fields{"error": err})
	}
}

// Reset overwrites the record with Defaults.
func (s *Store) Reset() {
	s.Save(Defaults())
}
