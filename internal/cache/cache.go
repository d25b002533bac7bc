// Package cache stores JSON-encoded script responses under the cache directory with a fixed TTL.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anisan-cli/anistream/filesystem"
	"github.com/anisan-cli/anistream/log"
	"github.com/anisan-cli/anistream/where"
)

const TTL = 24 * time.Hour

// GenerateKey derives a file-safe key from a query and a namespace.
func GenerateKey(query, namespace string) string {
	sanitized := strings.ToLower(strings.ReplaceAll(query, " ", "")) + namespace
	hash := sha256.Sum256([]byte(sanitized))
	return hex.EncodeToString(hash[:])
}

// Read decodes the entry under key into target. It reports false on a miss or an expired entry.
func Read(key string, target any) bool {
	path := filepath.Join(where.Cache(), key)

	info, err := filesystem.API().Stat(path)
	if err != nil || time.Since(info.ModTime()) > TTL {
		return false
	}

	data, err := filesystem.API().ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, target) == nil
}

// Write stores data under key, replacing the previous entry atomically.
func Write(key string, data any) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return err
	}

	path := filepath.Join(where.Cache(), key)
	tmpPath := path + ".tmp"
	if err := filesystem.API().WriteFile(tmpPath, encoded, os.ModePerm); err != nil {
		return err
	}
	return filesystem.API().Rename(tmpPath, path)
}

// CollectGarbage removes expired entries. It returns how many were removed.
func CollectGarbage() int {
	removed := 0
	err := filesystem.API().Walk(where.Cache(), func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if time.Since(info.ModTime()) > TTL {
			if filesystem.API().Remove(path) == nil {
				removed++
			}
		}
		return nil
	})
	if err != nil {
		log.Warnf("cache cleanup: %v", err)
	}
	return removed
}
