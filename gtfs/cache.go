package gtfs

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
)

// cacheFile derives the cache file name from the feed source key, so a
// changed staticURL or agency filter misses the cache instead of reusing a
// stale index.
func cacheFile(dir, key string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return filepath.Join(dir, fmt.Sprintf("schedule-%016x.gob", h.Sum64()))
}

// SaveCachedIndex writes a gob-encoded Index under dir so later runs can
// skip downloading and re-parsing the static feed.
func SaveCachedIndex(g *Index, dir, key string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(g); err != nil {
		return fmt.Errorf("encode gtfs index: %w", err)
	}
	return os.WriteFile(cacheFile(dir, key), buf.Bytes(), 0644)
}

// LoadCachedIndex reads a previously saved Index for the same feed source.
func LoadCachedIndex(dir, key string) (*Index, error) {
	data, err := os.ReadFile(cacheFile(dir, key))
	if err != nil {
		return nil, err
	}
	var g Index
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&g); err != nil {
		return nil, fmt.Errorf("decode gtfs index: %w", err)
	}
	return &g, nil
}
