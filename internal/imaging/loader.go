package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
)

// FrameCache caches decoded image files as RGBA frames keyed by path.
//
// FrameCache is safe for concurrent use. Cached frames stay in memory for
// the lifetime of the cache.
type FrameCache struct {
	mu     sync.RWMutex
	frames map[string]Frame
}

// NewFrameCache creates an empty cache.
func NewFrameCache() *FrameCache {
	return &FrameCache{
		frames: make(map[string]Frame),
	}
}

// Load returns the frame for path, decoding it from disk on first use.
// JPEG EXIF orientation is applied, so phone photos come out upright.
func (c *FrameCache) Load(path string) (Frame, error) {
	c.mu.RLock()
	if f, ok := c.frames[path]; ok {
		c.mu.RUnlock()
		return f, nil
	}
	c.mu.RUnlock()

	img, err := decodeFile(path)
	if err != nil {
		return Frame{}, err
	}
	f := FrameFromImage(img)

	c.mu.Lock()
	c.frames[path] = f
	c.mu.Unlock()

	return f, nil
}

func decodeFile(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return img, nil
}

// ImageExtensions lists the file extensions ListFrames picks up.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff"}

// ListFrames returns the image files in dir sorted by name. A path to a
// single image file is returned as a one-element list.
func ListFrames(path string) ([]string, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !st.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range ImageExtensions {
			if ext == want {
				files = append(files, filepath.Join(path, e.Name()))
				break
			}
		}
	}
	sort.Strings(files)

	if len(files) == 0 {
		return nil, fmt.Errorf("no images found in %s", path)
	}
	return files, nil
}

// Sequence replays a fixed list of image files as a frame source. Each call
// to Frame advances to the next file; once exhausted, the last frame is
// repeated when Loop is false, or the sequence restarts when it is true.
//
// Sequence is safe for concurrent use.
type Sequence struct {
	Loop bool

	mu    sync.Mutex
	cache *FrameCache
	paths []string
	next  int
	last  string
}

// NewSequence creates a sequence over paths, decoding through cache.
func NewSequence(cache *FrameCache, paths []string) *Sequence {
	return &Sequence{cache: cache, paths: paths}
}

// Frame returns the next frame, or false when the file cannot be decoded or
// the sequence is empty.
func (s *Sequence) Frame() (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.paths) == 0 {
		return Frame{}, false
	}
	idx := s.next
	if idx >= len(s.paths) {
		if s.Loop {
			idx = 0
		} else {
			idx = len(s.paths) - 1
		}
	}
	s.next = idx + 1
	s.last = s.paths[idx]

	f, err := s.cache.Load(s.last)
	if err != nil {
		return Frame{}, false
	}
	return f, true
}

// Current returns the path of the last frame handed out.
func (s *Sequence) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
