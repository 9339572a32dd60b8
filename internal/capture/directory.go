package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"yoga-guide/internal/common/logger"
	"yoga-guide/internal/models"
)

var ErrNoFrames = errors.New("capture: no image files in directory")

// DirectorySource replays the JPEG and PNG files of a directory, in name
// order, at a fixed frame rate.
type DirectorySource struct {
	dir    string
	fps    float64
	loop   bool
	logger logger.Logger

	mu      sync.RWMutex
	current models.Frame
	ready   bool
	seq     uint64

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func NewDirectorySource(dir string, fps float64, loop bool, log logger.Logger) *DirectorySource {
	if fps <= 0 {
		fps = 30
	}
	return &DirectorySource{dir: dir, fps: fps, loop: loop, logger: log}
}

func (s *DirectorySource) Open(ctx context.Context) error {
	files, err := listImages(s.dir)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(runCtx, files)
	return nil
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("capture: open %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFrames, dir)
	}

	sort.Strings(files)
	return files, nil
}

func (s *DirectorySource) run(ctx context.Context, files []string) {
	defer close(s.done)

	ticker := time.NewTicker(time.Duration(float64(time.Second) / s.fps))
	defer ticker.Stop()

	i := 0
	for {
		s.load(files[i])

		i++
		if i == len(files) {
			if !s.loop {
				return
			}
			i = 0
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *DirectorySource) load(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("frame read failed", map[string]interface{}{"path": path, "error": err.Error()})
		return
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		s.logger.Warn("frame decode failed", map[string]interface{}{"path": path, "error": err.Error()})
		return
	}

	s.mu.Lock()
	s.seq++
	s.current = models.Frame{
		Seq:       s.seq,
		Timestamp: time.Now(),
		Width:     cfg.Width,
		Height:    cfg.Height,
		Format:    format,
		Data:      data,
	}
	s.ready = true
	s.mu.Unlock()
}

// Ready reports whether at least one frame has been decoded.
func (s *DirectorySource) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

func (s *DirectorySource) Current() (models.Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.ready
}

// Close stops playback. It is safe to call more than once.
func (s *DirectorySource) Close() error {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
			<-s.done
		}
		s.mu.Lock()
		s.ready = false
		s.mu.Unlock()
	})
	return nil
}
