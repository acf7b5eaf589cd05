package manifest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/dialqa/dialqa/pkg/reaction"
)

// Manifest binds a call recording to the customer turns to audit.
type Manifest struct {
	Name      string          `yaml:"name"      json:"name"`
	Recording string          `yaml:"recording" json:"recording"`
	Turns     []reaction.Turn `yaml:"turns"     json:"turns"`

	// Path is the file the manifest was loaded from.
	Path string `yaml:"-" json:"-"`
}

// Load reads a single manifest file. A missing name defaults to the
// file base name, and a relative recording path is resolved against
// the manifest's directory.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %q: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %q: %w", path, err)
	}

	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if m.Recording == "" {
		return nil, fmt.Errorf("manifest %q: no recording", path)
	}
	if !filepath.IsAbs(m.Recording) {
		m.Recording = filepath.Join(filepath.Dir(path), m.Recording)
	}
	m.Path = path

	return &m, nil
}

// LoadDir loads every .yaml and .yml manifest in dir, in file name
// order.
func LoadDir(dir string) ([]*Manifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read manifest dir %q: %w", dir, err)
	}

	var manifests []*Manifest
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		m, err := Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}

// Watch watches dir and invokes handle for every manifest written
// there. Manifests that fail to load are logged and skipped. This
// blocks until the done channel is closed.
func Watch(dir string, done <-chan struct{}, handle func(*Manifest)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch dir %q: %w", dir, err)
	}

	for {
		select {
		case <-done:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			ext := filepath.Ext(event.Name)
			if ext != ".yaml" && ext != ".yml" {
				continue
			}
			m, err := Load(event.Name)
			if err != nil {
				slog.Warn("skipping manifest", slog.String("path", event.Name), slog.String("error", err.Error()))
				continue
			}
			handle(m)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

// ParseTurns parses a comma-separated list of start:end second pairs,
// e.g. "3.25:8.43,10:12.5".
func ParseTurns(s string) ([]reaction.Turn, error) {
	var turns []reaction.Turn
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		bounds := strings.SplitN(part, ":", 2)
		if len(bounds) != 2 {
			return nil, fmt.Errorf("turn %q: want start:end", part)
		}
		start, err := strconv.ParseFloat(strings.TrimSpace(bounds[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("turn %q: bad start: %v", part, err)
		}
		end, err := strconv.ParseFloat(strings.TrimSpace(bounds[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("turn %q: bad end: %v", part, err)
		}
		turns = append(turns, reaction.Turn{Start: start, End: end})
	}
	if len(turns) == 0 {
		return nil, fmt.Errorf("no turns in %q", s)
	}
	return turns, nil
}
