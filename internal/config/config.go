// Package config loads klibcache.toml, the description of one compilation's
// libraries and cache search locations.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	platformerrors "github.com/jmgilman/go/errors"

	"klibcache/internal/cache"
	"klibcache/internal/library"
	"klibcache/internal/target"
)

// FileName is the configuration file looked up from the working directory.
const FileName = "klibcache.toml"

// Manifest is a loaded configuration together with its location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors klibcache.toml.
type Config struct {
	Target       string          `toml:"target"`
	Jobs         int             `toml:"jobs"`
	ImplicitDirs []string        `toml:"implicit_dirs"`
	Auto         AutoConfig      `toml:"auto"`
	Libraries    []LibraryConfig `toml:"library"`
}

// AutoConfig configures the auto-cache directory.
type AutoConfig struct {
	Dir           string   `toml:"dir"`
	CacheableFrom []string `toml:"cacheable_from"`
}

// LibraryConfig describes one library of the compilation.
type LibraryConfig struct {
	Name       string `toml:"name"`
	UniqueName string `toml:"unique_name"`
	Path       string `toml:"path"`
	Interop    bool   `toml:"interop"`
	// Cache is an explicit cache path; the library must be cached there.
	Cache string `toml:"cache"`
}

// Find walks up from startDir looking for klibcache.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load parses and validates the configuration at path.
func Load(path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	var cfg Config
	meta, err := toml.DecodeFile(abs, &cfg)
	if err != nil {
		return nil, platformerrors.Wrapf(err, platformerrors.CodeInvalidConfig, "%s: failed to parse TOML", abs)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, platformerrors.Newf(platformerrors.CodeInvalidConfig, "%s: unknown key %s", abs, undecoded[0])
	}
	if !meta.IsDefined("library") || len(cfg.Libraries) == 0 {
		return nil, platformerrors.Newf(platformerrors.CodeInvalidConfig, "%s: missing [[library]]", abs)
	}
	m := &Manifest{Path: abs, Root: filepath.Dir(abs), Config: cfg}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manifest) validate() error {
	if m.Config.Target != "" {
		if _, err := target.ParseTarget(m.Config.Target); err != nil {
			return platformerrors.Wrapf(err, platformerrors.CodeInvalidConfig, "%s: invalid target", m.Path)
		}
	}
	if m.Config.Jobs < 0 {
		return platformerrors.Newf(platformerrors.CodeInvalidConfig, "%s: jobs must not be negative", m.Path)
	}
	seen := make(map[string]int, len(m.Config.Libraries))
	for i, lc := range m.Config.Libraries {
		unique := lc.unique()
		if unique == "" {
			return platformerrors.Newf(platformerrors.CodeInvalidConfig, "%s: library #%d has neither name nor unique_name", m.Path, i+1)
		}
		if prev, dup := seen[unique]; dup {
			return platformerrors.Newf(platformerrors.CodeInvalidConfig, "%s: library %q declared twice (#%d and #%d)", m.Path, unique, prev+1, i+1)
		}
		seen[unique] = i
	}
	return nil
}

func (lc LibraryConfig) unique() string {
	if u := strings.TrimSpace(lc.UniqueName); u != "" {
		return u
	}
	return strings.TrimSpace(lc.Name)
}

// Target returns the configured target, or the host target when unset.
func (m *Manifest) Target() target.Target {
	if t, err := target.ParseTarget(m.Config.Target); err == nil {
		return t
	}
	return target.Host()
}

// Libraries returns library handles in declaration order.
func (m *Manifest) Libraries() []library.Library {
	out := make([]library.Library, len(m.Config.Libraries))
	for i, lc := range m.Config.Libraries {
		file := ""
		if lc.Path != "" {
			file = m.resolve(lc.Path)
		}
		out[i] = library.NewKlib(lc.unique(), strings.TrimSpace(lc.Name), file, lc.Interop)
	}
	return out
}

// Modules returns one deserialized module descriptor per library.
func (m *Manifest) Modules() []*library.Module {
	libs := m.Libraries()
	out := make([]*library.Module, len(libs))
	for i, lib := range libs {
		out[i] = library.NewModule(lib.LibraryName(), library.Deserialized{Library: lib})
	}
	return out
}

// Options converts the configuration to registry options.
// Relative paths resolve against the configuration's directory.
func (m *Manifest) Options() cache.Options {
	opts := cache.Options{
		Target:   m.Target(),
		Explicit: make(map[string]string),
		Jobs:     m.Config.Jobs,
	}
	for _, lc := range m.Config.Libraries {
		if lc.Cache != "" {
			opts.Explicit[lc.unique()] = m.resolve(lc.Cache)
		}
	}
	for _, dir := range m.Config.ImplicitDirs {
		opts.ImplicitDirs = append(opts.ImplicitDirs, m.resolve(dir))
	}
	if m.Config.Auto.Dir != "" {
		opts.AutoCacheDir = m.resolve(m.Config.Auto.Dir)
		for _, dir := range m.Config.Auto.CacheableFrom {
			opts.AutoCacheableFrom = append(opts.AutoCacheableFrom, m.resolve(dir))
		}
	}
	return opts
}

// Library finds a configured library by name or unique name.
func (m *Manifest) Library(name string) (library.Library, bool) {
	for _, lib := range m.Libraries() {
		if lib.UniqueName() == name || lib.LibraryName() == name {
			return lib, true
		}
	}
	return nil, false
}

func (m *Manifest) resolve(p string) string {
	p = filepath.FromSlash(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(m.Root, p)
}
