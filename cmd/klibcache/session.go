package main

import (
	"errors"
	"fmt"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"klibcache/internal/cache"
	"klibcache/internal/config"
	"klibcache/internal/library"
	"klibcache/internal/observ"
)

const noConfigMessage = "no klibcache.toml found\nplease pass --config path/to/klibcache.toml"

// session is the state shared by every subcommand: the loaded manifest and
// the registry resolved from it.
type session struct {
	manifest *config.Manifest
	registry *cache.Registry
	timer    *observ.Timer
	cleanup  func()
}

func openSession(cmd *cobra.Command) (*session, error) {
	return openSessionFS(cmd, osfs.New("/", osfs.WithBoundOS()))
}

func openSessionFS(cmd *cobra.Command, fs billy.Filesystem) (*session, error) {
	flags := cmd.Root().PersistentFlags()

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return nil, err
	}
	stopTracing, err := setupTracing(cmd)
	if err != nil {
		stopProfiling()
		return nil, err
	}
	s := &session{cleanup: func() {
		stopTracing()
		stopProfiling()
	}}
	if timings, _ := flags.GetBool("timings"); timings {
		s.timer = observ.NewTimer()
	}

	endLoad := s.timer.Start("load config")
	path, _ := flags.GetString("config")
	if path == "" {
		found, ok, err := config.Find(".")
		if err != nil {
			s.close(cmd)
			return nil, err
		}
		if !ok {
			s.close(cmd)
			return nil, errors.New(noConfigMessage)
		}
		path = found
	}
	s.manifest, err = config.Load(path)
	if err != nil {
		s.close(cmd)
		return nil, err
	}
	endLoad(path)

	opts := s.manifest.Options()
	if flags.Changed("jobs") {
		opts.Jobs, _ = flags.GetInt("jobs")
	}

	endResolve := s.timer.Start("resolve")
	s.registry, err = cache.NewRegistry(cmd.Context(), fs, library.Libraries(s.manifest.Modules()), opts)
	if err != nil {
		s.close(cmd)
		return nil, err
	}
	endResolve(fmt.Sprintf("%d cached", len(s.registry.Libraries())))
	return s, nil
}

// close releases tracing and prints timings when requested.
func (s *session) close(cmd *cobra.Command) {
	if s == nil {
		return
	}
	if s.timer != nil {
		fmt.Fprint(cmd.ErrOrStderr(), s.timer.Summary())
	}
	if s.cleanup != nil {
		s.cleanup()
	}
}

// library looks up a configured library by name or unique name.
func (s *session) library(name string) (library.Library, error) {
	lib, ok := s.manifest.Library(name)
	if !ok {
		return nil, fmt.Errorf("%s: unknown library %q", s.manifest.Path, name)
	}
	return lib, nil
}

// cacheOf returns the cache of a configured library or an error if it is uncached.
func (s *session) cacheOf(name string) (library.Library, cache.Cache, error) {
	lib, err := s.library(name)
	if err != nil {
		return nil, nil, err
	}
	c, ok := s.registry.LibraryCache(lib)
	if !ok {
		return lib, nil, fmt.Errorf("library %s is not cached", lib.LibraryName())
	}
	return lib, c, nil
}
