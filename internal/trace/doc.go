// Package trace provides the tracing subsystem used while resolving caches.
//
// Resolution is a single synchronous pass, so tracing is the main window
// into which directories were probed and why a library ended up cached or
// uncached.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	klibcache resolve --trace=- --trace-level=detail
//
// # Levels
//
//   - LevelOff: No tracing
//   - LevelError: Only failures
//   - LevelPhase: Registry construction boundaries
//   - LevelDetail: Per-library resolution
//   - LevelDebug: Every probed directory
//
// # Scopes
//
//   - ScopeRegistry: Registry construction and aggregate queries
//   - ScopeLibrary: Resolution of a single library
//   - ScopeProbe: A single candidate directory
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeLibrary, "library:foo", parentID)
//	defer span.End("")
package trace
