// Package pkg provides the core libraries behind rb, the Ruby environment
// manager.
//
// # Overview
//
// rb finds installed Ruby interpreters, picks the one a project asks for and
// runs commands with PATH, GEM_HOME and GEM_PATH composed for it. The pkg
// directory is organized by concern:
//
//  1. [ruby] - Interpreter discovery, versions and version detection
//  2. [gems] - Gem directory layout and the gem path detector chain
//  3. [bundler] - Bundler projects and driving the bundle executable
//  4. [butler] - Runtime selection, environment composition, command execution
//  5. [project] - rbproject.toml scripts
//  6. [config] - Layered settings with source tracking
//
// Shared infrastructure lives in [errors], [observability] and [buildinfo].
//
// # Architecture
//
// The typical data flow for `rb exec`:
//
//	rubies dir + working dir
//	         ↓
//	    [ruby.Discover] (installed interpreters, newest first)
//	         ↓
//	    [bundler.Detect] + [ruby.NewBundlerDetector] (project and required version)
//	         ↓
//	    [gems.NewChain] (custom base, bundler isolation or user gems)
//	         ↓
//	    [butler.Runtime] (PATH, GEM_HOME, GEM_PATH, BUNDLE_*)
//	         ↓
//	    [butler.Command] (bundle exec when inside a project)
//
// # Quick Start
//
// Compose the environment for the current directory and run a program:
//
//	import (
//	    "context"
//	    "os"
//
//	    "github.com/rubyelders/rb/pkg/butler"
//	)
//
//	func main() {
//	    rt, err := butler.Discover(butler.Options{RubiesDir: "/opt/rubies"})
//	    if err != nil {
//	        panic(err)
//	    }
//	    cmd := rt.Command("ruby", "-v")
//	    cmd.Stdout = os.Stdout
//	    if err := cmd.Run(context.Background()); err != nil {
//	        panic(err)
//	    }
//	}
//
// Nothing in these packages caches. Every call re-reads the filesystem, so a
// Gemfile edited between two calls is seen by the second.
//
// [ruby]: https://pkg.go.dev/github.com/rubyelders/rb/pkg/ruby
// [gems]: https://pkg.go.dev/github.com/rubyelders/rb/pkg/gems
// [bundler]: https://pkg.go.dev/github.com/rubyelders/rb/pkg/bundler
// [butler]: https://pkg.go.dev/github.com/rubyelders/rb/pkg/butler
// [project]: https://pkg.go.dev/github.com/rubyelders/rb/pkg/project
// [config]: https://pkg.go.dev/github.com/rubyelders/rb/pkg/config
// [errors]: https://pkg.go.dev/github.com/rubyelders/rb/pkg/errors
// [observability]: https://pkg.go.dev/github.com/rubyelders/rb/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/rubyelders/rb/pkg/buildinfo
package pkg
