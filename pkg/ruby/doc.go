// Package ruby discovers installed Ruby interpreters and detects the Ruby
// version a project asks for.
//
// # Discovery
//
// [Discover] scans a rubies directory (usually ~/.rubies) for
// subdirectories named ruby-MAJOR.MINOR.PATCH and returns them as
// [Runtime] values sorted latest first:
//
//	rubies, err := ruby.Discover("/home/me/.rubies")
//	latest, ok := ruby.Latest(rubies)
//
// A missing rubies directory is reported with the RUBIES_DIR_NOT_FOUND
// code so callers can tell "no rubies" apart from "wrong path".
//
// # Version Detection
//
// A [VersionDetector] extracts a required version from a project
// directory. [CompositeDetector] tries an explicit, ordered list and
// returns the first match. [NewBundlerDetector] builds the standard
// chain: the .ruby-version pin file first, then the ruby declaration in
// the Gemfile. Unparsable versions are logged and treated as "no match";
// detection never fails.
//
// Nothing in this package caches: every call reads the filesystem again.
package ruby
