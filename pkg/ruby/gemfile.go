package ruby

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strings"
)

// GemfileName is the bundler manifest file name.
const GemfileName = "Gemfile"

// Gemfile holds the declarations rb cares about in a bundler manifest.
type Gemfile struct {
	// Ruby is the quoted literal of the first `ruby '<version>'` line.
	// Empty when no such line exists.
	Ruby string

	// Gems lists `gem '<name>'` declarations in file order, deduplicated.
	Gems []string
}

var (
	rubyPattern = regexp.MustCompile(`^ruby \s*(?:'([^']*)'|"([^"]*)")`)
	gemPattern  = regexp.MustCompile(`^\s*gem\s+['"]([^'"]+)['"]`)
)

// ReadGemfile parses the Gemfile at path.
func ReadGemfile(path string) (*Gemfile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseGemfile(f)
}

// ParseGemfile scans a Gemfile line by line. It does not evaluate Ruby;
// only literal declarations are recognized.
func ParseGemfile(r io.Reader) (*Gemfile, error) {
	gf := &Gemfile{}
	seen := make(map[string]bool)
	rubyFound := false

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip comments
		if strings.HasPrefix(line, "#") {
			continue
		}

		if !rubyFound {
			if m := rubyPattern.FindStringSubmatch(line); m != nil {
				rubyFound = true
				gf.Ruby = m[1] + m[2]
				continue
			}
		}

		if m := gemPattern.FindStringSubmatch(line); len(m) > 1 {
			name := m[1]
			if !seen[name] {
				seen[name] = true
				gf.Gems = append(gf.Gems, name)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return gf, nil
}
