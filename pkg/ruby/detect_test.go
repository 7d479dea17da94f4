package ruby

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestPinFileDetector(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantOK  bool
	}{
		{name: "plain", content: "3.2.5", want: "3.2.5", wantOK: true},
		{name: "trailing newline", content: "3.2.5\n", want: "3.2.5", wantOK: true},
		{name: "surrounding whitespace", content: "  3.3.0 \n\n", want: "3.3.0", wantOK: true},
		{name: "prefixed", content: "ruby-3.2.5", wantOK: false},
		{name: "partial", content: "3.2", wantOK: false},
		{name: "empty", content: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, PinFileName, tt.content)

			got, ok := (&PinFileDetector{}).Detect(dir)
			if ok != tt.wantOK {
				t.Fatalf("Detect() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.String() != tt.want {
				t.Errorf("Detect() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPinFileDetectorMissing(t *testing.T) {
	if _, ok := (&PinFileDetector{}).Detect(t.TempDir()); ok {
		t.Error("Detect() on empty dir should report false")
	}
}

func TestGemfileDetector(t *testing.T) {
	tests := []struct {
		name    string
		gemfile string
		want    string
		wantOK  bool
	}{
		{
			name:    "single quotes",
			gemfile: "source 'https://rubygems.org'\nruby '3.1.4'\ngem 'rails'\n",
			want:    "3.1.4",
			wantOK:  true,
		},
		{
			name:    "double quotes",
			gemfile: "source \"https://rubygems.org\"\n\nruby \"3.2.0\"\n",
			want:    "3.2.0",
			wantOK:  true,
		},
		{
			name:    "indented",
			gemfile: "  ruby '3.3.1'\n",
			want:    "3.3.1",
			wantOK:  true,
		},
		{
			name:    "no declaration",
			gemfile: "source 'https://rubygems.org'\ngem 'rake'\n",
			wantOK:  false,
		},
		{
			name:    "commented out",
			gemfile: "# ruby '3.1.4'\ngem 'rake'\n",
			wantOK:  false,
		},
		{
			name:    "first declaration unparsable",
			gemfile: "ruby '~> 3.2'\nruby '3.2.1'\n",
			wantOK:  false,
		},
		{
			name:    "file reference is not a literal",
			gemfile: "ruby file: '.ruby-version'\n",
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, GemfileName, tt.gemfile)

			got, ok := (&GemfileDetector{}).Detect(dir)
			if ok != tt.wantOK {
				t.Fatalf("Detect() ok = %v, want %v (version %s)", ok, tt.wantOK, got)
			}
			if ok && got.String() != tt.want {
				t.Errorf("Detect() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBundlerDetectorPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, GemfileName, "source 'https://rubygems.org'\nruby '3.1.4'\n")

	chain := NewBundlerDetector(nil)

	got, ok := chain.Detect(dir)
	if !ok || got.String() != "3.1.4" {
		t.Fatalf("Detect() with Gemfile only = %s, %v; want 3.1.4", got, ok)
	}

	// Adding a pin file overrides the Gemfile.
	writeFile(t, dir, PinFileName, "3.2.5\n")
	got, ok = chain.Detect(dir)
	if !ok || got.String() != "3.2.5" {
		t.Errorf("Detect() with pin file = %s, %v; want 3.2.5", got, ok)
	}
}

func TestBundlerDetectorFallsThroughMalformedPin(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, PinFileName, "latest please\n")
	writeFile(t, dir, GemfileName, "ruby '3.1.4'\n")

	got, ok := NewBundlerDetector(nil).Detect(dir)
	if !ok || got.String() != "3.1.4" {
		t.Errorf("Detect() = %s, %v; want 3.1.4 from Gemfile", got, ok)
	}
}

func TestCompositeDetectorExhausted(t *testing.T) {
	if _, ok := NewBundlerDetector(nil).Detect(t.TempDir()); ok {
		t.Error("Detect() with no sources should report false")
	}
	if _, ok := NewCompositeDetector(nil).Detect(t.TempDir()); ok {
		t.Error("empty chain should report false")
	}
}

type fixedDetector struct {
	name    string
	version string
	calls   *int
}

func (f fixedDetector) Name() string { return f.name }

func (f fixedDetector) Detect(string) (Version, bool) {
	*f.calls++
	if f.version == "" {
		return Version{}, false
	}
	return MustParseVersion(f.version), true
}

func TestCompositeDetectorOrder(t *testing.T) {
	var a, b, c int
	chain := NewCompositeDetector(nil,
		fixedDetector{name: "a", calls: &a},
		fixedDetector{name: "b", version: "3.3.0", calls: &b},
		fixedDetector{name: "c", version: "3.4.0", calls: &c},
	)

	got, ok := chain.Detect("ignored")
	if !ok || got.String() != "3.3.0" {
		t.Errorf("Detect() = %s, %v; want 3.3.0", got, ok)
	}
	if a != 1 || b != 1 || c != 0 {
		t.Errorf("calls = a:%d b:%d c:%d, want 1 1 0", a, b, c)
	}
	if chain.Name() != "composite" {
		t.Errorf("Name() = %q", chain.Name())
	}
}
