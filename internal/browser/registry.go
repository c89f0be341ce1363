package browser

import (
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
)

//go:embed browsers.toml
var browsersTOML []byte

// Definition describes how a browser is invoked.
type Definition struct {
	Description string   `toml:"description"`
	Platforms   []string `toml:"platforms"`
	Args        []string `toml:"args"`
}

type registryFile struct {
	Browsers map[string]Definition `toml:"browsers"`
}

// Registry maps browser commands to their invocation arguments.
type Registry struct {
	browsers map[string]Definition
	goos     string
}

// NewRegistry loads the built-in definitions and merges the user's
// browsers.toml from the config directory when present.
func NewRegistry() (*Registry, error) {
	r, err := parseRegistry(browsersTOML)
	if err != nil {
		return nil, fmt.Errorf("parsing browsers.toml: %w", err)
	}
	r.loadUserConfig(filepath.Join(xdg.ConfigHome, "headlines", "browsers.toml"))
	return r, nil
}

func parseRegistry(data []byte) (*Registry, error) {
	var f registryFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Browsers == nil {
		f.Browsers = make(map[string]Definition)
	}
	return &Registry{browsers: f.Browsers, goos: runtime.GOOS}, nil
}

func (r *Registry) loadUserConfig(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	user, err := parseRegistry(data)
	if err != nil {
		return
	}
	for name, def := range user.browsers {
		r.browsers[name] = def
	}
}

// Supported reports whether name is usable on this platform. Unknown
// commands are assumed to work everywhere.
func (r *Registry) Supported(name string) bool {
	def, ok := r.browsers[name]
	if !ok || len(def.Platforms) == 0 {
		return true
	}
	for _, p := range def.Platforms {
		if p == r.goos {
			return true
		}
	}
	return false
}

// Command builds the command that opens url with the named browser.
func (r *Registry) Command(name, url string) (*exec.Cmd, error) {
	if !r.Supported(name) {
		return nil, fmt.Errorf("%s not supported on %s", name, r.goos)
	}
	var args []string
	if def, ok := r.browsers[name]; ok {
		args = append(args, def.Args...)
	}
	args = append(args, url)
	return exec.Command(name, args...), nil
}
