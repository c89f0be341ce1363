// Package browser opens article links in the user's web browser.
package browser

import (
	"fmt"
	"os/exec"

	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/validation"
)

// Target is what the detail view hands over when the user opens a source.
type Target struct {
	URL   string
	Title string
}

// Opener opens a target outside the terminal.
type Opener interface {
	Open(target Target) error
}

type Launcher struct {
	command   string
	registry  *Registry
	validator *validation.URLValidator
}

func NewLauncher(cfg config.BrowserConfig) *Launcher {
	registry, err := NewRegistry()
	if err != nil {
		debuglog.Warnf("browser registry: %v", err)
		registry = &Registry{browsers: make(map[string]Definition)}
	}
	return newLauncher(cfg, registry)
}

func newLauncher(cfg config.BrowserConfig, registry *Registry) *Launcher {
	command := findCommand(registry, cfg.Preferred...)
	if command == "" {
		command = cfg.DefaultOpener
	}
	return &Launcher{
		command:   command,
		registry:  registry,
		validator: validation.NewLinkValidator(),
	}
}

// Command is the browser that Open will run.
func (l *Launcher) Command() string {
	return l.command
}

// Open validates the target URL and starts the browser detached.
func (l *Launcher) Open(target Target) error {
	url, err := l.validator.ValidateAndNormalize(target.URL)
	if err != nil {
		return fmt.Errorf("refusing to open %q: %w", target.URL, err)
	}
	if l.command == "" {
		return fmt.Errorf("no browser configured")
	}

	cmd, err := l.registry.Command(l.command, url)
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", l.command, err)
	}
	debuglog.Infof("opened %q in %s", target.Title, l.command)

	go func() {
		_ = cmd.Wait()
	}()

	return nil
}

func findCommand(registry *Registry, commands ...string) string {
	for _, cmd := range commands {
		if !registry.Supported(cmd) {
			continue
		}
		if _, err := exec.LookPath(cmd); err == nil {
			return cmd
		}
	}
	return ""
}
