// Package config loads the screen bindings and frame inputs of a dcore
// deployment from YAML and validates them against the profile catalog.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/flavioheleno/dcore/internal/errors"
	"github.com/flavioheleno/dcore/profile"
)

// Screen binds a screen name to a hardware profile and its default input.
type Screen struct {
	Name         string `yaml:"-"`
	Profile      string `yaml:"name"`
	DefaultInput string `yaml:"default_input"`
}

// FrameInput names a local raster file.
type FrameInput struct {
	Name string `yaml:"-"`
	Path string `yaml:"path"`
}

// Config is the validated in-memory configuration. It is not modified once
// returned by Load or Parse.
type Config struct {
	Screens     map[string]Screen     `yaml:"screens"`
	FrameInputs map[string]FrameInput `yaml:"frame_inputs"`
}

// Error reports a malformed or incomplete configuration.
type Error struct {
	Screen string
	Field  string
	Msg    string
}

func (e *Error) Error() string {
	if e.Screen != "" {
		return fmt.Sprintf("config: screen %q: %s: %s", e.Screen, e.Field, e.Msg)
	}
	if e.Field != "" {
		return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
	}
	return "config: " + e.Msg
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(&Error{Field: "file", Msg: err.Error()})
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a configuration document. Unknown keys are rejected.
func Parse(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.New(err)
	}
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if err == io.EOF {
			return nil, errors.New(&Error{Msg: "empty document"})
		}
		return nil, errors.New(&Error{Msg: err.Error()})
	}
	if len(cfg.Screens) == 0 {
		return nil, errors.New(&Error{Field: "screens", Msg: "at least one screen is required"})
	}
	for name, s := range cfg.Screens {
		s.Name = name
		if s.Profile == "" {
			return nil, errors.New(&Error{Screen: name, Field: "name", Msg: "missing profile key"})
		}
		cfg.Screens[name] = s
	}
	for name, in := range cfg.FrameInputs {
		in.Name = name
		if in.Path == "" {
			return nil, errors.New(&Error{Field: "frame_inputs." + name + ".path", Msg: "missing path"})
		}
		cfg.FrameInputs[name] = in
	}
	return cfg, nil
}

// UnknownProfileError is returned by Validate when a screen names a profile
// key absent from the catalog.
type UnknownProfileError struct {
	Screen  string
	Profile string
}

func (e *UnknownProfileError) Error() string {
	return fmt.Sprintf("config: screen %q: unsupported display profile %q", e.Screen, e.Profile)
}

// Validate checks that every screen references an existing profile. Missing
// default inputs are not an error here: the render loop skips such screens.
func (c *Config) Validate(catalog *profile.Catalog) error {
	for _, name := range c.ScreenNames() {
		s := c.Screens[name]
		if _, ok := catalog.Lookup(s.Profile); !ok {
			return errors.New(&UnknownProfileError{Screen: name, Profile: s.Profile})
		}
	}
	return nil
}

// ScreenNames returns the screen names in sorted order.
func (c *Config) ScreenNames() []string {
	names := make([]string, 0, len(c.Screens))
	for n := range c.Screens {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Input resolves the default input of screen.
func (c *Config) Input(screen string) (FrameInput, bool) {
	s, ok := c.Screens[screen]
	if !ok || s.DefaultInput == "" {
		return FrameInput{}, false
	}
	in, ok := c.FrameInputs[s.DefaultInput]
	return in, ok
}
