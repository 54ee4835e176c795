package main

import (
	"github.com/flavioheleno/dcore/config"
	"github.com/flavioheleno/dcore/device"
	"github.com/flavioheleno/dcore/internal/errors"
	"github.com/flavioheleno/dcore/internal/logx"
	"github.com/flavioheleno/dcore/profile"
	"github.com/flavioheleno/dcore/registry"
)

func loadCatalog() (*profile.Catalog, error) {
	catalog := profile.Default()
	if len(profilesFlag) == 0 {
		return catalog, nil
	}
	return catalog.LoadOverlay(profilesFlag)
}

func loadConfig(catalog *profile.Catalog) (*config.Config, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(catalog); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openScreens initializes the panels of the named screens, all of them when
// names is empty. Panels opened before a failure are released again.
func openScreens(cfg *config.Config, catalog *profile.Catalog, o device.BusOpener, names []string, logger logx.LoggerProvider) (*registry.Registry, error) {
	if len(names) == 0 {
		names = cfg.ScreenNames()
	}
	handles := make(map[string]*device.Handle, len(names))
	release := func() {
		for _, h := range handles {
			_ = h.Close()
		}
	}
	for _, name := range names {
		s, ok := cfg.Screens[name]
		if !ok {
			release()
			return nil, errors.Errorf("%w: %q", registry.ErrUnknownScreen, name)
		}
		spec, ok := catalog.Lookup(s.Profile)
		if !ok {
			release()
			return nil, errors.New(&config.UnknownProfileError{Screen: name, Profile: s.Profile})
		}
		h, err := device.Open(spec, o, device.WithLogger(logger))
		if err != nil {
			release()
			return nil, errors.WrapPrefix(err, "screen "+name+" (profile "+s.Profile+")", 0)
		}
		handles[name] = h
	}
	reg, err := registry.New(handles, logger)
	if err != nil {
		release()
		return nil, err
	}
	return reg, nil
}
