package main

import (
	"context"
	"image"

	"github.com/spf13/cobra"

	"github.com/flavioheleno/dcore/adapt"
	"github.com/flavioheleno/dcore/device"
	"github.com/flavioheleno/dcore/internal/errors"
	"github.com/flavioheleno/dcore/internal/logx"
	"github.com/flavioheleno/dcore/render"
)

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&onceFlag, `once`, false, `release the panel right after drawing instead of waiting for a signal`)
}

var showCmd = &cobra.Command{
	Use:   showCmdStr + ` IMAGE SCREEN`,
	Short: `display an image file on a screen`,
	Long:  `clear a configured screen and display the image file on it; without --once the panel is held until interrupted`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		run(showFunc(args[0], args[1]))
	},
}

var (
	showCmdStr = "show"
	onceFlag   bool
)

func showFunc(path, screen string) command {
	return func(ctx context.Context, logger logx.LoggerProvider) error {
		img, err := render.DecodeFile(path)
		if err != nil {
			return err
		}
		return showOn(ctx, screen, logger, func(adapt.Target) image.Image { return img })
	}
}

// showOn opens a single screen, clears it and presents the frame built for
// its target. The panel stays lit until ctx ends unless --once is set.
func showOn(ctx context.Context, screen string, logger logx.LoggerProvider, frame func(adapt.Target) image.Image) (err error) {
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(catalog)
	if err != nil {
		return err
	}
	reg, err := openScreens(cfg, catalog, &device.HostOpener{}, []string{screen}, logger)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, reg.Close()) }()

	if err := reg.Clear(ctx, screen); err != nil {
		return err
	}
	target, _ := reg.Target(screen)
	if err := reg.Present(ctx, screen, frame(target)); err != nil {
		if !errors.Is(err, device.ErrPresentationCapabilityMissing) {
			return err
		}
		logx.Warn("display not supported", logger, "screen", screen)
		return nil
	}
	logx.Info("frame shown", logger, "screen", screen)
	if onceFlag {
		return nil
	}
	<-ctx.Done()
	return nil
}
