package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/flavioheleno/dcore/device"
	"github.com/flavioheleno/dcore/internal/errors"
	"github.com/flavioheleno/dcore/internal/logx"
)

func init() { rootCmd.AddCommand(clearCmd) }

var clearCmd = &cobra.Command{
	Use:   clearCmdStr + ` [SCREEN]`,
	Short: `blank one or all screens`,
	Long:  `initialize the configured screens, blank the named one (all of them without argument) and release the panels`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(clearFunc(args))
	},
}

var clearCmdStr = "clear"

func clearFunc(args []string) command {
	return func(ctx context.Context, logger logx.LoggerProvider) (err error) {
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		cfg, err := loadConfig(catalog)
		if err != nil {
			return err
		}
		var name string
		var names []string
		if len(args) == 1 {
			name = args[0]
			names = []string{name}
		}
		reg, err := openScreens(cfg, catalog, &device.HostOpener{}, names, logger)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, reg.Close()) }()
		return reg.Clear(ctx, name)
	}
}
