package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/flavioheleno/dcore/internal/logx"
	"github.com/flavioheleno/dcore/profile"
)

func init() { rootCmd.AddCommand(profilesCmd) }

var profilesCmd = &cobra.Command{
	Use:   profilesCmdStr,
	Short: `list display profiles`,
	Long:  `list the builtin display profiles, merged with --profiles when given`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		run(func(context.Context, logx.LoggerProvider) error {
			catalog, err := loadCatalog()
			if err != nil {
				return err
			}
			return listProfiles(os.Stdout, catalog)
		})
	},
}

var profilesCmdStr = "profiles"

func listProfiles(w io.Writer, catalog *profile.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tDRIVER\tMODEL\tSIZE\tROTATE\tINTERFACE\tFPS")
	for _, key := range catalog.Keys() {
		s, _ := catalog.Lookup(key)
		iface := string(s.Interface)
		if iface == "" {
			iface = "-"
		}
		fps := s.FPS
		if fps <= 0 {
			fps = profile.DefaultFPS
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%dx%d\t%d\t%s\t%d\n",
			key, s.Family, s.Model, s.Width, s.Height, s.Rotate.Degrees(), iface, fps)
	}
	return tw.Flush()
}
