package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"asrd/internal/common/fsutil"
	"asrd/internal/whisper"
)

func newModelsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List known models and whether they are downloaded",
		RunE: func(cmd *cobra.Command, _ []string) error {
			comp, err := c.build()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tFILE\tPRESENT\tDEFAULT")
			for _, m := range whisper.Models() {
				present := "no"
				if rm, err := comp.loader.Resolve(m.Name); err == nil && !rm.NeedsDownload {
					present = "yes"
				}
				def := ""
				if m.Name == c.cfg.Model {
					def = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Name, m.FileName, present, def)
			}
			// custom weights dropped into the directory by hand
			if dir, err := fsutil.ExpandHome(c.cfg.ModelDir); err == nil {
				local, err := whisper.ScanDir(dir)
				if err != nil {
					return err
				}
				for _, lm := range local {
					if !lm.Known {
						fmt.Fprintf(tw, "%s\t%s\t%s\t\n", lm.Path, lm.Name, "yes")
					}
				}
			}
			return tw.Flush()
		},
	}

	pull := &cobra.Command{
		Use:     "pull [name]",
		Short:   "Download a model into the model directory",
		Example: "  asrd models pull base",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := c.cfg.Model
			if len(args) == 1 {
				name = args[0]
			}
			if _, ok := whisper.LookupModel(name); !ok {
				return fmt.Errorf("unknown model %q (known models: %v)", name, whisper.ModelNames())
			}
			comp, err := c.build()
			if err != nil {
				return err
			}
			rm, err := comp.loader.Resolve(name)
			if err != nil {
				return err
			}
			if !rm.NeedsDownload {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already present at %s\n", name, rm.Path)
				return nil
			}
			if err := comp.loader.Fetch(cmd.Context(), rm); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "downloaded %s to %s\n", name, rm.Path)
			return nil
		},
	}
	cmd.AddCommand(pull)
	return cmd
}
