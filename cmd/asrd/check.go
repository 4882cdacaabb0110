package main

import (
	"encoding/json"
	"os/exec"

	"github.com/spf13/cobra"

	"asrd/internal/bootstrap"
	"asrd/internal/manager"
)

type dependencyStatus struct {
	Binary      string `json:"binary"`
	Found       bool   `json:"found"`
	Path        string `json:"path,omitempty"`
	Remediation string `json:"remediation,omitempty"`
}

type checkReport struct {
	OK           bool                        `json:"ok"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
	ASR          manager.SanityReport        `json:"asr"`
}

func newCheckCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report required dependencies and the ASR runtime as JSON",
		Long:  "check runs the startup dependency checks plus a non-fatal inspection of the ASR runtime and model file. It exits non-zero only when a startup dependency is missing.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reqs := []bootstrap.Requirement{bootstrap.FFmpegRequirement(c.cfg.FFmpegBin)}
			found, missing := bootstrap.Check(reqs, exec.LookPath)

			rep := checkReport{OK: len(missing) == 0, Dependencies: map[string]dependencyStatus{}}
			for _, r := range reqs {
				p, ok := found[r.Name]
				st := dependencyStatus{Binary: r.Binary, Found: ok, Path: p}
				if !ok {
					st.Remediation = r.Remediation
				}
				rep.Dependencies[r.Name] = st
			}
			comp, err := c.build()
			if err != nil {
				return err
			}
			rep.ASR = comp.manager.SanityCheck(cmd.Context())

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(rep); err != nil {
				return err
			}
			if !rep.OK {
				return errStartup
			}
			return nil
		},
	}
}
