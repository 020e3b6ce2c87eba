package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/gallerypipe"
	"github.com/five82/gallerypipe/internal/logging"
)

func newCheckCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify that ffmpeg and ffprobe can be invoked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}
			pipe, err := gallerypipe.New(
				gallerypipe.WithConfig(cfg),
				gallerypipe.WithLogger(logging.Discard().Logger),
			)
			if err != nil {
				return err
			}
			return runCheck(cmd, pipe)
		},
	}
}

func runCheck(cmd *cobra.Command, pipe *gallerypipe.Pipeline) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	statuses := pipe.CheckTools(ctx)

	rows := make([][]string, 0, len(statuses))
	var missing []string
	for _, st := range statuses {
		state := "ok"
		detail := st.Version
		if !st.Available {
			state = "missing"
			detail = st.Detail
			missing = append(missing, st.Name)
		}
		rows = append(rows, []string{st.Name, state, st.Command, detail})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable([]string{"Tool", "Status", "Command", "Details"}, rows, nil))

	if len(missing) > 0 {
		return fmt.Errorf("unavailable tools: %s", strings.Join(missing, ", "))
	}
	return nil
}
