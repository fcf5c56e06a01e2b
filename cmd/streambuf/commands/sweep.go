package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one eviction sweep on a running server",
	Long: `Ask a running server to evict idle sessions now instead of waiting
for the next scheduled sweep. At most accumulator.clean_batch_size users are
visited; run it again to continue the round.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newClient().Sweep()
		if err != nil {
			return err
		}
		round := "round in progress"
		if res.RoundComplete {
			round = "round complete"
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Visited %d user(s), evicted %d session(s) in %s (%s)\n",
			res.VisitedUsers, res.Evicted, res.Duration, round)
		return nil
	},
}

func init() {
	sweepCmd.Flags().IntVar(&apiPort, "api-port", 8080, "API server port")
}
