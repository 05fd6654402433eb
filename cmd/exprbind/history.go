package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/exprbind/pkg/exprbind/snapshot"
)

var historyLatest bool

var historyCmd = &cobra.Command{
	Use:   "history SESSION",
	Short: "List the snapshots recorded by a watch session",
	Long: `Lists the snapshots stored for SESSION in the database named by
snapshot_path in the settings file. --latest prints the most recent model
as YAML instead.

Example:
  exprbind history demo -c settings.yaml
  exprbind history demo -c settings.yaml --latest`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&historyLatest, "latest", false, "print the latest model as YAML")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if settings.SnapshotPath == "" {
		return errors.New("history needs snapshot_path in the settings file")
	}
	store, err := snapshot.NewSQLiteStore(settings.SnapshotPath)
	if err != nil {
		return err
	}
	defer store.Close()

	session := args[0]
	out := cmd.OutOrStdout()

	if historyLatest {
		model, err := snapshot.Restore(store, session)
		if err != nil {
			return fmt.Errorf("session %s: %w", session, err)
		}
		return writeYAML(out, model)
	}

	infos, err := store.List(session)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		return fmt.Errorf("session %s: %w", session, snapshot.ErrNotFound)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tTIME\tBYTES")
	for _, info := range infos {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", info.Sequence, info.Timestamp.Format(time.RFC3339), info.Size)
	}
	return tw.Flush()
}
