package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/vango-dev/observable/internal/config"
	"github.com/vango-dev/observable/internal/errors"
)

func snapshotCmd(flags *globalFlags) *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save and restore the cells of a running server",
		Long: `Save and restore the cells of a running devtools server.

Snapshots are stored in the backend the server was started with:
in memory, or in an S3 bucket when snapshot.backend is "s3".

Examples:
  observable snapshot save
  observable snapshot save before-import.json
  observable snapshot list
  observable snapshot show before-import.json
  observable snapshot restore before-import.json
  observable snapshot delete before-import.json`,
	}
	serverFlag(cmd, &server)

	keyArg := func(args []string) string {
		if len(args) == 0 {
			return config.DefaultSnapshotKey
		}
		return args[0]
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "save [key]",
			Short: "Save every cell under key (default latest.json)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				snap, err := newClient(flags, server).SaveSnapshot(cmd.Context(), keyArg(args))
				if err != nil {
					return errors.Classify(err, "E302")
				}
				success("Saved %q (%d cells)", snap.Key, snap.Cells)
				return nil
			},
		},
		&cobra.Command{
			Use:   "restore [key]",
			Short: "Write the snapshot under key back into the cells",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				snap, err := newClient(flags, server).RestoreSnapshot(cmd.Context(), keyArg(args))
				if err != nil {
					return errors.Classify(err, "E302")
				}
				success("Restored %q (%d cells, taken %s)", snap.Key, snap.Cells, snap.TakenAt.Format(time.RFC3339))
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List stored snapshot keys",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				keys, err := newClient(flags, server).Snapshots(cmd.Context())
				if err != nil {
					return errors.Classify(err, "E302")
				}
				if len(keys) == 0 {
					info("no snapshots")
					return nil
				}
				for _, key := range keys {
					fmt.Println(key)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "show [key]",
			Short: "Print a stored snapshot",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				doc, err := newClient(flags, server).Snapshot(cmd.Context(), keyArg(args))
				if err != nil {
					return errors.Classify(err, "E302")
				}
				info("version %d, taken %s", doc.Version, doc.TakenAt.Format(time.RFC3339))
				names := make([]string, 0, len(doc.Cells))
				for name := range doc.Cells {
					names = append(names, name)
				}
				sort.Strings(names)
				enc := json.NewEncoder(os.Stdout)
				for _, name := range names {
					fmt.Printf("  %s = ", name)
					enc.Encode(doc.Cells[name])
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <key>",
			Short: "Delete a stored snapshot",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := newClient(flags, server).DeleteSnapshot(cmd.Context(), args[0]); err != nil {
					return errors.Classify(err, "E302")
				}
				success("Deleted %q", args[0])
				return nil
			},
		},
	)

	return cmd
}
