package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/vango-dev/observable/internal/config"
	"github.com/vango-dev/observable/internal/errors"
	"github.com/vango-dev/observable/pkg/observable"
)

func initCmd(flags *globalFlags) *cobra.Command {
	var (
		force   bool
		enforce string
		bucket  string
	)

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default observable.json",
		Long: `Write observable.json with the default settings.

Examples:
  observable init
  observable init --enforce=observed
  observable init --bucket=my-state`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			path := filepath.Join(dir, config.ConfigFileName)
			if flags.configPath != "" {
				path = flags.configPath
			}

			if _, err := os.Stat(path); err == nil && !force {
				return errors.New("E500").
					WithDetail(path + " already exists").
					WithSuggestion("Pass --force to overwrite it")
			}

			cfg := config.New()
			if enforce != "" {
				if _, ok := observable.ParseEnforceActions(enforce); !ok {
					return errors.New("E103")
				}
				cfg.Reactivity.EnforceActions = enforce
			}
			if bucket != "" {
				cfg.Snapshot.Backend = config.BackendS3
				cfg.Snapshot.Bucket = bucket
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.SaveTo(path); err != nil {
				return err
			}

			success("Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	cmd.Flags().StringVar(&enforce, "enforce", "", "Enforcement policy: never, observed or always")
	cmd.Flags().StringVar(&bucket, "bucket", "", "Store snapshots in this S3 bucket")

	return cmd
}
