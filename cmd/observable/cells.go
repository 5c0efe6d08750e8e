package main

import (
	"encoding/json"
	"fmt"
	"os"
	"net"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vango-dev/observable/internal/config"
	"github.com/vango-dev/observable/internal/errors"
	"github.com/vango-dev/observable/pkg/devtools"
	"github.com/vango-dev/observable/pkg/observable"
)

// serverFlag registers --server on cmd.
func serverFlag(cmd *cobra.Command, server *string) {
	cmd.PersistentFlags().StringVarP(server, "server", "S", "", "Devtools server URL (default from observable.json)")
}

// newClient returns a client for --server, or for the devtools address in
// observable.json when the flag is not set.
func newClient(flags *globalFlags, server string) *devtools.Client {
	if server == "" {
		server = "http://" + net.JoinHostPort(config.DefaultHost, strconv.Itoa(config.DefaultPort))
		if cfg, err := loadConfig(flags); err == nil {
			server = cfg.DevtoolsURL()
		}
	}
	return newClient(flags, server)
}

func cellsCmd(flags *globalFlags) *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "cells",
		Short: "Inspect the cells of a running server",
		Long: `Inspect the cells of a running devtools server.

Examples:
  observable cells list
  observable cells get counter
  observable cells set counter 5
  observable cells set title '"groceries"'
  observable cells watch ticks`,
	}
	serverFlag(cmd, &server)

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List every cell",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cells, err := newClient(flags, server).Cells(cmd.Context())
				if err != nil {
					return errors.Classify(err, "E401")
				}
				printCells(cells)
				return nil
			},
		},
		&cobra.Command{
			Use:   "get <name>",
			Short: "Print one cell",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cell, err := newClient(flags, server).Cell(cmd.Context(), args[0])
				if err != nil {
					return errors.Classify(err, "E401")
				}
				printCells([]devtools.CellInfo{cell})
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <name> <json>",
			Short: "Write a JSON value to a cell",
			Long: `Write a JSON value to a cell.

The write runs through the cell's interceptors, which may rewrite or
veto it. The value printed is the one the cell holds afterwards.`,
			Args: cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				value := json.RawMessage(args[1])
				if !json.Valid(value) {
					return errors.New("E500").
						WithDetail(fmt.Sprintf("%q is not valid JSON", args[1])).
						WithSuggestion(`Quote strings, e.g. '"text"'`)
				}
				cell, err := newClient(flags, server).Set(cmd.Context(), args[0], value)
				if err != nil {
					return errors.Classify(err, "E401")
				}
				success("%s = %s", cell.Name, cell.Value)
				return nil
			},
		},
		&cobra.Command{
			Use:   "watch <name>",
			Short: "Stream the changes of a cell",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				err := newClient(flags, server).Watch(ctx, args[0], printChange)
				if err != nil {
					return errors.Classify(err, "E401")
				}
				return nil
			},
		},
	)

	return cmd
}

func printCells(cells []devtools.CellInfo) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tOBSERVED\tLISTENERS\tVALUE")
	for _, c := range cells {
		fmt.Fprintf(w, "%s\t%s\t%t\t%t\t%s\n", c.Name, c.Type, c.Observed, c.HasListeners, c.Value)
	}
	w.Flush()
}

func printChange(c observable.AnyChange) {
	newValue, _ := json.Marshal(c.NewValue)
	if !c.HasOldValue {
		info("%s = %s", c.Name, newValue)
		return
	}
	oldValue, _ := json.Marshal(c.OldValue)
	info("%s: %s → %s", c.Name, oldValue, newValue)
}
