package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andreyvit/dwarfdb"
)

type bindingRow struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

func NewBindingsCommand(rootOpts *RootOptions) *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "bindings",
		Short: "List name bindings",
		Long: `List the names bound in the database and the entity ids they point to.

Examples:
  dwarfdb bindings --db ./app.db
  dwarfdb bindings --db ./app.db --prefix players.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := rootOpts.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer db.Close()

			var rows []bindingRow
			err = db.View(func(tx *dwarfdb.Tx) error {
				bindings := tx.Bindings()
				for name, err := range bindings.KeysWithPrefix([]byte(prefix)) {
					if err != nil {
						return err
					}
					id, _, err := bindings.Lookup(name)
					if err != nil {
						return err
					}
					rows = append(rows, bindingRow{name, id.String()})
				}
				return nil
			})
			if err != nil {
				return WrapExitError(ExitFailure, "failed to list bindings", err)
			}

			w := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				return writeJSON(w, rows)
			}
			for _, r := range rows {
				fmt.Fprintf(w, "%s => %s\n", r.Name, r.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "only list names starting with this prefix")
	return cmd
}

type entityInfo struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Size int    `json:"size"`
	Data any    `json:"data"`
}

func NewEntityCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "entity <id>",
		Short: "Show a stored entity",
		Long: `Decode and print the entity stored under the given id.

The entity is decoded without its Go type, so the data is shown as plain
maps and values.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := dwarfdb.ParseID(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "bad entity id", err)
			}

			db, err := rootOpts.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer db.Close()

			var info entityInfo
			err = db.View(func(tx *dwarfdb.Tx) error {
				blob, err := tx.EntityStore().ReadBlob(id)
				if err != nil {
					return err
				}
				typ, data, err := dwarfdb.DecodeGeneric(blob)
				if err != nil {
					return err
				}
				info = entityInfo{id.String(), typ, len(blob), data}
				return nil
			})
			if errors.Is(err, dwarfdb.ErrEntityNotFound) {
				return WrapExitError(ExitFailure, fmt.Sprintf("entity %v not found", id), nil)
			} else if err != nil {
				return WrapExitError(ExitFailure, "failed to read entity", err)
			}

			w := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				return writeJSON(w, info)
			}
			fmt.Fprintf(w, "%s %s (%d bytes)\n", info.ID, info.Type, info.Size)
			return writeJSON(w, info.Data)
		},
	}
}

func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show table sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := rootOpts.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer db.Close()

			var stats []dwarfdb.TableStats
			err = db.View(func(tx *dwarfdb.Tx) error {
				for _, name := range tx.TableNames() {
					s, err := tx.TableStats(name)
					if err != nil {
						return err
					}
					stats = append(stats, s)
				}
				return nil
			})
			if err != nil {
				return WrapExitError(ExitFailure, "failed to collect stats", err)
			}

			w := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				return writeJSON(w, stats)
			}
			for _, s := range stats {
				fmt.Fprintf(w, "%s: rows = %d, data_size = %d, data_alloc = %d\n", s.Name, s.Rows, s.DataSize, s.DataAlloc)
			}
			return nil
		},
	}
}

func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	var withData bool

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Dump bindings and entities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := rootOpts.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer db.Close()

			flags := dwarfdb.DumpAll
			if !withData {
				flags &^= dwarfdb.DumpEntityData
			}
			err = db.View(func(tx *dwarfdb.Tx) error {
				return tx.Dump(cmd.OutOrStdout(), flags)
			})
			if err != nil {
				return WrapExitError(ExitFailure, "failed to dump", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withData, "data", false, "include decoded entity data")
	return cmd
}
