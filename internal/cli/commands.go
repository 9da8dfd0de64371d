package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Makepad-fr/todolist/internal/logging"
	"github.com/Makepad-fr/todolist/internal/model"
	"github.com/Makepad-fr/todolist/internal/store/persist"
	"github.com/Makepad-fr/todolist/internal/tui"
	"github.com/Makepad-fr/todolist/internal/ui"
)

// mutateFlags are shared by add, done and rm.
type mutateFlags struct {
	show  bool
	group bool
}

func (f *mutateFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.show, "show", false, "print the list after the change")
	cmd.Flags().BoolVar(&f.group, "group", false, "with --show, group by pending/done")
}

// mutate opens a session, applies op, and drains the write queue before
// returning. With --show the list is rendered by a store observer.
func (r *runner) mutate(cmd *cobra.Command, f *mutateFlags, op func(*app) error) error {
	a, err := openApp(cmd.Context(), r.cfg, r.log)
	if err != nil {
		return runtimeErr(err)
	}
	defer a.close()

	if f.show {
		out := cmd.OutOrStdout()
		unsubscribe := a.store.Subscribe(func(l model.List) {
			ui.Panel(out, ui.ListLines(l, f.group))
		})
		defer unsubscribe()
	}

	if err := op(a); err != nil {
		return err
	}
	if err := a.queue.Flush(); err != nil {
		return runtimeErr(fmt.Errorf("save: %w", err))
	}
	return nil
}

func (r *runner) newAddCmd() *cobra.Command {
	var f mutateFlags
	cmd := &cobra.Command{
		Use:   "add <text...>",
		Short: "Add a new item (text can be multiple words)",
		Example: `  todo add "Buy milk"
  todo add call the plumber`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return usageErr("add: empty text")
			}
			return r.mutate(cmd, &f, func(a *app) error {
				l := a.store.Add(text)
				ui.OK(cmd.OutOrStdout(), "added "+string(l[len(l)-1].ID))
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func (r *runner) newDoneCmd() *cobra.Command {
	var f mutateFlags
	cmd := &cobra.Command{
		Use:     "done <id|index>",
		Short:   "Toggle done for an item, by id or 1-based index",
		Example: "  todo done 2",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.mutate(cmd, &f, func(a *app) error {
				id, err := resolveRef(a.store.Snapshot(), args[0], cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				l := a.store.Toggle(id)
				if l[l.Index(id)].Completed {
					ui.OK(cmd.OutOrStdout(), "done")
				} else {
					ui.OK(cmd.OutOrStdout(), "reopened")
				}
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func (r *runner) newRemoveCmd() *cobra.Command {
	var f mutateFlags
	cmd := &cobra.Command{
		Use:     "rm <id|index>",
		Short:   "Remove an item, by id or 1-based index",
		Example: "  todo rm 3",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.mutate(cmd, &f, func(a *app) error {
				id, err := resolveRef(a.store.Snapshot(), args[0], cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				a.store.Remove(id)
				ui.OK(cmd.OutOrStdout(), "removed")
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func (r *runner) newListCmd() *cobra.Command {
	var (
		group  bool
		output string
	)
	cmd := &cobra.Command{
		Use:     "ls",
		Short:   "List items",
		Aliases: []string{"list"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), r.cfg, r.log)
			if err != nil {
				return runtimeErr(err)
			}
			defer a.close()
			return writeList(cmd.OutOrStdout(), a.store.Snapshot(), output, group)
		},
	}
	cmd.Flags().BoolVar(&group, "group", false, "group output by pending/done")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json or yaml")
	return cmd
}

func (r *runner) newUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Browse and edit the list interactively",
		Long: `Opens a full-screen list.

  space  toggle done     a  add     d  delete
  /      filter          q  quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logging.NewFile(r.cfg.LogLevel, filepath.Join(r.cfg.DataDir, logging.FileName))
			if err != nil {
				return runtimeErr(err)
			}
			r.log = log

			a, err := openApp(cmd.Context(), r.cfg, log)
			if err != nil {
				return runtimeErr(err)
			}
			defer a.close()
			if err := tui.Run(a.store, a.queue, log); err != nil {
				return runtimeErr(err)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "todo "+Version)
		},
	}
}

func writeList(w io.Writer, l model.List, format string, group bool) error {
	switch format {
	case "text", "":
		ui.Panel(w, ui.ListLines(l, group))
		return nil
	case "json":
		b, err := persist.Encode(l)
		if err != nil {
			return runtimeErr(err)
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(l); err != nil {
			return runtimeErr(fmt.Errorf("yaml encode: %w", err))
		}
		return enc.Close()
	}
	return usageErr("ls: unknown output format %q (want text, json or yaml)", format)
}

// resolveRef maps a command-line reference to an item id. An exact id
// match wins; otherwise a number is taken as a 1-based index.
func resolveRef(l model.List, ref string, stderr io.Writer) (model.ID, error) {
	if l.Index(model.ID(ref)) >= 0 {
		return model.ID(ref), nil
	}
	n, err := strconv.Atoi(ref)
	if err != nil {
		ui.Hint(stderr, "run `todo ls -o json` to see item ids")
		return "", usageErr("no item with id %q", ref)
	}
	if n < 1 || n > len(l) {
		ui.Hint(stderr, "run `todo ls` to see valid indexes")
		return "", usageErr("index out of range: have %d, got %d", len(l), n)
	}
	return l[n-1].ID, nil
}
