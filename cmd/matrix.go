package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxmatrix/internal/matrix"
	"github.com/teemow/inboxmatrix/internal/platform"
	"github.com/teemow/inboxmatrix/internal/render"
	"github.com/teemow/inboxmatrix/internal/session"
)

func newMatrixCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "View and edit the Eisenhower matrix",
		Long: `View and edit the Eisenhower matrix of an account.

Quadrants are numbered:
  1  Do First   urgent and important
  2  Schedule   important, not urgent
  3  Delegate   urgent, not important
  4  Eliminate  neither`,
	}

	cmd.AddCommand(
		newMatrixShowCmd(),
		newMatrixAddCmd(),
		newMatrixSelectCmd(),
		newMatrixMoveCmd(),
		newMatrixRemoveCmd(),
		newMatrixFindCmd(),
		newMatrixListCmd(),
		newMatrixStatsCmd(),
		newMatrixClearCmd(),
		newMatrixExportCmd(),
		newMatrixImportCmd(),
	)
	return cmd
}

func parseQuadrantArg(s string) (matrix.Quadrant, error) {
	q, err := matrix.ParseQuadrant(s)
	if err != nil {
		return 0, fmt.Errorf("quadrant must be 1, 2, 3 or 4, got %q", s)
	}
	return q, nil
}

func quadrantName(q matrix.Quadrant) string {
	info, _ := matrix.Info(q)
	return info.Name
}

func newMatrixShowCmd() *cobra.Command {
	var opts render.Options

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the full matrix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				s, err := a.session(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, render.Matrix(s.Snapshot(), opts))
				fmt.Fprintln(out, render.Stats(s.Stats()))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&opts.Width, "width", render.DefaultWidth, "Total width of the grid")
	cmd.Flags().IntVar(&opts.MaxItems, "max-items", 0, "Items listed per quadrant (0 lists all)")
	cmd.Flags().BoolVar(&opts.ShowIDs, "ids", false, "Show item ids")
	return cmd
}

func newMatrixAddCmd() *cobra.Command {
	var (
		item       matrix.Item
		current    bool
		messageIDs []string
	)

	cmd := &cobra.Command{
		Use:   "add QUADRANT",
		Short: "Add an item to a quadrant",
		Long: `Add an item to a quadrant. An item that is already in the matrix is moved.

Sources, in order of precedence:
  --message ID   look up Gmail messages (repeatable)
  --current      the selected message (see "matrix select")
  --id/--subject an item given on the command line; without --id a random
                 id is generated`,
		Example: `  inboxmatrix matrix add 1 --id 42 --subject "Server outage" --sender ops@example.com
  inboxmatrix matrix add 2 --message 18c2f0a1b2c3d4e5 --platform gmail
  inboxmatrix matrix add 3 --current --platform gmail`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parseQuadrantArg(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				s, err := a.session(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()

				switch {
				case len(messageIDs) > 0:
					client, err := a.sc.GmailClientForAccount(a.cfg.Account)
					if err != nil {
						return err
					}
					var errs []error
					for _, id := range messageIDs {
						info, err := client.GetMessage(ctx, id)
						if err == nil {
							_, err = s.Add(ctx, q, info.Item())
						}
						if err != nil {
							errs = append(errs, fmt.Errorf("%s: %w", id, err))
							continue
						}
						fmt.Fprintf(out, "%s\n", id)
					}
					return errors.Join(errs...)

				case current:
					stored, err := s.AddCurrent(ctx, q)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, stored.ID)
					return nil

				default:
					stored, err := addExplicit(ctx, s, q, item)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, stored.ID)
					return nil
				}
			})
		},
	}

	cmd.Flags().StringVar(&item.ID, "id", "", "Item id (default: generated)")
	cmd.Flags().StringVar(&item.Subject, "subject", "", "Subject (default: No Subject)")
	cmd.Flags().StringVar(&item.Sender, "sender", "", "Sender (default: Unknown)")
	cmd.Flags().StringVar(&item.Date, "date", "", "Display date, e.g. 1/2/2006 (default: today)")
	cmd.Flags().StringVar(&item.Type, "type", "", "Item type (default: message)")
	cmd.Flags().BoolVar(&current, "current", false, "Add the selected message")
	cmd.Flags().StringSliceVar(&messageIDs, "message", nil, "Gmail message id to look up and add (repeatable)")
	cmd.MarkFlagsMutuallyExclusive("current", "message")
	cmd.MarkFlagsMutuallyExclusive("current", "id")
	cmd.MarkFlagsMutuallyExclusive("message", "id")
	return cmd
}

// addExplicit adds item. An item without id goes through the local
// adapter's current item, which assigns one.
func addExplicit(ctx context.Context, s *session.Session, q matrix.Quadrant, item matrix.Item) (matrix.Item, error) {
	if strings.TrimSpace(item.ID) != "" {
		return s.Add(ctx, q, item)
	}
	local, ok := s.Adapter().(*platform.LocalAdapter)
	if !ok {
		return matrix.Item{}, fmt.Errorf("--id is required on the %s platform", s.Adapter().Name())
	}
	if _, err := local.SetCurrentItem(item); err != nil {
		return matrix.Item{}, err
	}
	defer local.ClearCurrentItem()
	return s.AddCurrent(ctx, q)
}

func newMatrixSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select MESSAGE_ID",
		Short: "Select a Gmail message for \"matrix add --current\"",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				s, err := a.session(ctx)
				if err != nil {
					return err
				}
				adapter, ok := s.Adapter().(*platform.GmailAdapter)
				if !ok {
					return fmt.Errorf("select needs the gmail platform (--platform gmail)")
				}
				client, err := a.sc.GmailClientForAccount(a.cfg.Account)
				if err != nil {
					return err
				}
				info, err := client.GetMessage(ctx, args[0])
				if err != nil {
					return err
				}
				if err := adapter.SelectMessage(ctx, args[0]); err != nil {
					return err
				}
				it := info.Item()
				fmt.Fprintf(cmd.OutOrStdout(), "Selected \"%s\" from %s\n", it.Subject, it.Sender)
				return nil
			})
		},
	}
}

func newMatrixMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move ID QUADRANT",
		Short: "Move an item to another quadrant",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parseQuadrantArg(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				s, err := a.session(ctx)
				if err != nil {
					return err
				}
				return s.Move(ctx, args[0], q)
			})
		},
	}
}

func newMatrixRemoveCmd() *cobra.Command {
	var quadrant string

	cmd := &cobra.Command{
		Use:   "remove ID...",
		Short: "Remove items from the matrix",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var q matrix.Quadrant
			if quadrant != "" {
				var err error
				if q, err = parseQuadrantArg(quadrant); err != nil {
					return err
				}
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				s, err := a.session(ctx)
				if err != nil {
					return err
				}
				var missing []string
				for _, id := range args {
					var removed bool
					if q != 0 {
						removed, err = s.Remove(ctx, q, id)
					} else {
						removed, err = s.RemoveByID(ctx, id)
					}
					if err != nil {
						return err
					}
					if !removed {
						missing = append(missing, id)
					}
				}
				if len(missing) > 0 {
					return fmt.Errorf("not in the matrix: %s", strings.Join(missing, ", "))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&quadrant, "quadrant", "q", "", "Only remove from this quadrant")
	return cmd
}

func newMatrixFindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find ID",
		Short: "Show which quadrant holds an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				s, err := a.session(ctx)
				if err != nil {
					return err
				}
				item, q, ok := s.Find(args[0])
				if !ok {
					return fmt.Errorf("%w: %s", matrix.ErrItemNotFound, args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n%s\n", int(q), quadrantName(q), render.Item(item, render.DefaultWidth, true))
				return nil
			})
		},
	}
}

func newMatrixListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list QUADRANT",
		Short: "List the items of one quadrant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parseQuadrantArg(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				s, err := a.session(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, it := range s.QuadrantItems(q) {
					fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", it.ID, it.Subject, it.Sender, it.Date)
				}
				return nil
			})
		},
	}
}

func newMatrixStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show item counts per quadrant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				s, err := a.session(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), render.Stats(s.Stats()))
				return nil
			})
		},
	}
}

func newMatrixClearCmd() *cobra.Command {
	var (
		all bool
		yes bool
	)

	cmd := &cobra.Command{
		Use:   "clear [QUADRANT]",
		Short: "Remove every item from a quadrant, or from all with --all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return errors.New("give either a quadrant or --all")
			}
			if all && !yes {
				return errors.New("clearing all quadrants needs --yes")
			}
			var q matrix.Quadrant
			if !all {
				var err error
				if q, err = parseQuadrantArg(args[0]); err != nil {
					return err
				}
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				s, err := a.session(ctx)
				if err != nil {
					return err
				}
				if all {
					return s.ClearAll(ctx)
				}
				return s.ClearQuadrant(ctx, q)
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Clear all four quadrants")
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm --all")
	return cmd
}

func newMatrixExportCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the matrix as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				s, err := a.session(ctx)
				if err != nil {
					return err
				}
				doc := s.Export() + "\n"
				if outputFile == "" || outputFile == "-" {
					_, err := io.WriteString(cmd.OutOrStdout(), doc)
					return err
				}
				if err := os.WriteFile(outputFile, []byte(doc), 0o600); err != nil {
					return fmt.Errorf("failed to write export: %w", err)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func newMatrixImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the matrix with a JSON document (\"-\" reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to read import: %w", err)
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				s, err := a.session(ctx)
				if err != nil {
					return err
				}
				stats, err := s.Import(ctx, string(data))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), render.Stats(stats))
				return nil
			})
		},
	}
}
