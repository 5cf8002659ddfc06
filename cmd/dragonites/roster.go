package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/darkcaves/dragonites/pkg/export"
	"github.com/darkcaves/dragonites/pkg/models"
)

func parseRowID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", arg)
	}
	return id, nil
}

func newRosterCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Manage trainers and their captured creatures",
	}
	cmd.AddCommand(
		newTrainerCmd(configPath),
		newCaptureCmd(configPath),
		newRosterListCmd(configPath),
		newRosterLevelCmd(configPath),
		newRosterReleaseCmd(configPath),
		newRosterConvertCmd(configPath),
	)
	return cmd
}

func newTrainerCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trainer",
		Short: "Create or show trainers",
	}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a trainer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			r, err := a.roster()
			if err != nil {
				return err
			}

			id, err := r.CreateTrainer(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Created trainer %d (%s).\n", id, args[0])
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <trainer-id>",
		Short: "Show a trainer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRowID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			r, err := a.roster()
			if err != nil {
				return err
			}

			tr, err := r.GetTrainer(cmd.Context(), id)
			if err != nil {
				return err
			}
			caught, err := r.ListCaptured(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Printf("ID:       %d\nName:     %s\nSince:    %s\nCaptured: %d\n",
				tr.ID, tr.Name, tr.CreatedAt.Local().Format("2006-01-02"), len(caught))
			return nil
		},
	}

	cmd.AddCommand(createCmd, showCmd)
	return cmd
}

func newCaptureCmd(configPath *string) *cobra.Command {
	var req models.CaptureRequest

	cmd := &cobra.Command{
		Use:   "capture <creature-id>",
		Short: "Add a creature to a trainer's roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			req.CreatureID = id

			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			r, err := a.roster()
			if err != nil {
				return err
			}

			rec, err := a.resolver.Resolve(cmd.Context(), id, 0)
			if err != nil {
				return err
			}
			entryID, err := r.Capture(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Printf("Captured %s at level %d (roster entry %d).\n", export.DisplayName(rec.Name), req.Level, entryID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&req.TrainerID, "trainer", 0, "trainer id")
	cmd.Flags().IntVar(&req.Level, "level", 5, "level at capture")
	cmd.Flags().StringVar(&req.Nickname, "nickname", "", "optional nickname")
	cmd.Flags().BoolVar(&req.Shiny, "shiny", false, "mark as shiny")
	_ = cmd.MarkFlagRequired("trainer")
	return cmd
}

func newRosterListCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list <trainer-id>",
		Short: "List a trainer's captured creatures, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trainerID, err := parseRowID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			r, err := a.roster()
			if err != nil {
				return err
			}

			caught, err := r.ListCaptured(cmd.Context(), trainerID)
			if err != nil {
				return err
			}
			if len(caught) == 0 {
				fmt.Println("No captured creatures.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ENTRY\tCREATURE\tNAME\tNICKNAME\tLEVEL\tSHINY\tCAPTURED")
			for _, c := range caught {
				name := "-"
				if rec, ok := a.store.Get(cmd.Context(), c.CreatureID); ok {
					name = export.DisplayName(rec.Name)
				}
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%d\t%t\t%s\n",
					c.ID, c.CreatureID, name, c.Nickname, c.Level, c.Shiny, c.CapturedAt.Local().Format("2006-01-02T15:04:05"))
			}
			return w.Flush()
		},
	}
}

func newRosterLevelCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "level <entry-id> <level>",
		Short: "Set the level of a captured creature",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRowID(args[0])
			if err != nil {
				return err
			}
			level, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid level %q", args[1])
			}
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			r, err := a.roster()
			if err != nil {
				return err
			}

			if err := r.UpdateLevel(cmd.Context(), id, level); err != nil {
				return err
			}
			fmt.Printf("Entry %d is now level %d.\n", id, level)
			return nil
		},
	}
}

func newRosterReleaseCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "release <entry-id>",
		Short: "Release a captured creature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRowID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			r, err := a.roster()
			if err != nil {
				return err
			}

			if err := r.Release(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("Released entry %d.\n", id)
			return nil
		},
	}
}

func newRosterConvertCmd(configPath *string) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "convert <entry-id>",
		Short: "Convert a captured creature at its own level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRowID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			r, err := a.roster()
			if err != nil {
				return err
			}

			c, err := r.GetCaptured(cmd.Context(), id)
			if err != nil {
				return err
			}
			block, err := a.resolver.ConvertByID(cmd.Context(), c.CreatureID, c.Level)
			if err != nil {
				return err
			}
			out, err := export.Export(block, format)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", export.FormatText, "output format: json or text")
	return cmd
}
