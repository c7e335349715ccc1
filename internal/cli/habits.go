package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/justestif/habit-garden/internal/api"
	"github.com/justestif/habit-garden/internal/forms"
	"github.com/justestif/habit-garden/internal/garden"
)

func (a *app) habitsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "habits",
		Short: "List and tend your habits",
	}
	cmd.AddCommand(a.habitsListCmd())
	cmd.AddCommand(a.habitsAddCmd())
	cmd.AddCommand(a.habitsGrowCmd())
	cmd.AddCommand(a.habitsDeleteCmd())
	cmd.AddCommand(a.habitsEditCmd())
	return cmd
}

func (a *app) habitsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show your garden",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := a.authenticated(ctx)
			if err != nil {
				return err
			}
			habits, err := sess.Client().ListHabits(ctx)
			if err != nil {
				return apiFailure("listing habits", err)
			}
			printHabits(cmd.OutOrStdout(), habits, time.Now())
			return nil
		},
	}
}

func (a *app) habitsAddCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Plant a new habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := a.authenticated(ctx)
			if err != nil {
				return err
			}

			form := forms.Habit{Name: args[0], Description: description}
			if err := forms.Validate(&form); err != nil {
				return err
			}

			habit, err := sess.Client().CreateHabit(ctx, form.Name, form.Description)
			if err != nil {
				return apiFailure("adding habit", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "🌱 Planted %q %s\n", habit.Name, dimStyle.Render(habit.ID))
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "what the habit is about")
	return cmd
}

func (a *app) habitsGrowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grow ID",
		Short: "Mark a habit done for today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := a.authenticated(ctx)
			if err != nil {
				return err
			}

			habit, err := sess.Client().GrowHabit(ctx, args[0])
			if errors.Is(err, api.ErrAlreadyDone) {
				fmt.Fprintln(cmd.OutOrStdout(), warningStyle.Render("🌿 You already grew this habit today!"))
				return nil
			}
			if err != nil {
				return apiFailure("growing habit", err)
			}

			stage := garden.StageFor(habit.Streak)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s grew! Streak: %d days (%s)\n",
				stage.Emoji, habit.Name, habit.Streak, stage.Name)
			return nil
		},
	}
}

func (a *app) habitsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Remove a habit",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := a.authenticated(ctx)
			if err != nil {
				return err
			}
			if err := sess.Client().DeleteHabit(ctx, args[0]); err != nil {
				return apiFailure("deleting habit", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Habit removed from your garden.")
			return nil
		},
	}
}

func (a *app) habitsEditCmd() *cobra.Command {
	var name, description string
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Rename a habit or change its description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			nameSet := cmd.Flags().Changed("name")
			descSet := cmd.Flags().Changed("description")
			if !nameSet && !descSet {
				return errors.New("nothing to change; pass --name or --description")
			}

			sess, err := a.authenticated(ctx)
			if err != nil {
				return err
			}
			client := sess.Client()

			// The update replaces both fields, so start from the current values.
			habits, err := client.ListHabits(ctx)
			if err != nil {
				return apiFailure("loading habit", err)
			}
			var current *api.Habit
			for i := range habits {
				if habits[i].ID == args[0] {
					current = &habits[i]
					break
				}
			}
			if current == nil {
				return fmt.Errorf("habit %s not found", args[0])
			}

			form := forms.Habit{Name: current.Name, Description: current.Description}
			if nameSet {
				form.Name = name
			}
			if descSet {
				form.Description = description
			}
			if err := forms.Validate(&form); err != nil {
				return err
			}

			habit, err := client.UpdateHabit(ctx, current.ID, form.Name, form.Description)
			if err != nil {
				return apiFailure("updating habit", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %q\n", habit.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	return cmd
}
