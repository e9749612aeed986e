package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/travelbrag/internal/app"
	"github.com/mesh-intelligence/travelbrag/pkg/types"
)

func newPeopleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "people",
		Short: "Manage travellers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Add a traveller",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, sessionOptions{}, func(ctx context.Context, a *app.App) error {
				p, err := a.Repo.AddPerson(ctx, types.Person{Name: args[0]})
				if err != nil {
					return err
				}
				if flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), p)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (id %d)\n", p.Name, p.ID)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List travellers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, sessionOptions{}, func(ctx context.Context, a *app.App) error {
				people, err := a.Repo.ListPeople(ctx)
				if err != nil {
					return err
				}
				if flags.jsonMode {
					if people == nil {
						people = []types.Person{}
					}
					return writeJSON(cmd.OutOrStdout(), people)
				}
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "ID\tNAME")
				for _, p := range people {
					fmt.Fprintf(tw, "%d\t%s\n", p.ID, p.Name)
				}
				return tw.Flush()
			})
		},
	})
	return cmd
}

func newTripsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trips",
		Short: "Manage trips",
	}

	var trip types.Trip
	var people []string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a trip",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, sessionOptions{}, func(ctx context.Context, a *app.App) error {
				t, err := a.Repo.AddTrip(ctx, trip)
				if err != nil {
					return err
				}
				for _, name := range people {
					p, err := a.Repo.GetPersonByName(ctx, name)
					if err != nil {
						return fmt.Errorf("participant %q: %w", name, err)
					}
					if err := a.Repo.AddTripParticipant(ctx, t.ID, p.ID); err != nil {
						return err
					}
				}
				if flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), t)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added trip %s (id %d)\n", t.Name, t.ID)
				return nil
			})
		},
	}
	add.Flags().StringVar(&trip.Name, "name", "", "trip name")
	add.Flags().StringVar(&trip.StartDate, "start", "", "start date, YYYY-MM or YYYY-MM-DD")
	add.Flags().StringVar(&trip.EndDate, "end", "", "end date, YYYY-MM or YYYY-MM-DD")
	add.Flags().StringVar(&trip.Notes, "notes", "", "free-text notes")
	add.Flags().StringSliceVar(&people, "person", nil, "participant name (repeatable)")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("start")
	_ = add.MarkFlagRequired("end")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List trips, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, sessionOptions{}, func(ctx context.Context, a *app.App) error {
				trips, err := a.Repo.ListTrips(ctx)
				if err != nil {
					return err
				}
				if flags.jsonMode {
					if trips == nil {
						trips = []types.Trip{}
					}
					return writeJSON(cmd.OutOrStdout(), trips)
				}
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "ID\tNAME\tSTART\tEND")
				for _, t := range trips {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", t.ID, t.Name, t.StartDate, t.EndDate)
				}
				return tw.Flush()
			})
		},
	})
	return cmd
}
