package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"filevault/internal/bootstrap"
	"filevault/internal/shared/config"
)

func newObjectsCmd(load func() config.Config) *cobra.Command {
	objectsCmd := &cobra.Command{
		Use:   "objects",
		Short: "Inspect and remove stored objects",
	}

	var owner string
	lsCmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List the objects of an owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap.Build(load())
			if err != nil {
				return err
			}
			defer app.Close()

			objs, err := app.Store.ListByOwner(cmd.Context(), owner)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSIZE\tCHUNKS\tCREATED")
			for _, obj := range objs {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", obj.ID, obj.Name, obj.SizeBytes, obj.ChunkCount, obj.CreatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
	lsCmd.Flags().StringVar(&owner, "owner", "", "owner subject")
	_ = lsCmd.MarkFlagRequired("owner")
	objectsCmd.AddCommand(lsCmd)

	var purgeOwner string
	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete every object of an owner",
		Long: `Delete every object of an owner, as done when the account is removed.

Objects that could not be deleted are listed and the command exits non-zero.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap.Build(load())
			if err != nil {
				return err
			}
			defer app.Close()

			res, err := app.AccountService.RemoveAccount(cmd.Context(), purgeOwner)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d objects of %s\n", res.Deleted, res.Owner)
			if res.Partial() {
				for _, id := range res.FailedIDs {
					fmt.Fprintf(cmd.OutOrStdout(), "failed: %s\n", id)
				}
				return fmt.Errorf("%d objects could not be deleted", len(res.FailedIDs))
			}
			return nil
		},
	}
	purgeCmd.Flags().StringVar(&purgeOwner, "owner", "", "owner subject")
	_ = purgeCmd.MarkFlagRequired("owner")
	objectsCmd.AddCommand(purgeCmd)

	return objectsCmd
}
