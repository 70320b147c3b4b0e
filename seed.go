package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ekaya-inc/ekaya-crm/pkg/seed"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load fixture records from a YAML file",
	Long: `Load users, enterprises, contacts, opportunities and activities from a
YAML fixture file. Records go through the same validation as the API and are
written in dependency order; the first failure stops the run.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "Fixture file to load")
	_ = seedCmd.MarkFlagRequired("file")
}

func runSeed(cmd *cobra.Command, args []string) error {
	fixtures, err := seed.LoadFile(seedFile)
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	seeder := seed.NewSeeder(a.users, a.enterprises, a.contacts, a.opportunities, a.activities, a.clock, logger)

	var sum seed.Summary
	err = a.scoped(cmd.Context(), func(ctx context.Context) error {
		var runErr error
		sum, runErr = seeder.Run(ctx, fixtures)
		return runErr
	})
	if err != nil {
		return fmt.Errorf("failed to seed %s: %w", seedFile, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d users, %d enterprises, %d contacts, %d opportunities, %d activities\n",
		sum.Users, sum.Enterprises, sum.Contacts, sum.Opportunities, sum.Activities)
	return nil
}
