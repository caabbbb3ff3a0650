package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/neomorfeo/leadcascade/internal/adapter/sqlite"
	"github.com/neomorfeo/leadcascade/internal/config"
	"github.com/neomorfeo/leadcascade/internal/domain"
)

func participantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "participant",
		Short: "Maintain the participant directory",
	}

	setCmd := &cobra.Command{
		Use:   "set [id] [name]",
		Short: "Add or update a participant",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid participant id %q", args[0])
			}
			inactive, _ := cmd.Flags().GetBool("inactive")

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			db, err := sqlite.Open(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer db.Close()

			p := domain.Participant{ID: id, Name: args[1], Active: !inactive}
			if err := sqlite.NewDirectory(db).Upsert(cmd.Context(), p); err != nil {
				return err
			}

			state := "active"
			if inactive {
				state = "inactive"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "participant %d (%s) %s\n", p.ID, p.Name, state)
			return nil
		},
	}
	setCmd.Flags().Bool("inactive", false, "Exclude the participant from the rotation")

	cmd.AddCommand(setCmd)
	return cmd
}
