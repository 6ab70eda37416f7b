package main

import (
	"clinical-intelligence-be/internal/pkg/crypto"
	"clinical-intelligence-be/internal/repository/unitofwork"
	"clinical-intelligence-be/internal/service"
	"clinical-intelligence-be/pkg/events"

	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	var orgId string
	var page, limit int

	cmd := &cobra.Command{
		Use:   "history CLIENT_ID",
		Short: "List a client's saved sessions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			cipher, err := crypto.NewFieldCipherFromFile(a.cfg.Security.EncryptionKeyFile)
			if err != nil {
				return err
			}

			// Read-only: no processor or job publisher.
			svc := service.NewSessionService(nil, unitofwork.NewRepositoryFactory(db), cipher, nil, events.NopPublisher{}, a.log, a.log)
			sessions, err := svc.GetHistory(cmd.Context(), orgId, args[0], page, limit)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), sessions)
			return nil
		},
	}

	cmd.Flags().StringVar(&orgId, "org", "", "organization id")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 20, "sessions per page")
	_ = cmd.MarkFlagRequired("org")
	return cmd
}
