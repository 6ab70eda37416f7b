package main

import (
	"fmt"

	"clinical-intelligence-be/internal/service"
	"clinical-intelligence-be/pkg/clinical/orgconfig"
	"clinical-intelligence-be/pkg/events"

	"github.com/spf13/cobra"
)

func newSyncKBCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-kb ORG_ID",
		Short: "Rebuild an organization's policy index from its documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := a.openCore(cmd.Context())
			if err != nil {
				return err
			}
			defer core.Close()

			svc := service.NewKnowledgeService(core.Orgs, core.KnowledgeBase, events.NopPublisher{}, a.log)
			res, err := svc.SyncKnowledgeBase(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "%s: indexed %d chunks\n", res.OrganizationId, res.Chunks)
			return nil
		},
	}
}

func newOrgsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "orgs",
		Short: "List configured organizations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			orgs, err := orgconfig.NewFileProvider(a.cfg.Knowledge.OrgConfigRoot).List()
			if err != nil {
				return err
			}
			for _, id := range orgs {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}
