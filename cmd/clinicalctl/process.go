package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"clinical-intelligence-be/internal/service"
	"clinical-intelligence-be/pkg/clinical"

	"github.com/spf13/cobra"
)

func newProcessCmd(a *app) *cobra.Command {
	var orgId, clientId, file string

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process one session transcript and print the result as JSON",
		Long:  "Reads the raw session text from --file (or stdin), runs retrieval, drafting, review and marker extraction, and prints the merged result.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			text, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			core, err := a.openCore(cmd.Context())
			if err != nil {
				return err
			}
			defer core.Close()

			result, err := core.Coordinator.Process(cmd.Context(), clinical.Session{
				OrganizationId: orgId,
				ClientId:       clientId,
				RawText:        text,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
			printSummary(cmd.ErrOrStderr(), result, service.IsHighRisk(result))
			return nil
		},
	}

	cmd.Flags().StringVar(&orgId, "org", "", "organization id")
	cmd.Flags().StringVar(&clientId, "client", "", "client id")
	cmd.Flags().StringVarP(&file, "file", "f", "", "session transcript file, - for stdin")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("client")
	return cmd
}

func readInput(stdin io.Reader, file string) (string, error) {
	var (
		data []byte
		err  error
	)
	if file == "" || file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("read session text: %w", err)
	}
	return string(data), nil
}
