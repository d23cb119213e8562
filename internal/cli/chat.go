package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/knowme/internal/transport/chi"
	"github.com/kailas-cloud/knowme/internal/tui"
)

var (
	chatSitePath string
	chatCVPath   string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat interactively in the terminal",
	Long: `Opens the terminal chat. Tab cycles between asking the website, the
CV, or letting the router agent choose; switching starts a new session.

Indexes must already exist, or pass --site and --cv to build them first.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSitePath, "site", "", "website export to ingest if the index is empty")
	chatCmd.Flags().StringVar(&chatCVPath, "cv", "", "CV file to ingest if the index is empty")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	a, err := buildApp(cmd.Context(), chatSitePath, chatCVPath, false)
	if err != nil {
		return err
	}
	defer a.close()

	model := tui.New([]tui.Backend{
		{Name: chi.SourceWebsite, Answerer: a.site},
		{Name: chi.SourceCV, Answerer: a.cv},
		{Name: chi.SourceAgent, Answerer: a.agent},
	})

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run chat ui: %w", err)
	}
	return nil
}
