package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	ingestSitePath string
	ingestCVPath   string
	ingestRebuild  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Build the vector indexes from a website export and a CV",
	Long: `Reads the website export directory and the CV file, splits them into
chunks, embeds the chunks, and persists both indexes. A populated index is
left untouched unless --rebuild is given.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSitePath, "site", "", "path to the website export directory")
	ingestCmd.Flags().StringVar(&ingestCVPath, "cv", "", "path to the CV file (pdf, txt or md)")
	ingestCmd.Flags().BoolVar(&ingestRebuild, "rebuild", false, "discard existing indexes and rebuild")
	_ = ingestCmd.MarkFlagRequired("site")
	_ = ingestCmd.MarkFlagRequired("cv")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	a, err := buildApp(cmd.Context(), ingestSitePath, ingestCVPath, ingestRebuild)
	if err != nil {
		return err
	}
	defer a.close()

	green := color.New(color.FgGreen).SprintFunc()
	cmd.Printf("%s site index ready at %s\n", green("✓"), a.cfg.Stores.SiteDir)
	cmd.Printf("%s cv index ready at %s\n", green("✓"), a.cfg.Stores.CVDir)
	return nil
}
