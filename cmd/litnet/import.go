package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gladstone-institutes/bibliometrics/internal/importer"
	"github.com/gladstone-institutes/bibliometrics/internal/storage"
)

var importOut string

func init() {
	importCmd.Flags().StringVarP(&importOut, "out", "o", "", "Output JSONL records file")
	importCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(importCmd)
}

// ImportResponse is the response of the import command.
type ImportResponse struct {
	Path     string   `json:"path"`
	Imported int      `json:"imported"`
	Errors   []string `json:"errors,omitempty"`
}

var importCmd = &cobra.Command{
	Use:   "import <export.xml>",
	Short: "Convert a Web of Science full-record XML export to JSONL records",
	Long: `Convert a Web of Science full-record XML export to JSONL records that
'litnet build' reads. Use 'litnet build --pubmed' to add PubMed data.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		f, err := os.Open(args[0])
		if err != nil {
			exitWithError(ExitDataError, "opening %s: %v", args[0], err)
		}
		defer f.Close()

		recs, errs := importer.ParseWoS(f)
		if len(recs) == 0 && len(errs) > 0 {
			exitWithError(ExitDataError, "parsing %s: %v", args[0], errs[0])
		}
		if err := storage.WriteRecords(importOut, recs); err != nil {
			exitWithError(ExitError, "writing records: %v", err)
		}

		resp := ImportResponse{Path: importOut, Imported: len(recs)}
		for _, e := range errs {
			resp.Errors = append(resp.Errors, e.Error())
		}
		if !humanOutput {
			outputJSON(resp)
			return
		}
		outputHuman("Imported %d records to %s\n", resp.Imported, importOut)
		for _, e := range resp.Errors {
			outputHuman("  skipped: %s\n", e)
		}
	},
}
