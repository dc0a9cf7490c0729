package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gladstone-institutes/bibliometrics/internal/cse"
	"github.com/gladstone-institutes/bibliometrics/internal/pdf"
	"github.com/gladstone-institutes/bibliometrics/internal/storage"
)

var (
	cseOut    string
	cseEnrich bool
)

func init() {
	cseCmd.Flags().StringVarP(&cseOut, "out", "o", "", "Write the parsed records as JSONL to this file")
	cseCmd.Flags().BoolVar(&cseEnrich, "pubmed", false, "Match the records against PubMed")
	rootCmd.AddCommand(cseCmd)
}

// CSEResponse is the response of the cse command.
type CSEResponse struct {
	Drug    string   `json:"drug,omitempty"`
	Records int      `json:"records"`
	Matched int      `json:"matched,omitempty"`
	Skipped []string `json:"skipped,omitempty"`
	Path    string   `json:"path,omitempty"`
}

var cseCmd = &cobra.Command{
	Use:   "cse <file>",
	Short: "Parse a CSE bibliography (text or PDF) into reference records",
	Long: `Parse a numbered bibliography in Council of Science Editors style.

Text files carry the drug name on their first line. PDF files are read
from the last "References" heading on.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		doc := mustReadCSE(args[0])
		resp := CSEResponse{Drug: doc.Drug, Records: len(doc.Refs), Skipped: doc.Skipped, Path: cseOut}

		if cseEnrich {
			src := mustOpenSources()
			defer src.Close()
			if err := src.pubmed.AddPubmedData(cmd.Context(), doc.Refs); err != nil {
				exitForError(err, "matching records")
			}
			for _, r := range doc.Refs {
				if r.PMID != "" {
					resp.Matched++
				}
			}
		}

		if cseOut != "" {
			if err := storage.WriteRecords(cseOut, doc.Refs); err != nil {
				exitWithError(ExitError, "writing records: %v", err)
			}
		}

		switch {
		case humanOutput:
			outputHuman("Parsed %d references", resp.Records)
			if cseEnrich {
				outputHuman(", %d found in PubMed", resp.Matched)
			}
			outputHuman("\n")
			for _, s := range resp.Skipped {
				outputHuman("  skipped: %s\n", truncateString(s, TitleMaxLen))
			}
		case cseOut == "":
			outputJSON(doc.Refs)
		default:
			outputJSON(resp)
		}
	},
}

// mustReadCSE parses a CSE reference file or the bibliography of a PDF.
func mustReadCSE(path string) *cse.Document {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		text, err := pdf.Text(path, 0)
		if err != nil {
			exitWithError(ExitDataError, "%v", err)
		}
		doc := &cse.Document{}
		doc.Refs, doc.Skipped = cse.ParseRefs(pdf.ReferenceLines(text))
		return doc
	}

	f, err := os.Open(path)
	if err != nil {
		exitWithError(ExitDataError, "opening %s: %v", path, err)
	}
	defer f.Close()
	doc, err := cse.ReadDocument(f)
	if err != nil {
		exitWithError(ExitDataError, "parsing %s: %v", path, err)
	}
	return doc
}
