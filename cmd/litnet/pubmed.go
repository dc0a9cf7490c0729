package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gladstone-institutes/bibliometrics/internal/reference"
	"github.com/gladstone-institutes/bibliometrics/internal/storage"
)

var fetchAppend string

func init() {
	pubmedFetchCmd.Flags().StringVar(&fetchAppend, "append", "", "Append records not yet present to this JSONL file")
	pubmedCmd.AddCommand(pubmedSearchCmd, pubmedFetchCmd, pubmedCitedByCmd, pubmedRefsCmd)
	trialsCmd.AddCommand(trialsSearchCmd)
	rootCmd.AddCommand(pubmedCmd, trialsCmd)
}

var pubmedCmd = &cobra.Command{
	Use:   "pubmed",
	Short: "Query PubMed E-utilities",
}

// IDListResponse is a list of identifiers returned by a query.
type IDListResponse struct {
	Query string   `json:"query"`
	Count int      `json:"count"`
	IDs   []string `json:"ids"`
}

func outputIDs(query string, ids []string) {
	if humanOutput {
		outputHuman("%d results for %s\n", len(ids), query)
		for _, id := range ids {
			fmt.Println(id)
		}
		return
	}
	outputJSON(IDListResponse{Query: query, Count: len(ids), IDs: ids})
}

var pubmedSearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search PubMed and list matching PMIDs",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		src := mustOpenSources()
		defer src.Close()

		ids, err := src.pubmed.Search(cmd.Context(), args[0])
		if err != nil {
			exitForError(err, "searching PubMed")
		}
		outputIDs(args[0], ids)
	},
}

var pubmedFetchCmd = &cobra.Command{
	Use:   "fetch <pmid>...",
	Short: "Fetch PubMed records",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		src := mustOpenSources()
		defer src.Close()

		recs, err := src.pubmed.Fetch(cmd.Context(), args)
		if err != nil {
			exitForError(err, "fetching records")
		}
		if fetchAppend == "" {
			if humanOutput {
				printRecordsHuman(recs)
			} else {
				outputJSON(recs)
			}
			return
		}

		existing, err := storage.ReadRecords(fetchAppend)
		if err != nil {
			exitWithError(ExitDataError, "reading %s: %v", fetchAppend, err)
		}
		added := 0
		for _, rec := range recs {
			if _, ok := storage.FindByPMID(existing, rec.PMID); ok {
				continue
			}
			if err := storage.AppendRecord(fetchAppend, rec); err != nil {
				exitWithError(ExitError, "appending record: %v", err)
			}
			existing = append(existing, rec)
			added++
		}
		if humanOutput {
			outputHuman("Added %d of %d records to %s\n", added, len(recs), fetchAppend)
		} else {
			outputJSON(StatusResponse{Status: "appended", Path: fetchAppend, Count: added})
		}
	},
}

func printRecordsHuman(recs []reference.Record) {
	for _, r := range recs {
		year := ""
		if r.Pubdate != nil {
			year = fmt.Sprintf(" (%d)", r.Pubdate.Year())
		}
		fmt.Printf("%s  %s%s\n", r.PMID, truncateString(r.Title, TitleMaxLen), year)
	}
}

var pubmedCitedByCmd = &cobra.Command{
	Use:   "citedby <pmid>",
	Short: "List the PMIDs of articles citing an article",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		src := mustOpenSources()
		defer src.Close()

		ids, err := src.pubmed.CitedBy(cmd.Context(), args[0])
		if err != nil {
			exitForError(err, "listing citing articles")
		}
		outputIDs(args[0], ids)
	},
}

var pubmedRefsCmd = &cobra.Command{
	Use:   "refs <pmid>",
	Short: "List the PMIDs of articles an article references",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		src := mustOpenSources()
		defer src.Close()

		ids, err := src.pubmed.References(cmd.Context(), args[0])
		if err != nil {
			exitForError(err, "listing references")
		}
		outputIDs(args[0], ids)
	},
}

var trialsCmd = &cobra.Command{
	Use:   "trials",
	Short: "Query ClinicalTrials.gov",
}

var trialsSearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search ClinicalTrials.gov studies",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		src := mustOpenSources()
		defer src.Close()

		trials, err := src.trials.Search(cmd.Context(), args[0])
		if err != nil {
			exitForError(err, "searching trials")
		}
		if !humanOutput {
			outputJSON(trials)
			return
		}
		for _, t := range trials {
			fmt.Printf("%s  %s  (%d PMIDs)\n", t.NCTID, truncateString(t.Title, TitleMaxLen), len(t.PMIDs))
		}
	},
}
