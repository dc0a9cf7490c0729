package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gladstone-institutes/bibliometrics/internal/graph"
	"github.com/gladstone-institutes/bibliometrics/internal/stats"
)

var (
	statsCSV         string
	statsColumns     string
	statsClinical    bool
	statsNonClinical bool
	statsKind        string
	statsLimit       int
	statsInstLimit   int
)

func init() {
	statsArticlesCmd.Flags().StringVar(&statsColumns, "columns", "pmid,pubdate,score", "Comma-separated columns: "+strings.Join(stats.Columns, ", "))
	statsArticlesCmd.Flags().BoolVar(&statsClinical, "clinical-only", false, "Only articles with a clinical publication type")
	statsArticlesCmd.Flags().BoolVar(&statsNonClinical, "non-clinical-only", false, "Only articles with known, non-clinical publication types")
	statsArticlesCmd.MarkFlagsMutuallyExclusive("clinical-only", "non-clinical-only")

	statsDegreeCmd.Flags().StringVar(&statsKind, "kind", string(graph.KindAuthor), "Node kind to rank")
	statsDegreeCmd.Flags().IntVar(&statsLimit, "limit", 0, "Maximum number of rows (0 for all)")
	statsInstitutionsCmd.Flags().IntVar(&statsInstLimit, "limit", 5, "Maximum number of institutions")

	for _, c := range []*cobra.Command{statsArticlesCmd, statsDegreeCmd, statsMeshCmd} {
		c.Flags().StringVar(&statsCSV, "csv", "", "Write the table as CSV to this file")
	}

	statsCmd.AddCommand(statsArticlesCmd, statsDegreeCmd, statsAuthorCmd, statsMeshCmd, statsInstitutionsCmd, statsCountCmd, statsDiffCmd)
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize saved networks",
}

// writeTable writes t as CSV to --csv, to stdout with --human, or as JSON.
func writeTable(t stats.Table) {
	switch {
	case statsCSV != "":
		f, err := os.Create(statsCSV)
		if err != nil {
			exitWithError(ExitError, "creating %s: %v", statsCSV, err)
		}
		defer f.Close()
		if err := t.WriteCSV(f); err != nil {
			exitWithError(ExitError, "writing %s: %v", statsCSV, err)
		}
		if !humanOutput {
			outputJSON(StatusResponse{Status: "written", Path: statsCSV, Count: len(t.Rows)})
		}
	case humanOutput:
		if err := t.WriteCSV(os.Stdout); err != nil {
			exitWithError(ExitError, "%v", err)
		}
	default:
		outputJSON(t)
	}
}

var statsArticlesCmd = &cobra.Command{
	Use:   "articles <graph>",
	Short: "Tabulate article attributes",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		g := mustLoadGraph(args[0])

		filter := stats.AllArticles
		switch {
		case statsClinical:
			filter = stats.ClinicalOnly
		case statsNonClinical:
			filter = stats.NonClinicalOnly
		}
		var columns []string
		for _, c := range strings.Split(statsColumns, ",") {
			if c = strings.TrimSpace(c); c != "" {
				columns = append(columns, c)
			}
		}

		t, err := stats.ArticleTable(g, columns, filter)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		writeTable(t)
	},
}

var statsDegreeCmd = &cobra.Command{
	Use:   "degree <graph>",
	Short: "Rank nodes of one kind by in-degree",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		g := mustLoadGraph(args[0])
		ranking := stats.DegreeRanking(g, graph.Kind(statsKind))
		if statsLimit > 0 && len(ranking) > statsLimit {
			ranking = ranking[:statsLimit]
		}

		switch {
		case statsCSV != "":
			f, err := os.Create(statsCSV)
			if err != nil {
				exitWithError(ExitError, "creating %s: %v", statsCSV, err)
			}
			defer f.Close()
			if err := stats.WriteRankingCSV(f, ranking); err != nil {
				exitWithError(ExitError, "writing %s: %v", statsCSV, err)
			}
			if !humanOutput {
				outputJSON(StatusResponse{Status: "written", Path: statsCSV, Count: len(ranking)})
			}
		case humanOutput:
			for _, r := range ranking {
				fmt.Printf("%5d  %.3f  %s\n", r.Degree, r.Rank, r.Label)
			}
		default:
			outputJSON(ranking)
		}
	},
}

var statsAuthorCmd = &cobra.Command{
	Use:   "author <graph> <name>",
	Short: "Summarize an author's articles in a bottom-up network",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		g := mustLoadGraph(args[0])
		sum, err := stats.SummarizeAuthor(g, args[1])
		if err != nil {
			exitForError(err, "summarizing author")
		}
		if !humanOutput {
			outputJSON(sum)
			return
		}
		fmt.Printf("Author:         %s\n", sum.Author)
		fmt.Printf("Articles:       %d\n", sum.Articles)
		fmt.Printf("Co-authors:     mean %.2f, median %.1f, sd %.2f\n", sum.CoAuthors.Mean, sum.CoAuthors.Median, sum.CoAuthors.SD)
		fmt.Printf("Institutions:   mean %.2f, median %.1f, sd %.2f\n", sum.Institutions.Mean, sum.Institutions.Median, sum.Institutions.SD)
		fmt.Printf("Grant agencies: mean %.2f, median %.1f, sd %.2f\n", sum.GrantAgencies.Mean, sum.GrantAgencies.Median, sum.GrantAgencies.SD)
		fmt.Printf("Years active:   %d\n", sum.YearsDelta)
		fmt.Printf("h-index:        %d\n", sum.HIndex)
		fmt.Printf("Max citations:  %d\n", sum.MaxCitations)
		fmt.Printf("TG score:       %.3f\n", sum.TGScore)
	},
}

var statsMeshCmd = &cobra.Command{
	Use:   "mesh <graph>",
	Short: "Build the PMID by MeSH term incidence matrix",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		writeTable(stats.MeshMatrix(mustLoadGraph(args[0])))
	},
}

var statsInstitutionsCmd = &cobra.Command{
	Use:   "institutions <graph> <author>",
	Short: "List the institutions an author most often publishes from",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		g := mustLoadGraph(args[0])
		top, err := stats.TopInstitutions(g, args[1], statsInstLimit)
		if err != nil {
			exitForError(err, "listing institutions")
		}
		if !humanOutput {
			outputJSON(top)
			return
		}
		for _, lc := range top {
			fmt.Printf("%4d  %s\n", lc.Count, lc.Label)
		}
	},
}

// GraphCount is the article count of one saved network.
type GraphCount struct {
	Path     string             `json:"path"`
	Name     string             `json:"name"`
	Articles int                `json:"articles"`
	Kinds    map[graph.Kind]int `json:"kinds"`
}

var statsCountCmd = &cobra.Command{
	Use:   "count <graph>...",
	Short: "Count the articles of each network",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		counts := make([]GraphCount, 0, len(args))
		for _, path := range args {
			g := mustLoadGraph(path)
			kinds := stats.KindCounts(g)
			counts = append(counts, GraphCount{Path: path, Name: g.Name, Articles: kinds[graph.KindArticle], Kinds: kinds})
		}
		if !humanOutput {
			outputJSON(counts)
			return
		}
		for _, c := range counts {
			fmt.Printf("%s\t%d\n", c.Name, c.Articles)
		}
	},
}

var statsDiffCmd = &cobra.Command{
	Use:   "diff <graph-a> <graph-b>",
	Short: "Compare two networks from their drug or root nodes",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		diffs, err := stats.Diff(mustLoadGraph(args[0]), mustLoadGraph(args[1]))
		if err != nil {
			exitWithError(ExitDataError, "%v", err)
		}
		if !humanOutput {
			if diffs == nil {
				diffs = []stats.Difference{}
			}
			outputJSON(diffs)
			return
		}
		for _, d := range diffs {
			fmt.Println(strings.Join(d.Path, " > "))
			for _, k := range d.OnlyInA {
				fmt.Printf("  only in %s: %s\n", args[0], k)
			}
			for _, k := range d.OnlyInB {
				fmt.Printf("  only in %s: %s\n", args[1], k)
			}
		}
	},
}
