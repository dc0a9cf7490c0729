package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gladstone-institutes/bibliometrics/internal/export"
	"github.com/gladstone-institutes/bibliometrics/internal/graph"
	"github.com/gladstone-institutes/bibliometrics/internal/layout"
	"github.com/gladstone-institutes/bibliometrics/internal/storage"
	"github.com/gladstone-institutes/bibliometrics/internal/viz"
)

var (
	exportLayout     bool
	exportHTMLLayout string
	exportHTMLKinds  string
	exportHTMLTitle  string
)

func init() {
	exportGraphCmd.Flags().BoolVar(&exportLayout, "layout", false, "Compute force-directed node positions before writing")
	exportHTMLCmd.Flags().StringVar(&exportHTMLLayout, "layout", "", "Browser layout: preset, force, circle, concentric or grid (default: preset when positions are stored, else force)")
	exportHTMLCmd.Flags().StringVar(&exportHTMLKinds, "kinds", "", "Comma-separated node kinds to show (default: all)")
	exportHTMLCmd.Flags().StringVar(&exportHTMLTitle, "title", "", "Page title (default: the network name)")
	exportCmd.AddCommand(exportGraphCmd, exportSQLiteCmd, exportBibTeXCmd, exportHTMLCmd)
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Convert saved networks to other formats",
}

var exportGraphCmd = &cobra.Command{
	Use:   "graph <in> <out>",
	Short: "Convert between XGMML and snapshot files",
	Long: `Convert a network between formats chosen by file extension:
.xgmml or .xml for XGMML, .litnet or .json.gz for snapshots.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		g := mustLoadGraph(args[0])
		if exportLayout {
			layout.Apply(g, layout.DefaultOptions)
		}
		if err := export.Save(args[1], g); err != nil {
			exitForError(err, "saving network")
		}
		if humanOutput {
			outputHuman("Wrote %s (%d nodes)\n", args[1], g.NodeCount())
		} else {
			outputJSON(StatusResponse{Status: "written", Path: args[1], Count: g.NodeCount()})
		}
	},
}

var exportSQLiteCmd = &cobra.Command{
	Use:   "sqlite <graph> <db>",
	Short: "Write a network to a SQLite database for ad hoc queries",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		g := mustLoadGraph(args[0])

		db, err := storage.OpenDB(args[1])
		if err != nil {
			exitWithError(ExitError, "opening database: %v", err)
		}
		defer db.Close()

		n, err := db.WriteGraph(g)
		if err != nil {
			exitWithError(ExitError, "writing database: %v", err)
		}
		if humanOutput {
			outputHuman("Wrote %d nodes to %s\n", n, args[1])
		} else {
			outputJSON(StatusResponse{Status: "written", Path: args[1], Count: n})
		}
	},
}

var exportBibTeXCmd = &cobra.Command{
	Use:   "bibtex <graph> <file.bib>",
	Short: "Append the network's articles to a BibTeX file",
	Long: `Append a BibTeX entry for every article of the network. Articles whose
PMID or citation key is already in the file are skipped.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		g := mustLoadGraph(args[0])

		idx, err := export.ParseBibTeXFile(args[1])
		if err != nil {
			exitWithError(ExitDataError, "reading %s: %v", args[1], err)
		}
		added := 0
		content := export.ToBibTeXList(g, func(key, pmid string) bool {
			if idx.HasEntry(key, pmid) {
				return true
			}
			added++
			return false
		})
		if content != "" {
			if err := export.AppendToBibFile(args[1], content); err != nil {
				exitWithError(ExitError, "writing %s: %v", args[1], err)
			}
		}
		if humanOutput {
			outputHuman("Added %d entries to %s\n", added, args[1])
		} else {
			outputJSON(StatusResponse{Status: "appended", Path: args[1], Count: added})
		}
	},
}

var exportHTMLCmd = &cobra.Command{
	Use:   "html <graph> <out.html>",
	Short: "Render a network as an interactive HTML page",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		g := mustLoadGraph(args[0])

		var keep map[graph.Kind]bool
		if exportHTMLKinds != "" {
			keep = map[graph.Kind]bool{}
			for _, k := range strings.Split(exportHTMLKinds, ",") {
				keep[graph.Kind(strings.TrimSpace(k))] = true
			}
		}

		title := exportHTMLTitle
		if title == "" {
			title = g.Name
		}
		page, err := viz.GenerateHTML(viz.FromGraph(g, keep), viz.HTMLOptions{Title: title, Layout: exportHTMLLayout})
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if err := os.WriteFile(args[1], []byte(page), 0644); err != nil {
			exitWithError(ExitError, "writing %s: %v", args[1], err)
		}
		if humanOutput {
			outputHuman("Wrote %s\n", args[1])
		} else {
			outputJSON(StatusResponse{Status: "written", Path: args[1], Count: g.NodeCount()})
		}
	},
}
