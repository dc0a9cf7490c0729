package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gladstone-institutes/bibliometrics/internal/graph"
	"github.com/gladstone-institutes/bibliometrics/internal/storage"
)

var (
	queryKind  string
	queryLimit int
)

func init() {
	queryTopCmd.Flags().StringVar(&queryKind, "kind", string(graph.KindAuthor), "Node kind to rank")
	for _, c := range []*cobra.Command{queryTopCmd, querySearchCmd} {
		c.Flags().IntVar(&queryLimit, "limit", DefaultTopLimit, "Maximum number of results")
	}
	queryCmd.AddCommand(queryTopCmd, querySearchCmd, queryKindsCmd)
	rootCmd.AddCommand(queryCmd)
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query a network exported with 'export sqlite'",
}

func mustOpenDB(path string) *storage.DB {
	db, err := storage.OpenDB(path)
	if err != nil {
		exitWithError(ExitConfigError, "opening database: %v", err)
	}
	return db
}

func outputRows(rows []storage.NodeRow) {
	if !humanOutput {
		if rows == nil {
			rows = []storage.NodeRow{}
		}
		outputJSON(rows)
		return
	}
	for _, r := range rows {
		fmt.Printf("%6d  %-13s %4d  %s\n", r.Index, r.Kind, r.Degree, truncateString(r.Label, TitleMaxLen))
	}
}

var queryTopCmd = &cobra.Command{
	Use:   "top <db>",
	Short: "List the nodes of a kind with the most incoming edges",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		db := mustOpenDB(args[0])
		defer db.Close()

		rows, err := db.TopByInDegree(graph.Kind(queryKind), queryLimit)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		outputRows(rows)
	},
}

var querySearchCmd = &cobra.Command{
	Use:   "search <db> <query>",
	Short: "Full-text search over node labels and titles",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		db := mustOpenDB(args[0])
		defer db.Close()

		rows, err := db.Search(args[1], queryLimit)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		outputRows(rows)
	},
}

var queryKindsCmd = &cobra.Command{
	Use:   "kinds <db>",
	Short: "Count the nodes of each kind",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		db := mustOpenDB(args[0])
		defer db.Close()

		counts, err := db.CountByKind()
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if humanOutput {
			printKindsHuman(counts)
		} else {
			outputJSON(counts)
		}
	},
}
