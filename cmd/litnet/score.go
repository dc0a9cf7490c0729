package main

import (
	"github.com/spf13/cobra"

	"github.com/gladstone-institutes/bibliometrics/internal/export"
	"github.com/gladstone-institutes/bibliometrics/internal/stats"
)

var (
	scoreArticles  string
	scoreNeighbors string
	scoreOut       string
)

func init() {
	scoreCmd.Flags().StringVar(&scoreArticles, "articles", string(stats.Individual), "Article scoring: individual or propagate")
	scoreCmd.Flags().StringVar(&scoreNeighbors, "neighbors", string(stats.Sum), "Author, institution and grant agency scoring: sum or indegree")
	scoreCmd.Flags().StringVarP(&scoreOut, "out", "o", "", "Output graph file (default: overwrite the input)")
	rootCmd.AddCommand(scoreCmd)
}

var scoreCmd = &cobra.Command{
	Use:   "score <graph>",
	Short: "Add score and ct_count attributes to a network",
	Long: `Score the nodes of a saved network.

Articles are scored by the number of articles linking to them
("individual"), or by additionally adding the score of the article they
were reached from on a breadth-first walk from the drug or root node
("propagate"). Authors, institutions and grant agencies then receive the
sum of their articles' scores ("sum") or their article count ("indegree"),
plus a ct_count of linked clinical articles.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		g := mustLoadGraph(args[0])
		err := stats.Score(g, stats.ArticleScoring(scoreArticles), stats.NeighborScoring(scoreNeighbors))
		if err != nil {
			exitWithError(ExitError, "scoring: %v", err)
		}

		out := scoreOut
		if out == "" {
			out = args[0]
		}
		if err := export.Save(out, g); err != nil {
			exitForError(err, "saving network")
		}
		if humanOutput {
			outputHuman("Scored %d nodes, wrote %s\n", g.NodeCount(), out)
		} else {
			outputJSON(StatusResponse{Status: "scored", Path: out, Count: g.NodeCount()})
		}
	},
}
