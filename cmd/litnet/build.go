package main

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/gladstone-institutes/bibliometrics/internal/builder"
	"github.com/gladstone-institutes/bibliometrics/internal/clinicaltrials"
	"github.com/gladstone-institutes/bibliometrics/internal/export"
	"github.com/gladstone-institutes/bibliometrics/internal/layout"
	"github.com/gladstone-institutes/bibliometrics/internal/litnet"
	"github.com/gladstone-institutes/bibliometrics/internal/pubmed"
	"github.com/gladstone-institutes/bibliometrics/internal/reference"
	"github.com/gladstone-institutes/bibliometrics/internal/stats"
	"github.com/gladstone-institutes/bibliometrics/internal/storage"
)

// Flags shared by the network building commands.
var (
	buildOut       string
	buildLevels    int
	buildLayout    bool
	buildMeshNodes bool
	buildEnrich    bool
	buildRoot      string
	bottomUpInst   string
	drugFDAFile    string
)

func addBuildFlags(cmd *cobra.Command, levels bool) {
	cmd.Flags().StringVarP(&buildOut, "out", "o", "", "Output graph file (.xgmml, .litnet or .json.gz)")
	cmd.Flags().BoolVar(&buildLayout, "layout", false, "Compute force-directed node positions")
	cmd.Flags().BoolVar(&buildMeshNodes, "mesh-nodes", false, "Add MeSH term nodes")
	if levels {
		cmd.Flags().IntVarP(&buildLevels, "levels", "l", 1, "Number of citation levels to fetch")
	}
	cmd.MarkFlagRequired("out")
}

func init() {
	addBuildFlags(buildCmd, false)
	buildCmd.Flags().BoolVar(&buildEnrich, "pubmed", false, "Complete records from PubMed before building")
	buildCmd.Flags().StringVar(&buildRoot, "root", "", "Label of a root node linking every record")

	addBuildFlags(bottomUpCmd, true)
	bottomUpCmd.Flags().StringVar(&bottomUpInst, "institution", "", "Keep only the author's articles from this institution")

	addBuildFlags(topDownCmd, true)
	topDownCmd.Flags().StringVar(&buildRoot, "root", "", "Label of the root node (default: first PMID)")

	addBuildFlags(drugCmd, true)
	drugCmd.Flags().StringVar(&drugFDAFile, "fda", "", "FDA reference list (CSE text or PDF)")

	rootCmd.AddCommand(buildCmd, bottomUpCmd, topDownCmd, drugCmd)
}

var buildCmd = &cobra.Command{
	Use:   "build <records.jsonl>",
	Short: "Build a network from reference records",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		recs, err := storage.ReadRecords(args[0])
		if err != nil {
			exitWithError(ExitDataError, "reading records: %v", err)
		}

		var opts []builder.Option
		if buildEnrich {
			src := mustOpenSources()
			defer src.Close()
			opts = append(opts, builder.WithArticles(src.pubmed))
		}
		b := newBuilder(buildName(buildRoot, args[0]), opts...)
		if err := b.Records(cmd.Context(), buildRoot, recs); err != nil {
			exitForError(err, "building network")
		}
		writeNetwork(b)
	},
}

var bottomUpCmd = &cobra.Command{
	Use:   "bottomup <author>",
	Short: "Build the network of articles citing an author",
	Long: `Build the network of an author's PubMed articles and, for each further
level, the articles citing the previous level.

The author is given as in PubMed, e.g. "Smith JA".`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		src := mustOpenSources()
		defer src.Close()

		b := newBuilder(args[0], builder.WithArticles(src.pubmed))
		if err := b.BottomUp(cmd.Context(), args[0], bottomUpInst, buildLevels); err != nil {
			exitForError(err, "building bottom-up network")
		}
		writeNetwork(b)
	},
}

var topDownCmd = &cobra.Command{
	Use:   "topdown <pmid>...",
	Short: "Build the network of articles referenced by the given articles",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		src := mustOpenSources()
		defer src.Close()

		root := buildRoot
		if root == "" {
			root = args[0]
		}
		b := newBuilder(root, builder.WithArticles(src.pubmed))
		if err := b.TopDown(cmd.Context(), root, args, buildLevels); err != nil {
			exitForError(err, "building top-down network")
		}
		writeNetwork(b)
	},
}

var drugCmd = &cobra.Command{
	Use:   "drug <name>",
	Short: "Build the network behind a drug's clinical trials",
	Long: `Build the network of a drug: its ClinicalTrials.gov trials, the articles
those trials reference, optionally the references of its FDA approval
package, and further levels of referenced articles.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var fdaRefs []reference.Record
		if drugFDAFile != "" {
			doc := mustReadCSE(drugFDAFile)
			fdaRefs = doc.Refs
		}

		src := mustOpenSources()
		defer src.Close()

		b := newBuilder(args[0], builder.WithArticles(src.pubmed), builder.WithTrials(src.trials))
		if err := b.Drug(cmd.Context(), args[0], fdaRefs, buildLevels); err != nil {
			exitForError(err, "building drug network")
		}
		writeNetwork(b)
	},
}

func newBuilder(name string, opts ...builder.Option) *builder.Builder {
	var netOpts []litnet.Option
	netOpts = append(netOpts, litnet.WithLogger(logger.Named("litnet")))
	if buildMeshNodes {
		netOpts = append(netOpts, litnet.WithMeshTermNodes())
	}
	opts = append(opts, builder.WithLogger(logger.Named("builder")), builder.WithNetOptions(netOpts...))
	return builder.New(name, opts...)
}

func buildName(root, path string) string {
	if root != "" {
		return root
	}
	return strings.TrimSuffix(path, ".jsonl")
}

// writeNetwork lays out and saves the built network, then reports it.
func writeNetwork(b *builder.Builder) {
	g := b.Net().Graph()
	resp := BuildResponse{
		Path:     buildOut,
		Nodes:    g.NodeCount(),
		Edges:    g.EdgeCount(),
		Kinds:    stats.KindCounts(g),
		Sources:  b.Counts(),
		Resolved: b.Net().Counts(),
	}
	if buildLayout {
		resp.Positions = layout.Apply(g, layout.DefaultOptions)
	}
	if err := export.Save(buildOut, g); err != nil {
		exitForError(err, "saving network")
	}

	if humanOutput {
		printBuildHuman(resp)
	} else {
		outputJSON(resp)
	}
}

// exitForError maps err to an exit code and exits.
func exitForError(err error, action string) {
	code := ExitError
	switch {
	case errors.Is(err, export.ErrUnknownFormat), errors.Is(err, export.ErrMalformed):
		code = ExitDataError
	case errors.Is(err, stats.ErrNoSuchAuthor), pubmed.IsNotFound(err), clinicaltrials.IsNotFound(err):
		code = ExitNotFound
	case errors.Is(err, pubmed.ErrAPIError), errors.Is(err, pubmed.ErrNetworkError),
		errors.Is(err, pubmed.ErrRateLimited), errors.Is(err, pubmed.ErrInvalidResponse),
		errors.Is(err, pubmed.ErrAuthError),
		errors.Is(err, clinicaltrials.ErrAPIError), errors.Is(err, clinicaltrials.ErrNetworkError),
		errors.Is(err, clinicaltrials.ErrRateLimited), errors.Is(err, clinicaltrials.ErrInvalidResponse):
		code = ExitRemoteError
	}
	exitWithError(code, "%s: %v", action, err)
}
