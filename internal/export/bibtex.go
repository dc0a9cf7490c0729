package export

import (
	"fmt"
	"strings"

	"github.com/gladstone-institutes/bibliometrics/internal/graph"
	"github.com/gladstone-institutes/bibliometrics/internal/reference"
)

// CitationKey returns the BibTeX key of an article node.
func CitationKey(n *graph.Node) string {
	switch {
	case n.PMID != "":
		return "pmid" + n.PMID
	case n.WoSID != "":
		return strings.ReplaceAll(strings.ToLower(n.WoSID), ":", "")
	default:
		return fmt.Sprintf("litnet%d", n.Index)
	}
}

// ToBibTeX converts an article node of g to a BibTeX entry. Authors are the
// node's author successors in insertion order.
func ToBibTeX(g *graph.Graph, n *graph.Node) string {
	entryType := determineEntryType(n)
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@%s{%s,\n", entryType, CitationKey(n)))

	var authors []string
	for _, s := range g.Successors(n.Index) {
		if a := g.Nodes()[s]; a.Kind == graph.KindAuthor {
			authors = append(authors, a.Label)
		}
	}
	if len(authors) > 0 {
		b.WriteString(fmt.Sprintf("  author = {%s},\n", formatAuthors(authors)))
	}

	title := n.Title
	if title == "" {
		title = n.Label
	}
	b.WriteString(fmt.Sprintf("  title = {%s},\n", escapeLatex(title)))

	if n.Pubdate != nil {
		d := reference.Pubdate(*n.Pubdate)
		b.WriteString(fmt.Sprintf("  year = {%d},\n", d.Year()))
		if d.Month() > 0 {
			b.WriteString(fmt.Sprintf("  month = {%d},\n", d.Month()))
		}
	}

	if n.PMID != "" {
		b.WriteString(fmt.Sprintf("  pmid = {%s},\n", n.PMID))
	}
	if n.WoSID != "" {
		b.WriteString(fmt.Sprintf("  note = {%s},\n", n.WoSID))
	}

	b.WriteString("}\n")

	return b.String()
}

// ToBibTeXList converts every article node of g, skipping keys for which
// skip returns true. A nil skip keeps everything.
func ToBibTeXList(g *graph.Graph, skip func(key, pmid string) bool) string {
	var entries []string
	for _, n := range g.NodesOf(graph.KindArticle) {
		if skip != nil && skip(CitationKey(n), n.PMID) {
			continue
		}
		entries = append(entries, ToBibTeX(g, n))
	}
	return strings.Join(entries, "\n")
}

// determineEntryType returns the BibTeX entry type for an article node.
func determineEntryType(n *graph.Node) string {
	for _, pt := range n.Pubtypes {
		lower := strings.ToLower(pt)
		if strings.Contains(lower, "congress") || strings.Contains(lower, "conference") {
			return "inproceedings"
		}
	}
	if n.PMID == "" && n.WoSID == "" && n.Pubdate == nil {
		return "misc"
	}
	return "article"
}

// formatAuthors turns normalized names ("doe jm") into "Doe, J. M. and ...".
func formatAuthors(names []string) string {
	var formatted []string
	for _, name := range names {
		parts := strings.Fields(name)
		if len(parts) == 0 {
			continue
		}
		last := capitalize(strings.Join(parts[:len(parts)-1], " "))
		initials := parts[len(parts)-1]
		if len(parts) == 1 {
			formatted = append(formatted, capitalize(initials))
			continue
		}
		var dotted []string
		for _, r := range strings.ToUpper(initials) {
			dotted = append(dotted, string(r)+".")
		}
		formatted = append(formatted, fmt.Sprintf("%s, %s", last, strings.Join(dotted, " ")))
	}
	return strings.Join(formatted, " and ")
}

func capitalize(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	// & goes first so later replacements are not re-escaped.
	replacer := strings.NewReplacer(
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
