package litnet

import "github.com/gladstone-institutes/bibliometrics/internal/graph"

// PropagatePubdates gives every author, institution and grant agency that
// an article links to directly the minimum pubdate of those articles.
// Organization chains beyond the address are not followed.
func (n *Net) PropagatePubdates() {
	articles := n.g.NodesOf(graph.KindArticle)
	order := make([]int, len(articles))
	for i, a := range articles {
		order[i] = a.Index
	}
	n.propagatePubdates(order)
}

func (n *Net) propagatePubdates(order []int) {
	for _, idx := range order {
		article := n.g.Nodes()[idx]
		if article.Pubdate == nil {
			continue
		}
		for _, nb := range n.g.Successors(idx) {
			target := n.g.Nodes()[nb]
			switch target.Kind {
			case graph.KindAuthor, graph.KindInstitution, graph.KindGrantAgency:
			default:
				continue
			}
			if target.Pubdate == nil || *target.Pubdate > *article.Pubdate {
				target.Pubdate = intPtr(*article.Pubdate)
			}
		}
	}
}
