package viz

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/cockroachdb/errors"
)

var page = template.Must(template.New("viz").Parse(htmlTemplate))

// ErrInvalidLayout is returned for a layout name not in ValidLayouts.
var ErrInvalidLayout = errors.New("invalid layout")

// HTMLOptions configures a rendered page.
type HTMLOptions struct {
	Title  string
	Layout string // "preset", "force", "circle", "concentric" or "grid"
}

// DefaultOptions returns default HTML generation options: stored positions
// when every node has one, otherwise a force-directed layout in the browser.
func DefaultOptions() HTMLOptions {
	return HTMLOptions{Title: "Literature network"}
}

// ValidLayouts are the accepted HTMLOptions.Layout values.
var ValidLayouts = []string{"preset", "force", "circle", "concentric", "grid"}

// GenerateHTML renders a single HTML page for the network. Cytoscape.js
// itself is loaded from a CDN.
func GenerateHTML(graph *GraphData, opts HTMLOptions) (string, error) {
	if graph == nil {
		return "", errors.New("graph cannot be nil")
	}
	layout, err := layoutToCytoscape(opts.Layout, graph.HasPositions())
	if err != nil {
		return "", err
	}
	if opts.Title == "" {
		opts.Title = DefaultOptions().Title
	}

	elements, err := graph.ToCytoscapeJSON()
	if err != nil {
		return "", err
	}

	data := pageData{
		Title:     opts.Title,
		GraphJSON: template.JS(elements),
		Layout:    layout,
		Empty:     graph.IsEmpty(),
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, data); err != nil {
		return "", errors.Wrap(err, "rendering page")
	}
	return buf.String(), nil
}

type pageData struct {
	Title     string
	GraphJSON template.JS
	Layout    string
	Empty     bool
}

// layoutToCytoscape maps layout names to Cytoscape.js layout algorithms.
// An empty name picks "preset" when positions are available.
func layoutToCytoscape(layout string, positioned bool) (string, error) {
	switch layout {
	case "":
		if positioned {
			return "preset", nil
		}
		return "cose", nil
	case "preset":
		if !positioned {
			return "", errors.Wrap(ErrInvalidLayout, "preset layout needs stored positions; run with --layout")
		}
		return "preset", nil
	case "force":
		return "cose", nil
	case "circle", "concentric", "grid":
		return layout, nil
	default:
		return "", errors.Wrapf(ErrInvalidLayout, "%q: must be one of %s", layout, strings.Join(ValidLayouts, ", "))
	}
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="https://unpkg.com/cytoscape@3/dist/cytoscape.min.js"></script>
<style>
  html, body { margin: 0; height: 100%; font: 13px system-ui, sans-serif; color: #222; }
  main { display: flex; height: 100%; }
  #cy { flex: 1; }
  aside { width: 280px; padding: 12px 16px; border-left: 1px solid #ddd; overflow-y: auto; background: #fafafa; }
  aside h1 { font-size: 15px; margin: 0 0 12px; }
  #legend span { display: inline-block; margin: 0 8px 6px 0; }
  #legend i { display: inline-block; width: 10px; height: 10px; margin-right: 4px; border-radius: 2px; }
  #info dt { color: #777; font-size: 11px; margin-top: 8px; }
  #info dd { margin: 0; }
  .blank { color: #888; text-align: center; margin-top: 35vh; }
</style>
</head>
<body>
{{if .Empty}}
<p class="blank">{{.Title}}: the network has no nodes.</p>
{{else}}
<main>
  <div id="cy"></div>
  <aside>
    <h1>{{.Title}}</h1>
    <div id="legend"></div>
    <dl id="info"><dd>Click a node for details.</dd></dl>
  </aside>
</main>
<script>
(function() {
  var elements = {{.GraphJSON}};
  var colors = {
    root: '#2C3E50', drug: '#F1C40F', clinicaltrial: '#C0392B', article: '#4A90D9',
    author: '#E8923A', institution: '#27AE60', grantagency: '#9B59B6', meshterm: '#95A5A6'
  };
  var shapes = {
    root: 'star', drug: 'star', clinicaltrial: 'triangle', author: 'diamond',
    institution: 'hexagon', grantagency: 'rectangle', meshterm: 'round-rectangle'
  };

  var style = [{
    selector: 'node',
    style: {
      'label': 'data(label)', 'font-size': 9, 'text-valign': 'bottom', 'text-margin-y': 3,
      'width': 'mapData(inDegree, 0, 50, 14, 60)', 'height': 'mapData(inDegree, 0, 50, 14, 60)'
    }
  }, {
    selector: 'edge',
    style: {
      'width': 'mapData(count, 1, 10, 1, 5)', 'line-color': '#ccc', 'target-arrow-color': '#ccc',
      'target-arrow-shape': 'vee', 'curve-style': 'straight'
    }
  }, {
    selector: '.faded', style: { 'opacity': 0.15 }
  }, {
    selector: 'node.focus', style: { 'border-width': 3, 'border-color': '#e74c3c' }
  }];
  var legend = document.getElementById('legend');
  Object.keys(colors).forEach(function(k) {
    var st = { 'background-color': colors[k] };
    if (shapes[k]) st['shape'] = shapes[k];
    if (k === 'root' || k === 'drug') { st['width'] = 60; st['height'] = 60; st['font-size'] = 12; }
    style.push({ selector: 'node[kind = "' + k + '"]', style: st });
    var item = document.createElement('span');
    var swatch = document.createElement('i');
    swatch.style.background = colors[k];
    item.appendChild(swatch);
    item.appendChild(document.createTextNode(k));
    legend.appendChild(item);
  });

  var cy = cytoscape({
    container: document.getElementById('cy'),
    elements: elements,
    style: style,
    layout: {
      name: "{{.Layout}}",
      animate: false,
      nodeRepulsion: 8000,
      concentric: function(n) { return n.indegree(); }
    }
  });

  var info = document.getElementById('info');
  function row(term, value) {
    if (value === undefined || value === '' || value === 0 && term === 'Year') return;
    var dt = document.createElement('dt');
    var dd = document.createElement('dd');
    dt.textContent = term;
    dd.textContent = value;
    info.appendChild(dt);
    info.appendChild(dd);
  }

  cy.on('tap', 'node', function(evt) {
    var n = evt.target, d = n.data();
    info.innerHTML = '';
    row('Kind', d.kind);
    row('Label', d.label);
    row('Title', d.title);
    row('PMID', d.pmid);
    row('Year', d.year);
    row('Level', d.level);
    row('Score', d.score);
    row('Linked from', d.inDegree);

    cy.elements().addClass('faded').removeClass('focus');
    n.closedNeighborhood().removeClass('faded');
    n.addClass('focus');
  });
  cy.on('tap', function(evt) {
    if (evt.target === cy) {
      cy.elements().removeClass('faded focus');
    }
  });
})();
</script>
{{end}}
</body>
</html>`
