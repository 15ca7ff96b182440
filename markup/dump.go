package markup

import (
	"strings"

	"h2d/utils/debug"
)

// Dump returns indented representation of the subtree for debug reports.
func (n *Node) Dump() string {
	tw := debug.NewTreeWriter()
	dumpNode(tw, n, 0)
	return tw.String()
}

func dumpNode(tw *debug.TreeWriter, n *Node, depth int) {
	if n == nil {
		return
	}
	if n.IsText() {
		tw.TextBlock(depth, "#text", n.Text)
		return
	}

	kv := make([]string, 0, 2*len(n.Attrs)+2)
	for _, a := range n.Attrs {
		if a.Key == "style" {
			continue
		}
		kv = append(kv, a.Key, a.Val)
	}
	if len(n.Styles) > 0 {
		decls := make([]string, len(n.Styles))
		for i, d := range n.Styles {
			decls[i] = d.String()
		}
		kv = append(kv, "style", strings.Join(decls, "; "))
	}
	tw.Fields(depth, n.Tag+" ["+n.Kind().String()+"]", kv...)

	if n.Kind() == KindSVG {
		tw.TextBlock(depth+1, "#svg", n.Text)
		return
	}
	for _, c := range n.Children {
		dumpNode(tw, c, depth+1)
	}
}
