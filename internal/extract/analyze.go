// Package extract implements the selection extraction protocol: a selection
// is split into the text blocks it touches, each block is sent with its full
// text to a content generator, and the generated replacements are written
// back in one transaction.
package extract

import (
	"fmt"
	"unicode/utf8"

	"github.com/dshills/scribe/internal/engine/model"
)

// NodeSelectionInfo describes the part of one text block covered by a
// selection. From and To are offsets into the block's text; ContextFrom and
// ContextTo are the document positions around the block.
type NodeSelectionInfo struct {
	From        int    `json:"from"`
	To          int    `json:"to"`
	Content     string `json:"content"`
	Context     string `json:"context"`
	ContextFrom int    `json:"contextFrom"`
	ContextTo   int    `json:"contextTo"`
}

// SelectedRange returns the document range of the selected text.
func (n NodeSelectionInfo) SelectedRange() (int, int) {
	start := n.ContextFrom + 1
	return start + n.From, start + n.To
}

// ContentRange returns the document range of the block's content.
func (n NodeSelectionInfo) ContentRange() (int, int) {
	return n.ContextFrom + 1, n.ContextTo - 1
}

// Analyze returns one entry per text block intersecting [from, to), in
// document order.
func Analyze(doc *model.Node, from, to int) ([]NodeSelectionInfo, error) {
	if from > to {
		from, to = to, from
	}
	if from == to {
		return nil, ErrSelectionCollapsed
	}
	if from < 0 || to > doc.ContentSize() {
		return nil, fmt.Errorf("%w: selection %d-%d in document of size %d",
			model.ErrOutOfRange, from, to, doc.ContentSize())
	}

	var nodes []NodeSelectionInfo
	doc.NodesBetween(from, to, func(node *model.Node, pos int, _ *model.Node, _ int) bool {
		if !node.IsTextblock() {
			return true
		}
		end := pos + node.NodeSize()
		selStart, selEnd := max(from, pos), min(to, end)
		if selStart >= selEnd {
			return false
		}
		context := node.TextContent()
		contentStart := pos + 1
		nodes = append(nodes, NodeSelectionInfo{
			From:        max(0, selStart-contentStart),
			To:          min(utf8.RuneCountInString(context), selEnd-contentStart),
			Content:     doc.TextBetween(selStart, selEnd, "\n"),
			Context:     context,
			ContextFrom: pos,
			ContextTo:   end,
		})
		return false
	})
	return nodes, nil
}
