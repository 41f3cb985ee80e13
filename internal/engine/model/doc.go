// Package model provides the immutable tree document model.
//
// A document is a tree of Nodes rooted at a node of TypeRoot. Nodes are never
// mutated after construction; every edit produces a new tree that shares
// unchanged subtrees with the old one.
//
// # Positions
//
// Positions are flat integer offsets. Entering or leaving a non-text node
// consumes one unit, a leaf block consumes one unit, and text contributes its
// length in runes. Positions inside a document range over the root's content,
// so the valid range is [0, doc.ContentSize()]:
//
//	doc(heading("Title"), paragraph("Hi"))
//	0   1       6       7 8          10 11
//
// Parent back-pointers are never stored. Resolve walks from the root and
// returns a ResolvedPos carrying the ancestor chain for one position.
//
// # Schema
//
// The set of node and mark types is closed. Each type has a NodeSpec in a
// table indexed by type holding its content rule, whether its text may carry
// marks, and its attribute defaults and validation. Replace validates every
// node it closes and fails with ErrSchemaViolation on bad content.
//
// # Codec
//
// NodeFromJSON and NodeFromYAML decode the JSON/YAML tree layout used by
// ingestion collaborators and fixtures. Decoded trees are checked against the
// schema before they are returned.
package model
