package domain

import "encoding/json"

// RawNode is one unprocessed feed entry exactly as received from the API.
// The upstream returns nodes in one of two shapes: fields directly on the
// node, or wrapped one level deeper under a "node" key. Classification
// happens structurally in the normalizer, never here.
type RawNode = json.RawMessage

// RawPage is one fetched page of the tag feed.
type RawPage struct {
	Nodes     []RawNode
	EndCursor string // Opaque pagination token; empty denotes end-of-feed
	HasNext   bool
}
