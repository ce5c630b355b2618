// Package domain holds the element-chain types for autocapture events: one
// Element per DOM node in the captured ancestor chain, content-addressed by
// a hash over the ordered chain.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Element is one node in a captured DOM element chain. Order within the
// chain is significant and is part of the hash input.
type Element struct {
	TagName    string            `json:"tag_name"`
	Text       *string           `json:"text"`
	AttrClass  []string          `json:"attr_class"`
	AttrID     *string           `json:"attr_id"`
	Href       *string           `json:"href"`
	NthChild   *int              `json:"nth_child"`
	NthOfType  *int              `json:"nth_of_type"`
	Attributes map[string]string `json:"attributes"`
}

// ExternalElement is the boundary format consumed outside this core by
// event-payload enrichment. Attributes are internal-only and dropped.
type ExternalElement struct {
	Text      *string  `json:"$el_text"`
	AttrClass []string `json:"attr__class"`
	Href      *string  `json:"attr__href"`
	AttrID    *string  `json:"attr__id"`
	NthChild  *int     `json:"nth_child"`
	NthOfType *int     `json:"nth_of_type"`
	TagName   string   `json:"tag_name"`
}

// ToEventPayloadFormat maps each element to the external payload shape.
// The transform is total and null-preserving: a nil AttrClass stays nil
// (marshals as null), never an empty list.
func ToEventPayloadFormat(chain []Element) []ExternalElement {
	out := make([]ExternalElement, len(chain))
	for i, el := range chain {
		out[i] = ExternalElement{
			Text:      el.Text,
			AttrClass: el.AttrClass,
			Href:      el.Href,
			AttrID:    el.AttrID,
			NthChild:  el.NthChild,
			NthOfType: el.NthOfType,
			TagName:   el.TagName,
		}
	}
	return out
}

// HashChain returns the content hash of the ordered chain: hex-encoded
// sha256 over the canonical JSON encoding of the slice. Identical chains
// always hash identically across processes; any change to a field or to the
// order changes the digest. Lookups are always scoped by (team_id, hash), so
// the digest itself is team-agnostic.
func HashChain(chain []Element) (string, error) {
	b, err := json.Marshal(chain)
	if err != nil {
		return "", fmt.Errorf("hash chain: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
