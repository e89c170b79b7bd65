// Package extract scans HTML documents for outbound references.
//
// The site's documents are decades of word-processor exports and hand edits,
// so extraction is a tolerant token scan, not a strict parse: unclosed tags
// and stray markup never fail a document, they are simply skipped.
package extract

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Kind identifies which attribute a reference came from.
type Kind string

const (
	KindHyperlink  Kind = "hyperlink"  // a/area href
	KindImage      Kind = "image"      // img src
	KindStylesheet Kind = "stylesheet" // link rel=stylesheet href
	KindScript     Kind = "script"     // script src
)

// Reference is one outbound pointer found in a document. RawText is the
// attribute value exactly as written, including any fragment or query.
type Reference struct {
	SourceFile string
	RawText    string
	Kind       Kind
}

// Scanner walks a document's tags and yields references one at a time.
// A Scanner is single-pass; create a new one to rescan the same document.
type Scanner struct {
	tokenizer  *html.Tokenizer
	sourceFile string
	pending    []Reference
}

// NewScanner creates a scanner over document text.
func NewScanner(document []byte, sourceFile string) *Scanner {
	return &Scanner{
		tokenizer:  html.NewTokenizer(bytes.NewReader(document)),
		sourceFile: sourceFile,
	}
}

// Next returns the next reference in document order. The second return value
// is false once the document is exhausted.
func (s *Scanner) Next() (Reference, bool) {
	for {
		if len(s.pending) > 0 {
			ref := s.pending[0]
			s.pending = s.pending[1:]
			return ref, true
		}

		tokenType := s.tokenizer.Next()
		if tokenType == html.ErrorToken {
			// End of input, or markup the tokenizer could not recover from.
			// Either way the document is done.
			return Reference{}, false
		}
		if tokenType != html.StartTagToken && tokenType != html.SelfClosingTagToken {
			continue
		}

		token := s.tokenizer.Token()
		s.pending = referencesFromTag(token, s.sourceFile)
	}
}

// All returns every reference in the document in order.
func All(document []byte, sourceFile string) []Reference {
	s := NewScanner(document, sourceFile)
	var refs []Reference
	for {
		ref, ok := s.Next()
		if !ok {
			return refs
		}
		refs = append(refs, ref)
	}
}

// referencesFromTag pulls the reference-bearing attributes out of one tag.
// The tokenizer has already lowercased tag and attribute names, which covers
// the corpus's HREF/href inconsistency; quoting style never reaches us.
func referencesFromTag(token html.Token, sourceFile string) []Reference {
	var refs []Reference

	switch token.Data {
	case "a", "area":
		if val, ok := attrValue(token, "href"); ok {
			refs = append(refs, Reference{SourceFile: sourceFile, RawText: val, Kind: KindHyperlink})
		}
	case "img":
		if val, ok := attrValue(token, "src"); ok {
			refs = append(refs, Reference{SourceFile: sourceFile, RawText: val, Kind: KindImage})
		}
	case "script":
		if val, ok := attrValue(token, "src"); ok {
			refs = append(refs, Reference{SourceFile: sourceFile, RawText: val, Kind: KindScript})
		}
	case "link":
		rel, _ := attrValue(token, "rel")
		if strings.Contains(strings.ToLower(rel), "stylesheet") {
			if val, ok := attrValue(token, "href"); ok {
				refs = append(refs, Reference{SourceFile: sourceFile, RawText: val, Kind: KindStylesheet})
			}
		}
	}

	return refs
}

// attrValue returns the first occurrence of the named attribute. ok is true
// even for an empty value: a bare href="" is a dangling reference the caller
// must surface, not hide.
func attrValue(token html.Token, name string) (string, bool) {
	for _, attr := range token.Attr {
		if attr.Key == name {
			return attr.Val, true
		}
	}
	return "", false
}
