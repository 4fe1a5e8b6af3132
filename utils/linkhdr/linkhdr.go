// Package linkhdr parses HTTP Link header fields (RFC 8288) and extracts
// pagination links from them.
package linkhdr

import (
	"net/url"
)

const (
	relParam = "rel"
	relNext  = "next"
)

// linkValue is a fully scanned link-value.
type linkValue struct {
	uri string
	// The value of the first rel parameter.
	rel    string
	hasRel bool
}

// walk calls fn for every link-value in hdr, in order.
// Only the first rel parameter of a link-value is kept, later ones are
// ignored but still scanned for syntax errors.
func walk(hdr string, fn func(lv linkValue) error) error {
	rest := hdr
	for rest != "" {
		offset := len(hdr) - len(rest)

		uri, ps, err := ReadLinkValue(rest)
		if err != nil {
			return &SyntaxError{Offset: offset, Err: err}
		}

		lv := linkValue{uri: uri}
		for ps.Scan() {
			if !lv.hasRel && equalFoldASCII(ps.Name(), relParam) {
				lv.rel = ps.Value()
				lv.hasRel = true
			}
		}
		if err := ps.Err(); err != nil {
			return &SyntaxError{Offset: offset, Err: err}
		}

		if err := fn(lv); err != nil {
			return err
		}
		rest = ps.Rest()
	}
	return nil
}

// NextStrings returns the URIs of every link-value whose relation types
// include "next", in header order. The URIs are returned verbatim.
func NextStrings(hdr string) ([]string, error) {
	var ret []string
	err := walk(hdr, func(lv linkValue) error {
		if lv.hasRel && hasRelType(lv.rel, relNext) {
			ret = append(ret, lv.uri)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// Next is like NextStrings but parses each URI with url.Parse.
// Every next link must be an absolute URI. Use NextStrings to resolve
// relative references yourself.
func Next(hdr string) ([]*url.URL, error) {
	var ret []*url.URL
	err := walk(hdr, func(lv linkValue) error {
		if !lv.hasRel || !hasRelType(lv.rel, relNext) {
			return nil
		}
		u, err := url.Parse(lv.uri)
		if err != nil {
			return &InvalidURIError{URI: lv.uri, Err: err}
		}
		if !u.IsAbs() {
			return &InvalidURIError{URI: lv.uri, Err: ErrRelativeURI}
		}
		ret = append(ret, u)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// FirstNext returns the first next link or nil if there is none.
// The whole header is validated, not just the part before the match.
func FirstNext(hdr string) (*url.URL, error) {
	links, err := Next(hdr)
	if err != nil || len(links) == 0 {
		return nil, err
	}
	return links[0], nil
}

// Parse returns the first URI for every relation type in the header.
// Relation types are lower cased.
func Parse(hdr string) (map[string]string, error) {
	ret := make(map[string]string, 4)
	err := walk(hdr, func(lv linkValue) error {
		if !lv.hasRel {
			return nil
		}
		for _, rel := range relTypes(lv.rel) {
			rel = toLowerASCII(rel)
			if _, ok := ret[rel]; !ok {
				ret[rel] = lv.uri
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}
