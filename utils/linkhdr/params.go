package linkhdr

import "strings"

// SP and HTAB only.
const httpWhitespace = " \t"

func trimLeftOWS(s string) string {
	return strings.TrimLeft(s, httpWhitespace)
}

func trimRightOWS(s string) string {
	return strings.TrimRight(s, httpWhitespace)
}

// ParamScanner reads the parameters of a single link-value.
// It is used like a bufio.Scanner:
//
//	for ps.Scan() {
//		name, value := ps.Name(), ps.Value()
//	}
//	if err := ps.Err(); err != nil {
//		...
//	}
//	rest := ps.Rest()
//
// Names and values are substrings of the header; nothing is copied.
type ParamScanner struct {
	// unconsumed parameter text, only meaningful while !done
	params string
	// text of the next link-value, only meaningful once done
	rest string
	done bool

	name  string
	value string
	err   error
}

func newParamScanner(s string) (*ParamScanner, error) {
	ps := &ParamScanner{}
	if err := ps.reset(trimLeftOWS(s)); err != nil {
		return nil, err
	}
	return ps, nil
}

// reset positions the scanner at s which must be empty or start with a separator.
func (ps *ParamScanner) reset(s string) error {
	switch {
	case s == "":
		ps.done = true
		ps.rest = ""
	case s[0] == ';':
		ps.params = trimLeftOWS(s[1:])
	case s[0] == ',':
		ps.done = true
		ps.rest = trimLeftOWS(s[1:])
	default:
		return ErrExpectedSeparatorOrTermination
	}
	return nil
}

func (ps *ParamScanner) fail(err error) bool {
	ps.err = err
	ps.name, ps.value = "", ""
	return false
}

// Scan advances to the next parameter. It returns false when the parameter
// list is exhausted or a syntax error was found.
func (ps *ParamScanner) Scan() bool {
	if ps.done || ps.err != nil {
		return false
	}

	name, rest, ok := strings.Cut(ps.params, "=")
	if !ok {
		return ps.fail(ErrMissingEquals)
	}
	ps.name = trimRightOWS(name)

	rest = trimLeftOWS(rest)
	if strings.HasPrefix(rest, `"`) {
		value, after, ok := strings.Cut(rest[1:], `"`)
		if !ok {
			return ps.fail(ErrUnclosedQuote)
		}
		if err := ps.reset(trimLeftOWS(after)); err != nil {
			return ps.fail(err)
		}
		ps.value = value
		return true
	}

	if i := strings.IndexAny(rest, ",;"); i >= 0 {
		ps.value = rest[:i]
		// rest[i] is a separator so this can't fail.
		_ = ps.reset(rest[i:])
	} else {
		ps.value = rest
		ps.done = true
		ps.rest = ""
	}
	return true
}

func (ps *ParamScanner) Name() string {
	return ps.name
}

func (ps *ParamScanner) Value() string {
	return ps.value
}

// Err returns the first syntax error encountered by Scan.
func (ps *ParamScanner) Err() error {
	return ps.err
}

// Rest returns the header text following this link-value's parameters.
// It is either empty or starts at the next link-value.
// Only valid after Scan returned false and Err is nil.
func (ps *ParamScanner) Rest() string {
	if !ps.done || ps.err != nil {
		return ""
	}
	return ps.rest
}
