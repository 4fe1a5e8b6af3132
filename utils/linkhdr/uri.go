package linkhdr

import "strings"

// ReadLinkValue reads the URI of the first link-value in s and returns
// a ParamScanner positioned at its parameters.
// s must not be empty.
func ReadLinkValue(s string) (string, *ParamScanner, error) {
	s, ok := strings.CutPrefix(trimLeftOWS(s), "<")
	if !ok {
		return "", nil, ErrExpectedOpenAngle
	}

	uri, rest, ok := strings.Cut(s, ">")
	if !ok {
		return "", nil, ErrExpectedCloseAngle
	}

	ps, err := newParamScanner(rest)
	if err != nil {
		return "", nil, err
	}
	return uri, ps, nil
}
