package cmd

import (
	"os"
	"strings"
)

// Exit, limiting the code to a max of 125 (as recommended by os.Exit).
func exit(code int) {
	if code > 125 {
		code = 125
	}
	os.Exit(code)
}

// cutHeader splits "Name: value".
func cutHeader(s string) (string, string, bool) {
	k, v, ok := strings.Cut(s, ":")
	k = strings.TrimSpace(k)
	if !ok || k == "" {
		return "", "", false
	}
	return k, strings.TrimSpace(v), true
}
