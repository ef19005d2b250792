package token

import (
	"bytes"
	"regexp"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// codingRE matches a PEP 263 coding declaration, e.g. "# -*- coding: utf-8 -*-"
// or the simpler "# coding=latin-1" form. It is only meaningful on one of the
// first two physical lines of a file.
var codingRE = regexp.MustCompile(`coding[:=]\s*([-\w.]+)`)

// DetectEncoding inspects the first two physical lines of src for a PEP 263
// coding declaration, honouring a UTF-8 BOM override (spec §4.A "Encoding detection").
// It returns the declared encoding name (default "utf-8") and the slice of src
// with any BOM stripped.
func DetectEncoding(src []byte) (encoding string, rest []byte) {
	rest = src
	hadBOM := bytes.HasPrefix(src, bom)
	if hadBOM {
		rest = src[len(bom):]
	}
	encoding = "utf-8"
	lines := bytes.SplitN(rest, []byte("\n"), 3)
	for i := 0; i < len(lines) && i < 2; i++ {
		if m := codingRE.FindSubmatch(lines[i]); m != nil {
			encoding = string(m[1])
		}
	}
	if hadBOM {
		// A BOM always means UTF-8 regardless of what the comment claims.
		encoding = "utf-8"
	}
	return encoding, rest
}
