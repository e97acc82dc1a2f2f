package analyzer

import (
	"bytes"
	"fmt"
)

// chunkSize is the fallback line window for files the analyzer cannot parse
// into scopes (spec section 4.1 step 5): unparsed extensions, missing
// grammars, and files tree-sitter fails to parse at all.
const chunkSize = 50

// buildContent renders the content string stored alongside a CLASS or
// FUNCTION node: a two-line header naming the file and the dotted symbol,
// followed by the scope's exact source lines. FILE nodes carry no content —
// callers never invoke buildContent for them.
func buildContent(fileName, symbol string, lines [][]byte) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n# %s\n", fileName, symbol)
	for _, l := range lines {
		buf.Write(l)
		buf.WriteByte('\n')
	}
	return buf.String()
}

// chunkFile splits src into chunkSize-line windows for files with no parsed
// scopes, each carrying a one-line file header. Returns one content string
// per chunk along with the 0-based start/end line of each.
func chunkFile(fileName string, src []byte) []chunk {
	lines := splitLines(src)
	if len(lines) == 0 {
		return nil
	}

	var chunks []chunk
	for start := 0; start < len(lines); start += chunkSize {
		end := start + chunkSize
		if end > len(lines) {
			end = len(lines)
		}
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "# %s\n", fileName)
		for _, l := range lines[start:end] {
			buf.Write(l)
			buf.WriteByte('\n')
		}
		chunks = append(chunks, chunk{startLine: start, endLine: end, content: buf.String()})
	}
	return chunks
}

type chunk struct {
	startLine int
	endLine   int
	content   string
}

// sliceLines returns src's lines in [start, end), used to render a scope's
// exact source window into its content string.
func sliceLines(src []byte, start, end int) [][]byte {
	lines := splitLines(src)
	if start < 0 {
		start = 0
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return nil
	}
	return lines[start:end]
}

// splitLines splits src on "\n", preserving bare lines without the newline
// byte (callers re-append "\n" when rendering).
func splitLines(src []byte) [][]byte {
	if len(src) == 0 {
		return nil
	}
	raw := bytes.Split(src, []byte("\n"))
	if len(raw) > 0 && len(raw[len(raw)-1]) == 0 {
		raw = raw[:len(raw)-1]
	}
	return raw
}
