package analyzer

import (
	"bufio"
	"bytes"
)

// IndentChar is the dominant indentation character detected in a file.
type IndentChar string

const (
	IndentSpace IndentChar = "space"
	IndentTab   IndentChar = "tab"
)

// WhitespaceProfile describes a file's indentation and line-ending style,
// used by the Overlay Manager when reconciling uncommitted edits against the
// rest of a repository (spec section 4.1).
type WhitespaceProfile struct {
	IndentChar IndentChar
	IndentSize int // 0 when no consistent size could be detected
	LineEnding string
}

// minSizeOccurrences is the floor below which a candidate indent size is
// discarded as noise (spec section 4.1: "Size detection discards sizes seen
// fewer than 5 times").
const minSizeOccurrences = 5

// detectWhitespace scans src line by line, counting leading indent
// characters and run lengths to infer the file's dominant style.
func detectWhitespace(src []byte) WhitespaceProfile {
	lineEnding := "\n"
	if bytes.Contains(src, []byte("\r\n")) {
		lineEnding = "\r\n"
	}

	var spaceLines, tabLines int
	sizeCounts := map[int]int{}

	scanner := bufio.NewScanner(bytes.NewReader(src))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		switch line[0] {
		case ' ':
			spaceLines++
			n := 0
			for n < len(line) && line[n] == ' ' {
				n++
			}
			if n > 0 {
				sizeCounts[n]++
			}
		case '\t':
			tabLines++
		}
	}

	indentChar := IndentSpace
	if tabLines > spaceLines {
		indentChar = IndentTab
	}

	best, bestCount := 0, 0
	for size, count := range sizeCounts {
		if count < minSizeOccurrences {
			continue
		}
		if count > bestCount || (count == bestCount && (best == 0 || size < best)) {
			best, bestCount = size, count
		}
	}

	return WhitespaceProfile{IndentChar: indentChar, IndentSize: best, LineEnding: lineEnding}
}
