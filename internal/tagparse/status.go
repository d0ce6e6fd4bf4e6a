package tagparse

import (
	"bufio"
	"strings"
)

// InconsistentKeyword flags an audit with findings when found anywhere in the response.
const InconsistentKeyword = "INCONSISTENTE"

// IsInconsistent reports whether the response contains InconsistentKeyword,
// case-insensitively. The scan covers the whole text, not only the STATUS line,
// so a report body that mentions the word also flips the banner.
func IsInconsistent(response string) bool {
	return strings.Contains(strings.ToUpper(response), InconsistentKeyword)
}

// StatusLine returns the value after the first "STATUS:" line prefix.
func StatusLine(response string) (string, bool) {
	sc := bufio.NewScanner(strings.NewReader(response))
	sc.Buffer(make([]byte, 0, 64*1024), len(response)+1)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		line = strings.TrimLeft(line, "*# ")
		if len(line) < len("STATUS:") || !strings.EqualFold(line[:len("STATUS:")], "STATUS:") {
			continue
		}
		value := strings.TrimSpace(line[len("STATUS:"):])
		return strings.Trim(value, "*[] "), true
	}
	return "", false
}

// StripStatusLine removes the first STATUS line so it is not repeated under the banner.
func StripStatusLine(response string) string {
	lines := strings.Split(response, "\n")
	for i, raw := range lines {
		line := strings.TrimLeft(strings.TrimSpace(raw), "*# ")
		if len(line) >= len("STATUS:") && strings.EqualFold(line[:len("STATUS:")], "STATUS:") {
			return strings.Join(append(lines[:i:i], lines[i+1:]...), "\n")
		}
	}
	return response
}
