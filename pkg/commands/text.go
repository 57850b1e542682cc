package commands

import "strings"

const helpIndent = "  "

// longDesc strips the source indentation from every line of a long description.
func longDesc(s string) string {
	return normalizer{s}.trim().string
}

// examples is longDesc with every line indented for the help output.
func examples(s string) string {
	return normalizer{s}.trim().indent().string
}

type normalizer struct {
	string
}

// trim removes the surrounding blank lines and the leading and trailing whitespace of each line.
func (n normalizer) trim() normalizer {
	lines := strings.Split(strings.TrimSpace(n.string), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	n.string = strings.Join(lines, "\n")

	return n
}

func (n normalizer) indent() normalizer {
	if n.string == "" {
		return n
	}

	lines := strings.Split(n.string, "\n")
	for i, line := range lines {
		lines[i] = helpIndent + line
	}
	n.string = strings.Join(lines, "\n")

	return n
}
