package edit

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/alantheprice/ori/pkg/ui"
)

// contextLines is how many unchanged lines are kept around each change.
const contextLines = 3

type diffLine struct {
	op   diffmatchpatch.Operation
	text string
}

// lineDiff diffs two texts line by line.
func lineDiff(oldText, newText string) []diffLine {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	var out []diffLine
	for _, d := range diffs {
		text := strings.TrimSuffix(d.Text, "\n")
		for _, line := range strings.Split(text, "\n") {
			out = append(out, diffLine{op: d.Type, text: line})
		}
	}
	return out
}

// Diff renders a coloured line diff of oldText against newText headed by
// name and the added and removed line counts. It returns "" when the texts
// are equal.
func Diff(name, oldText, newText string) string {
	if oldText == newText {
		return ""
	}
	lines := lineDiff(oldText, newText)

	var additions, deletions int
	keep := make([]bool, len(lines))
	for i, l := range lines {
		if l.op == diffmatchpatch.DiffEqual {
			continue
		}
		if l.op == diffmatchpatch.DiffInsert {
			additions++
		} else {
			deletions++
		}
		for j := max(0, i-contextLines); j <= min(len(lines)-1, i+contextLines); j++ {
			keep[j] = true
		}
	}

	var sb strings.Builder
	sb.WriteString(ui.Colorize(ui.Bold+ui.Yellow, name))
	if additions > 0 {
		sb.WriteString(" " + ui.Colorize(ui.Bold+ui.Green, fmt.Sprintf("+%d", additions)))
	}
	if deletions > 0 {
		sb.WriteString(" " + ui.Colorize(ui.Bold+ui.Red, fmt.Sprintf("-%d", deletions)))
	}
	sb.WriteString("\n")

	skipped := false
	for i, l := range lines {
		if !keep[i] {
			skipped = true
			continue
		}
		if skipped {
			sb.WriteString(ui.Colorize(ui.Cyan, "@@") + "\n")
			skipped = false
		}
		switch l.op {
		case diffmatchpatch.DiffDelete:
			sb.WriteString(ui.Colorize(ui.Red, "- "+l.text) + "\n")
		case diffmatchpatch.DiffInsert:
			sb.WriteString(ui.Colorize(ui.Green, "+ "+l.text) + "\n")
		default:
			sb.WriteString("  " + l.text + "\n")
		}
	}
	return sb.String()
}
