package domain

import (
	"fmt"
	"strings"
	"time"
)

// CommentTimeLayout is the timestamp format embedded in comment lines.
const CommentTimeLayout = "2006-01-02 15:04"

// Comment is the parsed view of one entry in a grievance comment log.
type Comment struct {
	Timestamp string
	Author    string
	Text      string
}

// FormatComment renders a single comment line: "[<timestamp>] <author>: <text>".
func FormatComment(at time.Time, author, text string) string {
	return fmt.Sprintf("[%s] %s: %s", at.Format(CommentTimeLayout), author, strings.TrimSpace(text))
}

// AppendComment appends a formatted comment line to an existing blob. The blob
// is trimmed and the new line concatenated, never replacing prior entries.
func AppendComment(blob string, at time.Time, author, text string) string {
	line := FormatComment(at, author, text)
	existing := strings.TrimSpace(blob)
	if existing == "" {
		return line
	}
	return existing + "\n" + line
}

// ParseComments splits a comment blob into entries, discarding blank lines.
// Entries are returned in stored (chronological ascending) order. Lines that do
// not match the "[ts] author: text" shape are kept with empty metadata rather
// than dropped, since the blob is free text by contract.
func ParseComments(blob string) []Comment {
	var out []Comment
	for _, line := range strings.Split(blob, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, parseCommentLine(line))
	}
	return out
}

func parseCommentLine(line string) Comment {
	if !strings.HasPrefix(line, "[") {
		return Comment{Text: line}
	}
	end := strings.Index(line, "]")
	if end < 0 {
		return Comment{Text: line}
	}
	ts := line[1:end]
	rest := strings.TrimSpace(line[end+1:])
	author, text, found := strings.Cut(rest, ": ")
	if !found {
		return Comment{Timestamp: ts, Text: rest}
	}
	return Comment{Timestamp: ts, Author: author, Text: text}
}
