package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAppendCommentToEmptyBlob(t *testing.T) {
	at := time.Date(2025, 9, 1, 10, 30, 0, 0, time.UTC)
	blob := AppendComment("", at, "Alice Johnson", "Technician scheduled.")
	require.Equal(t, "[2025-09-01 10:30] Alice Johnson: Technician scheduled.", blob)
}

func TestAppendCommentPreservesPriorEntries(t *testing.T) {
	at := time.Date(2025, 9, 1, 10, 30, 0, 0, time.UTC)
	blob := AppendComment("", at, "Alice Johnson", "x")
	blob = AppendComment(blob, at.Add(time.Hour), "Bob Smith", "y")

	entries := ParseComments(blob)
	require.Len(t, entries, 2)
	require.Equal(t, "Alice Johnson", entries[0].Author)
	require.Equal(t, "x", entries[0].Text)
	require.Equal(t, "Bob Smith", entries[1].Author)
	require.Equal(t, "y", entries[1].Text)
}

func TestAppendCommentTrimsTrailingWhitespace(t *testing.T) {
	at := time.Date(2025, 9, 1, 10, 30, 0, 0, time.UTC)
	blob := AppendComment("first line\n\n", at, "Admin Two", "second")
	require.Equal(t, "first line\n[2025-09-01 10:30] Admin Two: second", blob)
}

func TestParseCommentsDiscardsBlankLines(t *testing.T) {
	entries := ParseComments("\n[2025-09-01 10:30] Alice: hello\n\n\n[2025-09-01 11:30] Bob: bye\n")
	require.Len(t, entries, 2)
	require.Equal(t, "2025-09-01 10:30", entries[0].Timestamp)
	require.Equal(t, "2025-09-01 11:30", entries[1].Timestamp)
}

func TestParseCommentsKeepsFreeTextLines(t *testing.T) {
	entries := ParseComments("Technician scheduled for Friday.")
	require.Len(t, entries, 1)
	require.Empty(t, entries[0].Author)
	require.Equal(t, "Technician scheduled for Friday.", entries[0].Text)
}

func TestValidCategoryAndStatus(t *testing.T) {
	require.True(t, ValidCategory(CategoryIT))
	require.False(t, ValidCategory(GrievanceCategory("Legal")))
	require.True(t, ValidStatus(StatusWIP))
	require.False(t, ValidStatus(GrievanceStatus("Pending")))
}
