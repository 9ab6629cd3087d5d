// Package chunker splits documents into overlapping fixed-size text
// segments for indexing.
package chunker

import (
	"errors"
	"strconv"
	"strings"

	"muetbot/internal/domain"
)

// ErrNoChunks is returned when splitting the input produced nothing,
// which would otherwise lead to a silently empty index.
var ErrNoChunks = errors.New("text splitting resulted in zero chunks")

// RecursiveSplitter splits text on a prioritized separator list,
// producing segments of at most chunkSize characters with overlap
// between consecutive segments of the same document.
type RecursiveSplitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// NewRecursiveSplitter creates a splitter. Zero values fall back to the
// defaults of 1000 character chunks with 200 character overlap.
func NewRecursiveSplitter(chunkSize, overlap int) *RecursiveSplitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 200
		if overlap >= chunkSize {
			overlap = chunkSize / 5
		}
	}
	return &RecursiveSplitter{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: []string{"\n\n", "\n", " ", ""},
	}
}

// Split chunks every document and assigns per-document sequence
// indices. It fails when all input was empty or whitespace.
func (s *RecursiveSplitter) Split(documents []domain.Document) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for _, doc := range documents {
		idx := 0
		for _, piece := range s.splitText(doc.Content, s.separators) {
			if strings.TrimSpace(piece) == "" {
				continue
			}
			chunks = append(chunks, domain.Chunk{
				DocumentID: doc.ID,
				ChunkID:    doc.ID + ":" + strconv.Itoa(idx),
				Text:       piece,
				Index:      idx,
			})
			idx++
		}
	}
	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}
	return chunks, nil
}

// splitText splits on the first separator present in text, recursing
// into the remaining separators for oversized pieces.
func (s *RecursiveSplitter) splitText(text string, separators []string) []string {
	if len(text) <= s.chunkSize {
		return []string{text}
	}

	sep, rest := pickSeparator(text, separators)
	if sep == "" {
		return s.hardSplit(text)
	}

	parts := strings.Split(text, sep)
	var out []string
	var pending []string
	pendingLen := 0
	fresh := false // pending holds content not yet emitted

	for _, part := range parts {
		if len(part) > s.chunkSize {
			if fresh {
				out = append(out, strings.Join(pending, sep))
			}
			pending, pendingLen, fresh = nil, 0, false
			out = append(out, s.splitText(part, rest)...)
			continue
		}
		if pendingLen > 0 && pendingLen+len(sep)+len(part) > s.chunkSize {
			if fresh {
				out = append(out, strings.Join(pending, sep))
			}
			pending, pendingLen = overlapTail(pending, sep, s.overlap)
			fresh = false
		}
		if pendingLen > 0 {
			pendingLen += len(sep)
		}
		pending = append(pending, part)
		pendingLen += len(part)
		fresh = true
	}
	if fresh {
		out = append(out, strings.Join(pending, sep))
	}
	return out
}

// hardSplit cuts at character boundaries as the last resort, stepping
// by chunkSize minus overlap so neighbours share context.
func (s *RecursiveSplitter) hardSplit(text string) []string {
	step := s.chunkSize - s.overlap
	runes := []rune(text)
	var out []string
	for i := 0; i < len(runes); i += step {
		end := i + s.chunkSize
		if end >= len(runes) {
			out = append(out, string(runes[i:]))
			break
		}
		out = append(out, string(runes[i:end]))
	}
	return out
}

// pickSeparator returns the first separator occurring in text and the
// separators after it, falling back to the character boundary.
func pickSeparator(text string, separators []string) (string, []string) {
	for i, sep := range separators {
		if sep == "" {
			return "", nil
		}
		if strings.Contains(text, sep) {
			return sep, separators[i+1:]
		}
	}
	return "", nil
}

// overlapTail keeps trailing parts totalling at most overlap characters
// to seed the next chunk.
func overlapTail(parts []string, sep string, overlap int) ([]string, int) {
	var kept []string
	total := 0
	for i := len(parts) - 1; i >= 0; i-- {
		add := len(parts[i])
		if len(kept) > 0 {
			add += len(sep)
		}
		if total+add > overlap {
			break
		}
		kept = append([]string{parts[i]}, kept...)
		total += add
	}
	return kept, total
}
