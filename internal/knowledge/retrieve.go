package knowledge

import (
	"regexp"
	"sort"
	"strings"

	"github.com/soyeahso/boardflow/internal/domain"
)

// ScoredChunk is a chunk with its lexical relevance to a query.
type ScoredChunk struct {
	FileID    string
	FileTitle string
	Chunk     domain.Chunk
	Score     int
}

// Retrieve ranks chunks across the given files by case-insensitive term
// occurrence count and returns the topK best. Chunks that match no term
// are excluded; ties keep file and chunk order. A blank query retrieves
// nothing.
func Retrieve(query string, files []*domain.KnowledgeFile, topK int) []ScoredChunk {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return nil
	}
	if topK <= 0 {
		topK = 6
	}

	escaped := make([]string, len(terms))
	for i, term := range terms {
		escaped[i] = regexp.QuoteMeta(term)
	}
	re := regexp.MustCompile("(?i)" + strings.Join(escaped, "|"))

	var scored []ScoredChunk
	for _, f := range files {
		for _, ch := range f.Chunks {
			score := len(re.FindAllStringIndex(ch.Text, -1))
			if score == 0 {
				continue
			}
			scored = append(scored, ScoredChunk{
				FileID:    f.ID,
				FileTitle: f.Title,
				Chunk:     ch,
				Score:     score,
			})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}
