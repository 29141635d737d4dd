package corpus

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const (
	maxFiles     = 500
	maxFileBytes = 4 * 1024 * 1024
	maxChunks    = 50_000
)

var allowedExtensions = map[string]bool{
	".md": true, ".markdown": true, ".txt": true, ".json": true,
}

var skipSegments = map[string]bool{
	".git": true, "node_modules": true,
}

// Index is the loaded, immutable reference corpus.
type Index struct {
	chunks []Chunk
}

// Load builds the index from a reference directory. When the directory is
// missing or empty, it falls back to the prebuilt index file (if configured).
// Either source may legitimately be absent; an empty index degrades retrieval
// softly rather than failing startup.
func Load(root, prebuiltPath string, log zerolog.Logger) *Index {
	idx := &Index{}

	files := collectFiles(root)
	for _, file := range files {
		if len(idx.chunks) >= maxChunks {
			break
		}
		raw, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		text := string(raw)
		if strings.HasSuffix(file, ".json") {
			// JSON reference files carry either a bare string or structured
			// text; re-serialize structures so the chunker sees prose-ish input.
			var v interface{}
			if err := json.Unmarshal(raw, &v); err == nil {
				if s, ok := v.(string); ok {
					text = s
				} else if b, err := json.MarshalIndent(v, "", "  "); err == nil {
					text = string(b)
				}
			}
		}
		rel, err := filepath.Rel(root, file)
		if err != nil {
			rel = file
		}
		for _, c := range ChunkText(text, rel, DetectSourceType(file), DefaultChunking) {
			if len(idx.chunks) >= maxChunks {
				break
			}
			idx.chunks = append(idx.chunks, c)
		}
	}

	if len(idx.chunks) == 0 && prebuiltPath != "" {
		idx.loadPrebuilt(prebuiltPath)
	}

	log.Info().
		Int("chunks", len(idx.chunks)).
		Str("root", root).
		Msg("reference corpus loaded")
	return idx
}

// NewFromChunks builds an index directly from chunks (used by tests and the
// prebuilt-index path).
func NewFromChunks(chunks []Chunk) *Index {
	for i := range chunks {
		if chunks[i].normalized == "" {
			chunks[i].normalized = strings.ToLower(chunks[i].Content)
		}
		if chunks[i].Priority == 0 {
			chunks[i].Priority = SourcePriority(chunks[i].SourceType)
		}
		if chunks[i].WordCount == 0 {
			chunks[i].WordCount = countWords(chunks[i].Content)
		}
		if chunks[i].Keywords == nil {
			chunks[i].Keywords = ExtractKeywords(chunks[i].Content)
		}
	}
	return &Index{chunks: chunks}
}

func (i *Index) loadPrebuilt(path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var indexed []Chunk
	if err := json.Unmarshal(raw, &indexed); err != nil {
		return
	}
	valid := map[SourceType]bool{
		SourceCommentary: true, SourceBible: true, SourceLexicon: true,
		SourceDictionary: true, SourceTheology: true,
	}
	for _, c := range indexed {
		if len(i.chunks) >= maxChunks {
			break
		}
		if c.ID == "" || c.Content == "" || !valid[c.SourceType] {
			continue
		}
		if isMetadataChunk(c.Content) {
			continue
		}
		if c.Priority == 0 {
			c.Priority = 2
		}
		if c.WordCount == 0 {
			c.WordCount = countWords(c.Content)
		}
		if c.Keywords == nil {
			c.Keywords = ExtractKeywords(c.Content)
		}
		c.normalized = strings.ToLower(c.Content)
		i.chunks = append(i.chunks, c)
	}
}

// Size returns the number of indexed chunks.
func (i *Index) Size() int { return len(i.chunks) }

// Stats summarizes the corpus for diagnostics.
func (i *Index) Stats() (total int, bySourceType map[SourceType]int, totalWords int) {
	bySourceType = make(map[SourceType]int)
	for _, c := range i.chunks {
		bySourceType[c.SourceType]++
		totalWords += c.WordCount
	}
	return len(i.chunks), bySourceType, totalWords
}

func collectFiles(root string) []string {
	var files []string
	if root == "" {
		return nil
	}
	if _, err := os.Stat(root); err != nil {
		return nil
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if len(files) >= maxFiles {
			return fs.SkipAll
		}
		if d.IsDir() {
			if skipSegments[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		if !allowedExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		if info, err := d.Info(); err != nil || info.Size() > maxFileBytes {
			return nil
		}
		files = append(files, path)
		return nil
	})
	return files
}
