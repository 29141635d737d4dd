package main

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/euangelion/plan-service/internal/corpus"
	"github.com/euangelion/plan-service/internal/logger"
)

// plan-indexer chunks a reference corpus directory into the prebuilt JSON
// index the service loads at boot, so production boots skip the chunking
// pass.
func main() {
	corpusDir := flag.String("corpus", "./content/reference", "Reference corpus directory")
	outPath := flag.String("out", "./corpus-index.json", "Output path for the prebuilt index")
	flag.Parse()

	lg := logger.New("plan-indexer")
	log.Logger = lg

	var chunks []corpus.Chunk
	err := filepath.WalkDir(*corpusDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".md" && ext != ".txt" {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(*corpusDir, path)
		if relErr != nil {
			rel = path
		}
		st := corpus.DetectSourceType(path)
		fileChunks := corpus.ChunkText(string(raw), rel, st, corpus.DefaultChunking)
		chunks = append(chunks, fileChunks...)
		lg.Debug().Str("file", rel).Int("chunks", len(fileChunks)).Msg("chunked")
		return nil
	})
	if err != nil {
		lg.Fatal().Err(err).Str("dir", *corpusDir).Msg("corpus walk failed")
	}
	if len(chunks) == 0 {
		lg.Fatal().Str("dir", *corpusDir).Msg("no reference sources found")
	}

	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		lg.Fatal().Err(err).Msg("marshal index")
	}
	if err := os.WriteFile(*outPath, data, 0o644); err != nil {
		lg.Fatal().Err(err).Str("out", *outPath).Msg("write index")
	}

	words := 0
	for _, c := range chunks {
		words += c.WordCount
	}
	lg.Info().
		Int("chunks", len(chunks)).
		Int("total_words", words).
		Str("out", *outPath).
		Msg("prebuilt index written")
}
