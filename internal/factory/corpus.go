package factory

import (
	"github.com/rs/zerolog"

	"github.com/euangelion/plan-service/internal/config"
	"github.com/euangelion/plan-service/internal/corpus"
)

// NewCorpusIndex loads the reference corpus from the prebuilt index when
// configured, falling back to chunking the corpus directory at boot. An
// empty corpus is allowed; composition degrades to generated-only days.
func NewCorpusIndex(cfg *config.Config, log zerolog.Logger) *corpus.Index {
	idx := corpus.Load(cfg.CorpusDir, cfg.PrebuiltIndexPath, log)

	total, bySource, words := idx.Stats()
	if total == 0 {
		log.Warn().
			Str("corpus_dir", cfg.CorpusDir).
			Str("prebuilt_index", cfg.PrebuiltIndexPath).
			Msg("reference corpus is empty; days will be fully generated")
		return idx
	}
	log.Info().
		Int("chunks", total).
		Int("total_words", words).
		Interface("by_source_type", bySource).
		Msg("reference corpus loaded")
	return idx
}
