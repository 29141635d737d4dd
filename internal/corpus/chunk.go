// Package corpus implements the reference corpus index: a static, queryable
// collection of attributed content fragments used as composition raw
// material. The index is built once at startup and is read-only afterwards.
package corpus

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// SourceType classifies a reference file by theological source.
type SourceType string

const (
	SourceCommentary SourceType = "commentary"
	SourceBible      SourceType = "bible"
	SourceLexicon    SourceType = "lexicon"
	SourceDictionary SourceType = "dictionary"
	SourceTheology   SourceType = "theology"
)

// Chunk is an atomic, attributed fragment of reference material.
type Chunk struct {
	ID            string     `json:"id"`
	Source        string     `json:"source"`
	SourceType    SourceType `json:"sourceType"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Keywords      []string   `json:"keywords"`
	ScriptureRefs []string   `json:"scriptureRefs"`
	Priority      int        `json:"priority"`
	WordCount     int        `json:"wordCount"`

	normalized string
}

var stopWords = map[string]bool{
	"about": true, "after": true, "again": true, "against": true,
	"because": true, "before": true, "being": true, "between": true,
	"could": true, "doing": true, "every": true, "first": true,
	"from": true, "have": true, "just": true, "more": true,
	"should": true, "their": true, "there": true, "these": true,
	"they": true, "this": true, "through": true, "what": true,
	"when": true, "where": true, "with": true, "would": true,
	"your": true, "that": true, "than": true, "then": true,
	"them": true, "also": true, "been": true, "were": true,
	"will": true, "into": true, "only": true, "other": true,
	"some": true, "such": true, "each": true, "which": true,
	"does": true, "most": true, "very": true,
}

var nonAlnumRx = regexp.MustCompile(`[^a-z0-9\s-]`)

// scriptureRefRx matches common English Bible book names with chapter/verse.
var scriptureRefRx = regexp.MustCompile(`(?i)\b(?:(?:1|2|3|I|II|III)\s+)?(?:Gen(?:esis)?|Exod(?:us)?|Lev(?:iticus)?|Num(?:bers)?|Deut(?:eronomy)?|Josh(?:ua)?|Judg(?:es)?|Ruth|(?:1|2)\s*Sam(?:uel)?|(?:1|2)\s*Kgs?|(?:1|2)\s*Chr(?:on)?|Ezra|Neh(?:emiah)?|Esth(?:er)?|Job|Ps(?:alm)?s?|Prov(?:erbs)?|Eccl(?:es)?|Song|Isa(?:iah)?|Jer(?:emiah)?|Lam(?:entations)?|Ezek(?:iel)?|Dan(?:iel)?|Hos(?:ea)?|Joel|Amos|Obad(?:iah)?|Jon(?:ah)?|Mic(?:ah)?|Nah(?:um)?|Hab(?:akkuk)?|Zeph(?:aniah)?|Hag(?:gai)?|Zech(?:ariah)?|Mal(?:achi)?|Matt(?:hew)?|Mark|Luke|John|Acts|Rom(?:ans)?|(?:1|2)\s*Cor(?:inthians)?|Gal(?:atians)?|Eph(?:esians)?|Phil(?:ippians)?|Col(?:ossians)?|(?:1|2)\s*Thess(?:alonians)?|(?:1|2)\s*Tim(?:othy)?|Tit(?:us)?|Phlm|Philemon|Heb(?:rews)?|Jas|James|(?:1|2)\s*Pet(?:er)?|(?:1|2|3)\s*Jn|Jude|Rev(?:elation)?)\s+\d+(?:[:.]\d+)?(?:\s*[-–]\s*\d+)?`)

// ExtractKeywords returns up to 30 distinct lowercase keywords of length >= 3,
// with stop words removed.
func ExtractKeywords(text string) []string {
	cleaned := nonAlnumRx.ReplaceAllString(strings.ToLower(text), " ")
	seen := make(map[string]bool)
	var out []string
	for _, w := range strings.Fields(cleaned) {
		if len(w) < 3 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
		if len(out) >= 30 {
			break
		}
	}
	return out
}

// ExtractScriptureRefs returns the distinct scripture references found in text.
func ExtractScriptureRefs(text string) []string {
	matches := scriptureRefRx.FindAllString(text, -1)
	seen := make(map[string]bool)
	var out []string
	for _, m := range matches {
		m = strings.TrimSpace(m)
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

func countWords(text string) int {
	return len(strings.Fields(text))
}

// DetectSourceType classifies a reference file by its path.
func DetectSourceType(path string) SourceType {
	lower := strings.ToLower(filepath.ToSlash(path))
	switch {
	case strings.Contains(lower, "/commentaries/"):
		return SourceCommentary
	case strings.Contains(lower, "/bibles/"):
		return SourceBible
	case strings.Contains(lower, "/lexicons/"):
		return SourceLexicon
	case strings.Contains(lower, "/dictionaries/"):
		return SourceDictionary
	default:
		return SourceTheology
	}
}

// SourcePriority ranks source types for retrieval scoring.
func SourcePriority(st SourceType) int {
	switch st {
	case SourceCommentary:
		return 5
	case SourceBible:
		return 4
	case SourceLexicon, SourceDictionary:
		return 3
	default:
		return 2
	}
}

var (
	headingRx      = regexp.MustCompile(`^#{1,4}\s`)
	allCapsLineRx  = regexp.MustCompile(`^[A-Z][A-Z\s]{4,}$`)
	versionTableRx = regexp.MustCompile(`(?i)\|\s*version\s*\|\s*date\s*\|`)
	bulletRx       = regexp.MustCompile(`^\s*[-*]\s`)
)

func isHeadingLine(line string) bool {
	return headingRx.MatchString(line) || allCapsLineRx.MatchString(strings.TrimSpace(line))
}

// isMetadataChunk detects scaffolding — document-control tables, placeholder
// text, boilerplate headers, bullet-only index sections — that must never
// surface in composed output.
func isMetadataChunk(content string) bool {
	lower := strings.ToLower(content)
	wc := countWords(content)

	if versionTableRx.MatchString(content) {
		return true
	}
	if strings.Contains(lower, "expansion protocol") {
		return true
	}
	if strings.Contains(lower, "to be expanded as content is created") {
		return true
	}
	if strings.Contains(lower, "how to use this document") {
		return true
	}
	if wc < 150 && (strings.Contains(lower, "document control") || strings.Contains(lower, "project gutenberg")) {
		return true
	}
	if wc < 100 {
		var lines, bullets int
		for _, l := range strings.Split(content, "\n") {
			if strings.TrimSpace(l) == "" {
				continue
			}
			lines++
			if bulletRx.MatchString(l) {
				bullets++
			}
		}
		if lines > 0 && bullets*10 > lines*6 {
			return true
		}
	}
	return false
}

// ChunkingOptions bound the chunker's output sizes in words.
type ChunkingOptions struct {
	MinWords    int
	MaxWords    int
	TargetWords int
}

// DefaultChunking is the 200-800 word band used for reference files, with a
// 400 word target.
var DefaultChunking = ChunkingOptions{MinWords: 40, MaxWords: 800, TargetWords: 400}

// ChunkText splits text into semantic chunks at heading and paragraph
// boundaries. Chunk ids are deterministic: "ref:<source>:<n>".
func ChunkText(text, source string, st SourceType, opts ChunkingOptions) []Chunk {
	var chunks []Chunk
	priority := SourcePriority(st)

	var currentLines []string
	currentTitle := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	currentWords := 0

	flush := func() {
		if currentWords < opts.MinWords {
			return
		}
		content := strings.TrimSpace(strings.Join(currentLines, "\n"))
		if content == "" {
			return
		}
		maxBytes := opts.MaxWords * 8
		if len(content) > maxBytes {
			content = content[:maxBytes]
		}
		title := currentTitle
		if len(title) > 120 {
			title = title[:120]
		}
		chunks = append(chunks, Chunk{
			ID:            "ref:" + source + ":" + strconv.Itoa(len(chunks)),
			Source:        source,
			SourceType:    st,
			Title:         title,
			Content:       content,
			Keywords:      ExtractKeywords(content),
			ScriptureRefs: ExtractScriptureRefs(content),
			Priority:      priority,
			WordCount:     currentWords,
			normalized:    strings.ToLower(content),
		})
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		if isHeadingLine(trimmed) && currentWords >= opts.MinWords {
			flush()
			currentLines = nil
			currentWords = 0
			currentTitle = strings.TrimLeft(trimmed, "# ")
		}

		currentLines = append(currentLines, line)
		currentWords += countWords(trimmed)

		if (currentWords >= opts.TargetWords && trimmed == "") || currentWords >= opts.MaxWords {
			flush()
			currentLines = nil
			currentWords = 0
		}
	}
	flush()
	return chunks
}
