package generative

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/euangelion/plan-service/internal/model"
)

var (
	fenceOpenRx  = regexp.MustCompile(`(?i)^` + "```" + `(?:json)?\s*`)
	fenceCloseRx = regexp.MustCompile("```" + `\s*$`)
)

// parsedDay is a validated model response.
type parsedDay struct {
	Title              string
	ScriptureReference string
	ScriptureText      string
	Reflection         string
	Prayer             string
	NextStep           string
	JournalPrompt      string
	Modules            []model.Module
	TotalWords         int
	SourcesUsed        []string
}

type rawModule struct {
	Type    string          `json:"type"`
	Heading string          `json:"heading"`
	Content json.RawMessage `json:"content"`
}

type rawDay struct {
	Title              string      `json:"title"`
	ScriptureReference string      `json:"scriptureReference"`
	ScriptureText      string      `json:"scriptureText"`
	Reflection         string      `json:"reflection"`
	Prayer             string      `json:"prayer"`
	NextStep           string      `json:"nextStep"`
	JournalPrompt      string      `json:"journalPrompt"`
	Modules            []rawModule `json:"modules"`
	TotalWords         int         `json:"totalWords"`
	SourcesUsed        []string    `json:"sourcesUsed"`
}

func clip(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

func jsonString(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

// parseDay validates raw model output into a day payload. Markdown fences are
// stripped, unknown module types dropped, and the scripture plus
// reflection-or-prayer module guarantee is enforced by insertion. Returns
// false when the output is not usable (missing title, scripture reference, or
// reflection body).
func parseDay(raw string) (parsedDay, bool) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return parsedDay{}, false
	}
	cleaned = fenceOpenRx.ReplaceAllString(cleaned, "")
	cleaned = fenceCloseRx.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	var r rawDay
	if err := json.Unmarshal([]byte(cleaned), &r); err != nil {
		return parsedDay{}, false
	}
	if r.Title == "" || r.ScriptureReference == "" || r.Reflection == "" {
		return parsedDay{}, false
	}

	var modules []model.Module
	for _, m := range r.Modules {
		mt := model.ModuleType(strings.ToLower(m.Type))
		if !model.ValidModuleTypes[mt] {
			continue
		}
		heading := m.Heading
		if heading == "" {
			heading = string(mt)
		}
		content := map[string]json.RawMessage{}
		if len(m.Content) > 0 {
			if err := json.Unmarshal(m.Content, &content); err != nil {
				content = map[string]json.RawMessage{"text": jsonString(string(m.Content))}
			}
		}
		modules = append(modules, model.Module{
			Type:    mt,
			Heading: clip(heading, 120),
			Content: content,
		})
	}

	hasScripture := false
	hasAnchor := false
	for _, m := range modules {
		if m.Type == model.ModuleScripture {
			hasScripture = true
		}
		if m.Type == model.ModuleReflection || m.Type == model.ModulePrayer {
			hasAnchor = true
		}
	}
	if !hasScripture {
		modules = append([]model.Module{{
			Type:    model.ModuleScripture,
			Heading: "TODAY'S READING",
			Content: map[string]json.RawMessage{
				"passage":   jsonString(r.ScriptureText),
				"reference": jsonString(r.ScriptureReference),
			},
		}}, modules...)
	}
	if !hasAnchor {
		modules = append(modules, model.Module{
			Type:    model.ModuleReflection,
			Heading: "REFLECT",
			Content: map[string]json.RawMessage{"prompt": jsonString(r.JournalPrompt)},
		})
	}
	if len(modules) > maxModules {
		modules = modules[:maxModules]
	}

	totalWords := r.TotalWords
	if totalWords <= 0 {
		totalWords = len(strings.Fields(r.Reflection))
	}
	if len(r.SourcesUsed) > 20 {
		r.SourcesUsed = r.SourcesUsed[:20]
	}

	return parsedDay{
		Title:              clip(r.Title, 120),
		ScriptureReference: clip(r.ScriptureReference, 120),
		ScriptureText:      clip(r.ScriptureText, 2000),
		Reflection:         clip(r.Reflection, 20000),
		Prayer:             clip(r.Prayer, 3000),
		NextStep:           clip(r.NextStep, 1000),
		JournalPrompt:      clip(r.JournalPrompt, 1000),
		Modules:            modules,
		TotalWords:         totalWords,
		SourcesUsed:        r.SourcesUsed,
	}, true
}
