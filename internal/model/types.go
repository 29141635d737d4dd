package model

import (
	"encoding/json"
	"time"
)

// SlotStatus is the lifecycle state of one reading-plan slot.
type SlotStatus string

const (
	SlotCurrent   SlotStatus = "current"
	SlotQueued    SlotStatus = "queued"
	SlotCompleted SlotStatus = "completed"
	SlotArchived  SlotStatus = "archived"
)

// ArchiveReason records why a slot left the active set.
type ArchiveReason string

const (
	ArchiveCompleted ArchiveReason = "completed"
	ArchiveReplaced  ArchiveReason = "replaced"
	ArchiveWeekEnd   ArchiveReason = "week_end"
)

// Slot is one reading-plan allocation within a user's ledger.
type Slot struct {
	ID            string         `json:"id"`
	SeriesKey     string         `json:"seriesKey"`
	Status        SlotStatus     `json:"status"`
	CurrentDay    int            `json:"currentDay"`
	TotalDays     int            `json:"totalDays"`
	ActivatedAt   time.Time      `json:"activatedAt"`
	ArchivedAt    *time.Time     `json:"archivedAt,omitempty"`
	ArchiveReason *ArchiveReason `json:"archiveReason,omitempty"`
}

// SlotLedger tracks up to MaxSlots concurrently active reading plans for one
// owner session plus a monotonically increasing switch counter.
type SlotLedger struct {
	Slots       []Slot `json:"slots"`
	SwitchCount int    `json:"switchCount"`
	MaxSlots    int    `json:"maxSlots"`
}

// PlanInstance is a generated reading plan tied to one slot's series lineage.
// Identity is immutable after creation; only the day collection mutates as
// generation proceeds.
type PlanInstance struct {
	Token           string    `json:"planToken"`
	OwnerSessionKey string    `json:"ownerSessionKey"`
	AuditRunID      string    `json:"auditRunId"`
	SeriesKey       string    `json:"seriesKey"`
	PlanType        PlanType  `json:"planType"`
	Title           string    `json:"title"`
	StartPolicy     string    `json:"startPolicy"`
	OnboardingVariant string  `json:"onboardingVariant,omitempty"`
	Timezone        string    `json:"timezone"`
	CreatedAt       time.Time `json:"createdAt"`
}

// PlanType distinguishes curated-matching plans from generative plans.
type PlanType string

const (
	PlanCurated    PlanType = "curated"
	PlanGenerative PlanType = "generative"
)

// DayStatus is the generation state of one plan day. Legacy records omit the
// field entirely; those unmarshal as DayReady.
type DayStatus string

const (
	DayPending DayStatus = "pending"
	DayReady   DayStatus = "ready"
)

// DayType classifies a day within the weekly arc.
type DayType string

const (
	DayStandard DayType = "standard"
	DaySabbath  DayType = "sabbath"
	DayReview   DayType = "review"
)

// ChiasticPosition labels a day's narrative role within the mirrored 5-day
// arc, extended with Sabbath and Review for the two closing days.
type ChiasticPosition string

const (
	ChiasticA       ChiasticPosition = "A"
	ChiasticB       ChiasticPosition = "B"
	ChiasticC       ChiasticPosition = "C"
	ChiasticBPrime  ChiasticPosition = "B'"
	ChiasticAPrime  ChiasticPosition = "A'"
	ChiasticSabbath ChiasticPosition = "Sabbath"
	ChiasticReview  ChiasticPosition = "Review"
)

// WeekChiastic is the position sequence for the five standard days.
var WeekChiastic = []ChiasticPosition{ChiasticA, ChiasticB, ChiasticC, ChiasticBPrime, ChiasticAPrime}

// PardesLevel is the four-tier interpretive depth tag, plus "integrated" for
// the final standard day and the two closing-day markers.
type PardesLevel string

const (
	PardesPeshat     PardesLevel = "peshat"
	PardesRemez      PardesLevel = "remez"
	PardesDerash     PardesLevel = "derash"
	PardesSod        PardesLevel = "sod"
	PardesIntegrated PardesLevel = "integrated"
	PardesSabbath    PardesLevel = "sabbath"
	PardesReview     PardesLevel = "review"
)

// WeekPardes is the depth progression across the five standard days.
var WeekPardes = []PardesLevel{PardesPeshat, PardesRemez, PardesDerash, PardesSod, PardesIntegrated}

// ModuleType names one content block kind in a generated day. The twelve
// types are a palette, not a checklist.
type ModuleType string

const (
	ModuleScripture     ModuleType = "scripture"
	ModuleTeaching      ModuleType = "teaching"
	ModuleVocab         ModuleType = "vocab"
	ModuleStory         ModuleType = "story"
	ModuleInsight       ModuleType = "insight"
	ModuleBridge        ModuleType = "bridge"
	ModuleReflection    ModuleType = "reflection"
	ModuleComprehension ModuleType = "comprehension"
	ModuleTakeaway      ModuleType = "takeaway"
	ModulePrayer        ModuleType = "prayer"
	ModuleProfile       ModuleType = "profile"
	ModuleResource      ModuleType = "resource"
)

// ValidModuleTypes is the accepted module palette.
var ValidModuleTypes = map[ModuleType]bool{
	ModuleScripture: true, ModuleTeaching: true, ModuleVocab: true,
	ModuleStory: true, ModuleInsight: true, ModuleBridge: true,
	ModuleReflection: true, ModuleComprehension: true, ModuleTakeaway: true,
	ModulePrayer: true, ModuleProfile: true, ModuleResource: true,
}

// Module is one content block in a generated day.
type Module struct {
	Type    ModuleType                 `json:"type"`
	Heading string                     `json:"heading"`
	Content map[string]json.RawMessage `json:"content"`
}

// Endnote attributes one source used in a day's composition. Reference-sourced
// endnotes carry the chunk id in Note and feed the plan-wide exclusion set.
type Endnote struct {
	ID     int    `json:"id"`
	Source string `json:"source"`
	Note   string `json:"note"`
}

// CompositionReport records how much of a day came from the reference corpus
// versus generated bridging.
type CompositionReport struct {
	ReferencePercentage int      `json:"referencePercentage"`
	GeneratedPercentage int      `json:"generatedPercentage"`
	Sources             []string `json:"sources"`
}

// PlanDay is one day's content unit within a PlanInstance. A ready day's
// content is immutable; it is never silently regenerated.
type PlanDay struct {
	Day                int                `json:"day"`
	DayType            DayType            `json:"dayType"`
	Status             DayStatus          `json:"generationStatus"`
	Title              string             `json:"title"`
	ScriptureReference string             `json:"scriptureReference"`
	ScriptureText      string             `json:"scriptureText"`
	Reflection         string             `json:"reflection"`
	Prayer             string             `json:"prayer"`
	NextStep           string             `json:"nextStep"`
	JournalPrompt      string             `json:"journalPrompt"`
	ChiasticPosition   ChiasticPosition   `json:"chiasticPosition,omitempty"`
	PardesLevel        PardesLevel        `json:"pardesLevel,omitempty"`
	Modules            []Module           `json:"modules,omitempty"`
	Endnotes           []Endnote          `json:"endnotes,omitempty"`
	UsedChunkIDs       []string           `json:"usedChunkIds,omitempty"`
	TotalWords         int                `json:"totalWords,omitempty"`
	TargetMinutes      int                `json:"targetLengthMinutes,omitempty"`
	Composition        *CompositionReport `json:"compositionReport,omitempty"`
}

// UnmarshalJSON defaults an absent generationStatus to ready so legacy
// pre-populated day records stay readable.
func (d *PlanDay) UnmarshalJSON(data []byte) error {
	type alias PlanDay
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.Status == "" {
		a.Status = DayReady
	}
	*d = PlanDay(a)
	return nil
}

// DayOutline is the blueprint for one day, produced at selection time and
// consumed by progressive generation.
type DayOutline struct {
	Day                int              `json:"day"`
	DayType            DayType          `json:"dayType"`
	ChiasticPosition   ChiasticPosition `json:"chiasticPosition"`
	Title              string           `json:"title"`
	ScriptureReference string           `json:"scriptureReference"`
	TopicFocus         string           `json:"topicFocus"`
	PardesLevel        PardesLevel      `json:"pardesLevel"`
}

// PlanOutline is a whole-plan blueprint stored with the audit run.
type PlanOutline struct {
	ID               string       `json:"id"`
	Angle            string       `json:"angle"`
	Title            string       `json:"title"`
	Question         string       `json:"question"`
	ScriptureAnchor  string       `json:"scriptureAnchor"`
	DayOutlines      []DayOutline `json:"dayOutlines"`
	ReferenceSeeds   []string     `json:"referenceSeeds"`
}

// RunContext is the generation context recorded for an audit run: the plan
// outline plus the user's original answer text.
type RunContext struct {
	AuditRunID string      `json:"auditRunId"`
	Outline    PlanOutline `json:"outline"`
	AnswerText string      `json:"answerText"`
}
