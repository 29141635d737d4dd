package compose

import (
	"fmt"
	"strings"

	"github.com/euangelion/plan-service/internal/model"
)

func standardDays(days []model.PlanDay) []model.PlanDay {
	var out []model.PlanDay
	for _, d := range days {
		if d.DayType == model.DayStandard || d.DayType == "" {
			out = append(out, d)
		}
	}
	return out
}

// ComposeSabbath builds the rest day from the week's prior days. No retrieval
// and no new teaching: the reader returns to the week's pivot passage.
func ComposeSabbath(dayNumber int, previousDays []model.PlanDay, planTitle string) model.PlanDay {
	prior := standardDays(previousDays)

	keyPassage := "Psalm 46:10"
	if len(prior) > 2 && prior[2].ScriptureReference != "" {
		keyPassage = prior[2].ScriptureReference
	} else if len(prior) > 0 && prior[0].ScriptureReference != "" {
		keyPassage = prior[0].ScriptureReference
	}

	var titles []string
	for _, d := range prior {
		titles = append(titles, fmt.Sprintf("%q", d.Title))
	}

	reflection := strings.Join([]string{
		fmt.Sprintf("This week you walked through %d days of devotional reading: %s.",
			len(prior), strings.Join(titles, ", ")),
		"",
		"Today is sabbath, a day of rest rather than productivity. There is nothing to accomplish.",
		"",
		fmt.Sprintf("Return to %s. Read it once slowly. Then close your eyes for five minutes and let the text read you.", keyPassage),
		"",
		"Which passage from this week lingered longest? Which one unsettled you? Sit with that today, not to analyze it but to be present to it.",
		"",
		"The rhythm of engagement and rest is not optional. It is the shape of faithful life. Rest today is as much obedience as study was yesterday.",
	}, "\n")

	return model.PlanDay{
		Day:                dayNumber,
		DayType:            model.DaySabbath,
		Status:             model.DayReady,
		Title:              "Sabbath Rest",
		ScriptureReference: keyPassage,
		ScriptureText:      "Be still, and know that I am God.",
		Reflection:         reflection,
		Prayer:             "Lord, still my mind and heart today. Thank you for meeting me this week through your word. I release the pressure to perform, to understand everything, to fix what is broken. I simply rest in your presence. Amen.",
		NextStep:           "Rest today. No action required, just be present to what you have received this week.",
		JournalPrompt:      "Which day this week challenged you most? If you could carry one sentence from this week into next week, what would it be?",
		ChiasticPosition:   model.ChiasticSabbath,
		PardesLevel:        model.PardesSabbath,
		Endnotes: []model.Endnote{
			{ID: 1, Source: "Scripture", Note: keyPassage},
			{ID: 2, Source: "Day Type", Note: "Sabbath rest, no new teaching."},
		},
	}
}

// ComposeReview builds the closing recap day from the week's prior days.
func ComposeReview(dayNumber int, previousDays []model.PlanDay, planTitle string) model.PlanDay {
	prior := standardDays(previousDays)

	var lines []string
	var refs []string
	for _, d := range prior {
		lines = append(lines, fmt.Sprintf("Day %d: %s (%s)", d.Day, d.Title, d.ScriptureReference))
		if d.ScriptureReference != "" {
			refs = append(refs, d.ScriptureReference)
		}
	}

	anchor := "Philippians 1:6"
	if len(refs) > 0 {
		anchor = refs[len(refs)/2]
	}

	reflection := strings.Join([]string{
		fmt.Sprintf("Your week through %q is complete. Here is what you covered:", planTitle),
		"",
		strings.Join(lines, "\n"),
		"",
		"Take a moment to reflect on the arc of the week. Day 1 opened a question. Day 3 was the pivot, the hardest or most revealing moment. Day 5 offered resolution, though perhaps not the resolution you expected.",
		"",
		"What is one insight from this week that you want to carry forward? Not a general principle, but a specific phrase, verse, or conviction.",
		"",
		"Formation is not information. You are not the same person who began this week. The text has been at work in you, even when you were not aware of it.",
		"",
		"When you are ready, you may begin your next path. There is no urgency. Good things take time, including you.",
	}, "\n")

	return model.PlanDay{
		Day:                dayNumber,
		DayType:            model.DayReview,
		Status:             model.DayReady,
		Title:              "Week in Review",
		ScriptureReference: anchor,
		ScriptureText:      "He who began a good work in you will carry it on to completion until the day of Christ Jesus.",
		Reflection:         reflection,
		Prayer:             "Father, thank you for this week of formation. Carry forward what you started in me. Give me wisdom for what comes next, and patience to wait for clarity rather than rushing into the next thing. Amen.",
		NextStep:           "When you are ready, begin your next plan. Take at least a day before starting; let this week settle.",
		JournalPrompt:      "If you could tell someone one thing you learned this week, what would it be? And what question remains unanswered?",
		ChiasticPosition:   model.ChiasticReview,
		PardesLevel:        model.PardesReview,
		Endnotes: []model.Endnote{
			{ID: 1, Source: "Scripture", Note: anchor},
			{ID: 2, Source: "Day Type", Note: "Week recap, summary and guided reflection."},
		},
	}
}
