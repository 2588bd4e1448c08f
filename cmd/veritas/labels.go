package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"veritas/internal/evidence"
)

var titleCaser = cases.Title(language.English)

// verdictLabel turns LIKELY_AI_GENERATED into "Likely AI Generated".
func verdictLabel(verdict evidence.Verdict) string {
	if verdict == "" {
		return "-"
	}
	words := strings.Fields(strings.ReplaceAll(strings.ToLower(string(verdict)), "_", " "))
	for i, word := range words {
		if word == "ai" {
			words[i] = "AI"
			continue
		}
		words[i] = titleCaser.String(word)
	}
	return strings.Join(words, " ")
}

func colorVerdict(verdict evidence.Verdict, colorize bool) string {
	label := verdictLabel(verdict)
	if !colorize {
		return label
	}
	switch verdict {
	case evidence.VerdictLikelyReal:
		return text.Colors{text.FgGreen}.Sprint(label)
	case evidence.VerdictLikelyAIGenerated:
		return text.Colors{text.FgRed, text.Bold}.Sprint(label)
	case evidence.VerdictError:
		return text.Colors{text.FgHiRed}.Sprint(label)
	default:
		return text.Colors{text.FgYellow}.Sprint(label)
	}
}

func formatConfidence(value float64) string {
	return fmt.Sprintf("%.1f%%", value)
}

func formatScore(value float64) string {
	return fmt.Sprintf("%.4f", value)
}

func authenticLabel(value *bool) string {
	if value == nil {
		return "undetermined"
	}
	return yesNo(*value)
}
