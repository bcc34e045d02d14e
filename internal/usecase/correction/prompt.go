package correction

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/skillrank/internal/domain/query"
)

// SystemPrompt instructs a language model to act as a typo corrector for recruiter queries.
const SystemPrompt = `You fix spelling mistakes in recruiter search queries about technical skills, roles and seniority.
Only correct misspelled words. Never rephrase, translate, expand abbreviations or add words.
Reply with JSON only: {"corrections":[{"from":"<word as typed>","to":"<corrected word>","confidence":<0..1>}]}.
Reply {"corrections":[]} when nothing is misspelled.`

// UserPrompt renders the per-query message.
func UserPrompt(text string) string {
	return "Query: " + text
}

type proposalEnvelope struct {
	Corrections []query.Correction `json:"corrections"`
}

// ParseProposals decodes a model reply. Markdown code fences around the JSON are tolerated.
func ParseProposals(reply string) ([]query.Correction, error) {
	body := strings.TrimSpace(reply)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```json")
		body = strings.TrimPrefix(body, "```")
		body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	}
	if start, end := strings.IndexByte(body, '{'), strings.LastIndexByte(body, '}'); start >= 0 && end > start {
		body = body[start : end+1]
	}

	var env proposalEnvelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return nil, fmt.Errorf("decode correction reply: %w", err)
	}
	return env.Corrections, nil
}
