package usecase

import (
	"encoding/json"
	"strings"
)

// rankedEntry is one element of the ranking payload the text service is
// asked to produce: a 1-based index into the submitted papers plus a
// short justification.
type rankedEntry struct {
	Rank       int    `json:"rank"`
	PaperIndex int    `json:"paper_index"`
	Reason     string `json:"reason"`
}

// parseRankings extracts the first JSON array embedded in a model
// response. The service is a generative model and may wrap the payload
// in prose, so the array is located between the first '[' and the last
// ']'. Returns nil when nothing usable is present; never errors, so the
// caller's fallback branch is reachable by construction.
func parseRankings(response string) []rankedEntry {
	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start < 0 || end <= start {
		return nil
	}

	var entries []rankedEntry
	if err := json.Unmarshal([]byte(response[start:end+1]), &entries); err != nil {
		return nil
	}

	return entries
}
