package llm

import (
	"fmt"
	"strings"
)

// ExtractJSON pulls the JSON object out of a model response. Models wrap
// JSON in markdown fences or surround it with prose; strip both and return
// the outermost object.
func ExtractJSON(content string) (string, error) {
	content = strings.TrimSpace(content)

	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no valid JSON object in response")
	}
	return content[start : end+1], nil
}
