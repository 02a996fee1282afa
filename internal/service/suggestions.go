package service

import "strings"

const maxSuggestions = 3

// buildSuggestions derives up to three follow-up prompts from keyword rules
// over the message and the retrieved snippets. Generic suggestions fill in
// when no rule matches.
func buildSuggestions(message string, snippets []Snippet) []string {
	haystack := strings.ToLower(message)
	for _, sn := range snippets {
		haystack += " " + strings.ToLower(sn.Content)
	}

	var suggestions []string
	add := func(s string) {
		if len(suggestions) >= maxSuggestions {
			return
		}
		for _, existing := range suggestions {
			if existing == s {
				return
			}
		}
		suggestions = append(suggestions, s)
	}

	if strings.Contains(haystack, "input tax credit") || strings.Contains(haystack, "itc") {
		add("Which purchases are blocked from ITC under section 17(5)?")
		add("How do I reverse ineligible ITC in my next return?")
	}
	if strings.Contains(haystack, "invoice") {
		add("What fields are mandatory on a GST tax invoice?")
	}
	if strings.Contains(haystack, "reverse charge") || strings.Contains(haystack, "rcm") {
		add("Which supplies fall under the reverse charge mechanism?")
	}
	if strings.Contains(haystack, "export") {
		add("How do I claim a refund on zero-rated exports?")
	}

	if len(suggestions) == 0 {
		return defaultSuggestions()
	}
	return suggestions
}

func defaultSuggestions() []string {
	return []string{
		"What compliance steps should I take next?",
		"Which return should this be reported under?",
	}
}
