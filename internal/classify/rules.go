package classify

import "regexp"

// Rule maps one compiled pattern to a category.
type Rule struct {
	Pattern  *regexp.Regexp
	Category Category
}

// RuleSet is an explicitly ordered sequence of rules; the first matching
// rule wins, so evaluation never depends on map iteration order.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet creates a RuleSet evaluating rules in the given order.
func NewRuleSet(rules []Rule) *RuleSet {
	return &RuleSet{rules: rules}
}

// DefaultRules covers the stock keyword groups for operational cluster logs.
func DefaultRules() *RuleSet {
	return NewRuleSet([]Rule{
		{regexp.MustCompile(`(?i)\b(error|failed|failure|exception|crash|critical)\b`), WorkflowError},
		{regexp.MustCompile(`(?i)\b(timeout|timed out|unavailable|unreachable|rejected|connection refused)\b`), ConnectivityIssue},
		{regexp.MustCompile(`(?i)\b(unauthorized|forbidden|access denied|permission denied)\b`), SecurityAlert},
		{regexp.MustCompile(`(?i)\buser \S+ logged (in|out)\b`), UserAction},
		{regexp.MustCompile(`(?i)\bbackup (started|ended|completed)\b`), SystemNotification},
	})
}

// Classify returns the category of the first matching rule. The second
// return value reports whether any rule matched at all: false means "the
// rule tier has no opinion" and the caller escalates, which is not the same
// as the Unclassified category.
func (rs *RuleSet) Classify(text string) (Category, bool) {
	for _, r := range rs.rules {
		if r.Pattern.MatchString(text) {
			return r.Category, true
		}
	}
	return "", false
}
