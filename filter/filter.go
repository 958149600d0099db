// Package filter decides inclusion of a table name against a layered
// exclusion policy. Filter state is immutable after construction.
package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// defaults are the built-in policy, used whenever a category's
// user-provided list is empty.
var (
	defaultExact = []string{
		"sysdiagrams", "dtproperties", "sysconstraints", "syssegments",
	}
	defaultPrefixes = []string{
		"sys", "INFORMATION_SCHEMA", "__", "msreplication", "spt_",
	}
	defaultWildcards = []string{
		"*_backup", "*_history", "*_audit", "*_log", "tmp_*", "staging_*",
	}
	defaultRegexes = []string{
		`^\$.*`, `.*_\d{8}$`, `.*_\d{8}_\d{6}$`,
	}
)

// Policy is the user-overridable input to New. Any category left empty
// falls back to the built-in default for that category.
type Policy struct {
	ExactNames         []string `yaml:"exact_names"`
	Prefixes           []string `yaml:"prefixes"`
	WildcardPatterns   []string `yaml:"wildcard_patterns"`
	RegexPatterns      []string `yaml:"regex_patterns"`
	ExcludeEmptyTables bool     `yaml:"exclude_empty_tables"`
}

// Filter evaluates the exclusion categories in increasing cost order;
// first match wins. Built once from a Policy, then read-only.
type Filter struct {
	exact              map[string]bool
	prefixes           []string
	wildcards          []*regexp.Regexp
	regexes            []*regexp.Regexp
	excludeEmptyTables bool
}

// New compiles policy into a Filter, applying built-in defaults to any
// empty category.
func New(policy Policy) (*Filter, error) {
	exactList := policy.ExactNames
	if len(exactList) == 0 {
		exactList = defaultExact
	}
	exact := make(map[string]bool, len(exactList))
	for _, name := range exactList {
		exact[name] = true
	}

	prefixes := policy.Prefixes
	if len(prefixes) == 0 {
		prefixes = defaultPrefixes
	}

	wildcardSrc := policy.WildcardPatterns
	if len(wildcardSrc) == 0 {
		wildcardSrc = defaultWildcards
	}
	wildcards := make([]*regexp.Regexp, 0, len(wildcardSrc))
	for _, pattern := range wildcardSrc {
		re, err := regexp.Compile(wildcardToRegex(pattern))
		if err != nil {
			return nil, fmt.Errorf("filter: invalid wildcard pattern %q: %w", pattern, err)
		}
		wildcards = append(wildcards, re)
	}

	regexSrc := policy.RegexPatterns
	if len(regexSrc) == 0 {
		regexSrc = defaultRegexes
	}
	regexes := make([]*regexp.Regexp, 0, len(regexSrc))
	for _, pattern := range regexSrc {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("filter: invalid regex pattern %q: %w", pattern, err)
		}
		regexes = append(regexes, re)
	}

	return &Filter{
		exact:              exact,
		prefixes:           prefixes,
		wildcards:          wildcards,
		regexes:            regexes,
		excludeEmptyTables: policy.ExcludeEmptyTables,
	}, nil
}

// Include reports whether tableName should be part of the export set,
// given its estimated row count (-1 if unknown). Categories are evaluated
// in increasing cost order; the first match excludes the table.
func (f *Filter) Include(tableName string, estimatedRowCount int64) bool {
	if strings.TrimSpace(tableName) == "" {
		return false
	}
	if f.exact[tableName] {
		return false
	}
	for _, prefix := range f.prefixes {
		if strings.HasPrefix(tableName, prefix) {
			return false
		}
	}
	for _, re := range f.wildcards {
		if re.MatchString(tableName) {
			return false
		}
	}
	for _, re := range f.regexes {
		if re.MatchString(tableName) {
			return false
		}
	}
	if f.excludeEmptyTables && estimatedRowCount == 0 {
		return false
	}
	return true
}

// wildcardToRegex translates '*' (any run) and '?' (one character) into an
// anchored regular expression, escaping every other regex metacharacter.
func wildcardToRegex(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return b.String()
}
