package domain

// The API validates topics, age groups and languages against these closed
// sets server-side, regardless of what any client UI offers.

var storyTopics = map[string]struct{}{
	"stranger-danger": {},
	"body-safety":     {},
	"water-safety":    {},
	"fire-safety":     {},
	"road-safety":     {},
	"online-safety":   {},
	"bullying":        {},
}

var ageGroups = map[string]struct{}{
	"3-5":  {},
	"6-8":  {},
	"9-12": {},
}

var storyLanguages = map[string]struct{}{
	"English": {},
	"Hindi":   {},
	"Tamil":   {},
	"Bengali": {},
	"Marathi": {},
}

// IsValidTopic reports whether topic belongs to the closed topic set.
func IsValidTopic(topic string) bool {
	_, ok := storyTopics[topic]
	return ok
}

// IsValidAgeGroup reports whether ageGroup belongs to the closed age group set.
func IsValidAgeGroup(ageGroup string) bool {
	_, ok := ageGroups[ageGroup]
	return ok
}

// IsValidLanguage reports whether language belongs to the closed language set.
func IsValidLanguage(language string) bool {
	_, ok := storyLanguages[language]
	return ok
}
