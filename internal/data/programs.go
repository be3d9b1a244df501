// Package data provides static data definitions for the application.
// These data are maintained manually and updated periodically.
package data

// ProgramSource describes where a master's program and its academic plan
// live on the admission site.
type ProgramSource struct {
	ID    string // internal program id used in sessions and the engine
	Title string // display name shown in the bot keyboard
	Name  string // fallback curriculum name when the document carries none
	URL   string // admission page with the academic_plan reference
}

// BaseURL is the admission site base URL.
const BaseURL = "https://abit.itmo.ru"

// Programs contains the master's programs the bot advises on.
// IDs are stable, they end up in stored sessions.
var Programs = []ProgramSource{
	{
		ID:    "ai",
		Title: "Искусственный интеллект",
		Name:  "AI",
		URL:   BaseURL + "/program/master/ai",
	},
	{
		ID:    "ai_product",
		Title: "Продуктовая разработка на основе ИИ",
		Name:  "AI Product",
		URL:   BaseURL + "/program/master/ai_product",
	},
}

// ProgramByTitle returns the program whose keyboard title matches exactly.
func ProgramByTitle(title string) (ProgramSource, bool) {
	for _, p := range Programs {
		if p.Title == title {
			return p, true
		}
	}
	return ProgramSource{}, false
}

// ProgramByID returns the program with the given internal id.
func ProgramByID(id string) (ProgramSource, bool) {
	for _, p := range Programs {
		if p.ID == id {
			return p, true
		}
	}
	return ProgramSource{}, false
}
