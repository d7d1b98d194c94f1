package models

// Content pages that can be edited per store.
const (
	PageHome    = "home"
	PageAbout   = "about"
	PageContact = "contact"
)

func ValidPage(pageID string) bool {
	switch pageID {
	case PageHome, PageAbout, PageContact:
		return true
	}
	return false
}

// PageContent maps a field name (heroTitle, phone, ...) to its text.
type PageContent map[string]string
