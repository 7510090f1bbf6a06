// Package views turns API entities into the flat structs the templates
// render. Everything here is pure; handlers fetch, views shape.
package views

import "strings"

// MenuItem is one sidebar link.
type MenuItem struct {
	Title  string
	Href   string
	Icon   string
	Active bool
}

// Nav is the sidebar: the main menu plus the settings link in the footer.
type Nav struct {
	Menu   []MenuItem
	Footer MenuItem
}

var (
	menu = []MenuItem{
		{Title: "Dashboard", Href: "/", Icon: "layout-dashboard"},
		{Title: "Lançamentos", Href: "/transactions", Icon: "arrow-left-right"},
		{Title: "Integrações", Href: "/integrations", Icon: "plug"},
		{Title: "Notificações", Href: "/notifications", Icon: "bell"},
	}
	settings = MenuItem{Title: "Configurações", Href: "/settings", Icon: "settings"}
)

// IsActive matches "/" exactly and every other link by prefix.
func IsActive(href, path string) bool {
	if href == "/" {
		return path == "/"
	}
	return strings.HasPrefix(path, href)
}

// NewNav marks the entries active for path.
func NewNav(path string) Nav {
	items := make([]MenuItem, len(menu))
	for i, m := range menu {
		m.Active = IsActive(m.Href, path)
		items[i] = m
	}
	footer := settings
	footer.Active = IsActive(footer.Href, path)
	return Nav{Menu: items, Footer: footer}
}

// Breadcrumb is one segment of the header trail.
type Breadcrumb struct {
	Label string
	Href  string
}

// Breadcrumbs starts at the app name and adds the section owning path.
func Breadcrumbs(path string) []Breadcrumb {
	crumbs := []Breadcrumb{{Label: "VBudget", Href: "/"}}
	if path == "/" || path == "" {
		return crumbs
	}
	for _, m := range append(menu[1:], settings) {
		if IsActive(m.Href, path) {
			return append(crumbs, Breadcrumb{Label: m.Title, Href: m.Href})
		}
	}
	return crumbs
}
