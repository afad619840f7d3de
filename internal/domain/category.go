package domain

// Category is one of the fixed ticket categories offered to requesters.
type Category struct {
	Name        string
	Description string
	Emoji       string
}

// Categories lists the selectable ticket categories in menu order.
var Categories = []Category{
	{Name: "Plainte", Description: "Problème / plainte / restitution", Emoji: "📣"},
	{Name: "Question", Description: "Question générale / aide", Emoji: "❓"},
	{Name: "Boutique", Description: "Achat / don / boutique", Emoji: "🛍️"},
	{Name: "Candidature Staff", Description: "Postuler au staff", Emoji: "🛡️"},
	{Name: "Candidature RP", Description: "Postuler pour une naissance RP", Emoji: "🎭"},
	{Name: "Autre", Description: "Autre demande", Emoji: "🗂️"},
}

// LookupCategory finds a category by exact name.
func LookupCategory(name string) (Category, bool) {
	for _, c := range Categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}
