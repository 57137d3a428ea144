package catalog

// defaultWords is the built-in catalog. The animals list is the classic
// single-category word set; the rest were added with category selection.
var defaultWords = map[string][]string{ //nolint:gochecknoglobals // static read-only table
	"animals": {
		"KANGAROO", "ELEPHANT", "GIRAFFE", "PENGUIN", "DOLPHIN",
		"OCTOPUS", "BUTTERFLY", "CHEETAH", "ZEBRA", "LION",
	},
	"food": {
		"PIZZA", "BURGER", "PANCAKE", "SPAGHETTI", "AVOCADO",
		"CHOCOLATE", "SANDWICH", "NOODLES", "BROCCOLI", "CROISSANT",
	},
	"countries": {
		"CANADA", "BRAZIL", "JAPAN", "GERMANY", "AUSTRALIA",
		"MEXICO", "EGYPT", "NORWAY", "PORTUGAL", "THAILAND",
	},
	"sports": {
		"SOCCER", "TENNIS", "HOCKEY", "BASEBALL", "CRICKET",
		"SWIMMING", "CYCLING", "BOXING", "VOLLEYBALL", "ARCHERY",
	},
	"science": {
		"ATOM", "GRAVITY", "MOLECULE", "PLANET", "ENERGY",
		"NEUTRON", "GALAXY", "FOSSIL", "MAGNET", "OXYGEN",
	},
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(defaultWords)
	if err != nil {
		// the table above is static; a failure here is a programming error
		panic(err)
	}
	return c
}
