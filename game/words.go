package game

import (
	"math/rand"
	"sort"
)

// Secret word pool, grouped by category. Crew members are told the word,
// the impostor only ever learns the category through play.
var wordPool = map[string][]string{
	"food": {
		"apple", "banana", "cheese", "noodle", "pancake", "watermelon",
	},
	"nature": {
		"river", "forest", "mountain", "desert", "ocean", "island", "volcano",
	},
	"places": {
		"castle", "garden", "library", "harbor", "stadium", "lighthouse",
	},
	"objects": {
		"piano", "rocket", "umbrella", "telescope", "lantern", "compass",
	},
}

var wordCategories = func() []string {
	cats := make([]string, 0, len(wordPool))
	for cat := range wordPool {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	return cats
}()

func pickWord(rng *rand.Rand) (category, word string) {
	category = wordCategories[rng.Intn(len(wordCategories))]
	words := wordPool[category]
	return category, words[rng.Intn(len(words))]
}
