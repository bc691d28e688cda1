package domain

import "math/rand/v2"

var (
	nameAdjectives = []string{
		"Happy", "Clever", "Brave", "Swift", "Bright", "Calm", "Wise", "Kind",
		"Gentle", "Smart", "Quick", "Lively", "Peaceful", "Cheerful", "Eager", "Friendly",
	}
	nameNouns = []string{
		"Panda", "Dolphin", "Eagle", "Lion", "Tiger", "Bear", "Wolf", "Fox",
		"Hawk", "Deer", "Owl", "Duck", "Frog", "Cat", "Dog", "Bird",
	}
)

// RandomDisplayName returns names like "Calm Owl".
func RandomDisplayName() string {
	return nameAdjectives[rand.IntN(len(nameAdjectives))] + " " + nameNouns[rand.IntN(len(nameNouns))]
}
