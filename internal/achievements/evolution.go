// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package achievements

// Stage is one step of the morpho evolution, derived from the total
// number of books in the library.
type Stage struct {
	Stage       string `json:"stage"`
	Emoji       string `json:"emoji"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Requirement string `json:"unlock_requirement"`
}

var stages = []Stage{
	{
		Stage:       "grub",
		Emoji:       "🐛",
		Name:        "Baby Grub",
		Description: "Your journey begins! A tiny grub starting its collection.",
		Requirement: "Default - Start of your journey",
	},
	{
		Stage:       "cocoon",
		Emoji:       "🥚",
		Name:        "Growing Cocoon",
		Description: "Your library is transforming! The metamorphosis has begun.",
		Requirement: "Collect 50 books",
	},
	{
		Stage:       "butterfly",
		Emoji:       "🦋",
		Name:        "Morpho Butterfly",
		Description: "Fully evolved! Your library has reached its beautiful form.",
		Requirement: "Collect 100 books",
	},
}

// StageFor maps a book count to the evolution stage.
func StageFor(totalBooks int) Stage {
	switch {
	case totalBooks >= 100:
		return stages[2]
	case totalBooks >= 50:
		return stages[1]
	default:
		return stages[0]
	}
}
