// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package achievements evaluates the gamified progress system: threshold
// rules over the library and activity counters, plus the evolution stage
// derived from the collection size.
package achievements

// Definition is one achievement rule. Condition is an expression
// evaluated against the progress snapshot (total_books, total_searches,
// total_downloads, monitored_books).
type Definition struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Icon           string `json:"icon"`
	Category       string `json:"category"`
	Requirement    int    `json:"requirement"`
	Hidden         bool   `json:"hidden,omitempty"`
	UnlocksTheme   string `json:"unlocks_theme,omitempty"`
	EvolutionStage string `json:"evolution_stage,omitempty"`
	Condition      string `json:"-"`
}

// Catalog is the full rule set, ordered as displayed.
var Catalog = []Definition{
	// Evolution
	{
		ID: "morpho_grub", Name: "Morpho Awakens",
		Description: "The grub begins its journey - Add your first book",
		Icon:        "🐛", Category: "evolution", Requirement: 1,
		EvolutionStage: "grub", UnlocksTheme: "morpho",
		Condition: "total_books >= 1",
	},
	{
		ID: "morpho_cocoon", Name: "Transformation Begins",
		Description: "Enter the cocoon stage - Collect 25 books",
		Icon:        "🥚", Category: "evolution", Requirement: 25,
		EvolutionStage: "cocoon", UnlocksTheme: "cocoon",
		Condition: "total_books >= 25",
	},
	{
		ID: "morpho_butterfly", Name: "Metamorphosis Complete",
		Description: "The butterfly emerges! Collect 100 books",
		Icon:        "🦋", Category: "evolution", Requirement: 100,
		EvolutionStage: "butterfly", UnlocksTheme: "butterfly",
		Condition: "total_books >= 100",
	},

	// Collection
	{
		ID: "collector_10", Name: "Modest Collection",
		Description: "Collect 10 books",
		Icon:        "📚", Category: "collection", Requirement: 10,
		Condition: "total_books >= 10",
	},
	{
		ID: "collector_25", Name: "Growing Library",
		Description: "Collect 25 books - Unlocks Homestead theme!",
		Icon:        "🏡", Category: "collection", Requirement: 25,
		UnlocksTheme: "homestead",
		Condition:    "total_books >= 25",
	},
	{
		ID: "collector_50", Name: "Book Lover",
		Description: "Collect 50 books - Your grub becomes a cocoon!",
		Icon:        "🥚", Category: "collection", Requirement: 50,
		Condition: "total_books >= 50",
	},
	{
		ID: "collector_200", Name: "Library Curator",
		Description: "Collect 200 books",
		Icon:        "🏛️", Category: "collection", Requirement: 200,
		Condition: "total_books >= 200",
	},
	{
		ID: "collector_500", Name: "Alexandria Reborn",
		Description: "Collect 500 books",
		Icon:        "🏛️", Category: "collection", Requirement: 500,
		UnlocksTheme: "alexandria",
		Condition:    "total_books >= 500",
	},
	{
		ID: "collector_1000", Name: "Master Librarian",
		Description: "Collect 1,000 books",
		Icon:        "👑", Category: "collection", Requirement: 1000,
		UnlocksTheme: "royal",
		Condition:    "total_books >= 1000",
	},

	// Search
	{
		ID: "first_search", Name: "Explorer",
		Description: "Perform your first search",
		Icon:        "🔍", Category: "search", Requirement: 1,
		Condition: "total_searches >= 1",
	},
	{
		ID: "search_10", Name: "Book Hunter",
		Description: "Perform 10 searches",
		Icon:        "🎯", Category: "search", Requirement: 10,
		Condition: "total_searches >= 10",
	},
	{
		ID: "search_100", Name: "Treasure Seeker",
		Description: "Perform 100 searches",
		Icon:        "🗺️", Category: "search", Requirement: 100,
		UnlocksTheme: "minimalist",
		Condition:    "total_searches >= 100",
	},

	// Download
	{
		ID: "first_download", Name: "Download Initiated",
		Description: "Download your first book",
		Icon:        "⬇️", Category: "download", Requirement: 1,
		Condition: "total_downloads >= 1",
	},
	{
		ID: "download_10", Name: "Avid Collector",
		Description: "Download 10 books",
		Icon:        "💾", Category: "download", Requirement: 10,
		Condition: "total_downloads >= 10",
	},
	{
		ID: "download_50", Name: "Data Hoarder",
		Description: "Download 50 books",
		Icon:        "💿", Category: "download", Requirement: 50,
		Condition: "total_downloads >= 50",
	},
	{
		ID: "download_100", Name: "Download Master",
		Description: "Download 100 books",
		Icon:        "📥", Category: "download", Requirement: 100,
		UnlocksTheme: "cyber",
		Condition:    "total_downloads >= 100",
	},

	// Hidden
	{
		ID: "automation_wizard", Name: "Automation Wizard",
		Description: "Have 20 books monitored simultaneously",
		Icon:        "🧙", Category: "hidden", Requirement: 20, Hidden: true,
		UnlocksTheme: "forest",
		Condition:    "monitored_books >= 20",
	},
}
