package category

// Builtin returns the six packs that ship with the game. Each call returns
// fresh copies so callers can't corrupt the registry's pools.
func Builtin() []Category {
	packs := []Category{
		{
			ID:          "agile",
			Name:        "Agile & Scrum",
			Description: "Ceremonies, artefacts, and the words that fill them.",
			Icon:        "🏃",
			Words: []string{
				"sprint", "backlog", "standup", "scrum master", "velocity",
				"retrospective", "kanban", "user story", "story points", "epic",
				"burndown chart", "product owner", "sprint review", "refinement",
				"definition of done", "impediment", "sprint goal", "timebox",
				"capacity", "swimlane", "blocked", "iteration", "stakeholder",
				"pair programming", "acceptance criteria", "sprint planning",
			},
		},
		{
			ID:          "corporate",
			Name:        "Corporate Speak",
			Description: "The phrases that make a meeting a Meeting.",
			Icon:        "💼",
			Words: []string{
				"synergy", "circle back", "touch base", "low-hanging fruit",
				"move the needle", "deep dive", "bandwidth", "paradigm shift",
				"take this offline", "drill down", "win-win", "value add",
				"core competency", "thought leader", "best practice",
				"action item", "boil the ocean", "game changer", "pivot",
				"alignment", "leverage", "ideate", "north star", "mvp", "roi",
				"at the end of the day",
			},
		},
		{
			ID:          "tech",
			Name:        "Tech & Engineering",
			Description: "Architecture reviews and incident retros, distilled.",
			Icon:        "⚙️",
			Words: []string{
				"api", "ci/cd", "devops", "sla", "microservices", "kubernetes",
				"docker", "refactor", "technical debt", "code review",
				"pull request", "merge conflict", "unit test", "edge case",
				"race condition", "scalability", "latency", "throughput",
				"load balancer", "cache", "webhook", "monolith", "serverless",
				"observability", "rollback", "feature flag", "hotfix",
			},
		},
		{
			ID:          "olympics",
			Name:        "Olympics",
			Description: "Commentary-box vocabulary for the games.",
			Icon:        "🥇",
			Words: []string{
				"gold medal", "silver medal", "bronze medal", "world record",
				"personal best", "podium", "torch relay", "opening ceremony",
				"closing ceremony", "anthem", "relay", "marathon",
				"photo finish", "gymnastics", "swimming", "archery", "fencing",
				"judo", "rowing", "diving", "pole vault", "hurdles",
				"decathlon", "triathlon", "false start", "qualifying round",
			},
		},
		{
			ID:          "videogames",
			Name:        "Video Games",
			Description: "Couch co-op chatter and patch-day complaints.",
			Icon:        "🎮",
			Words: []string{
				"respawn", "boss fight", "level up", "power-up", "speedrun",
				"easter egg", "loot", "side quest", "checkpoint", "game over",
				"high score", "combo", "lag", "grinding", "open world",
				"cutscene", "health bar", "save point", "achievement",
				"multiplayer", "headshot", "frame rate", "patch notes",
				"skill tree", "final boss", "new game plus",
			},
		},
		{
			ID:          "fruits",
			Name:        "Fruits",
			Description: "The produce aisle, alphabetised by chaos.",
			Icon:        "🍉",
			Words: []string{
				"apple", "banana", "cherry", "dragon fruit", "elderberry",
				"fig", "grape", "honeydew", "kiwi", "lemon", "lime", "mango",
				"nectarine", "orange", "papaya", "peach", "pear", "pineapple",
				"plum", "pomegranate", "raspberry", "strawberry", "watermelon",
				"blueberry", "apricot", "cantaloupe",
			},
		},
	}

	out := make([]Category, len(packs))
	for i, p := range packs {
		out[i] = p
		out[i].Words = append([]string(nil), p.Words...)
	}
	return out
}
