package analysis

// contentCategories is checked in order; the first best-scoring category wins.
var contentCategories = []contentCategory{
	{
		Name:     "tech",
		Feed:     "Tech Feed",
		Personas: []string{"Builder", "Innovator", "Creator", "Developer", "Architect", "Engineer"},
		Keywords: []string{
			"code", "programming", "software", "ai", "technology", "startup", "development",
			"api", "database", "algorithm", "javascript", "python", "react", "node", "aws",
			"cloud", "devops", "cybersecurity", "blockchain", "crypto", "machine learning", "ml",
			"data science", "analytics", "backend", "frontend", "mobile", "ios", "android",
			"web3", "metaverse", "vr", "ar", "iot", "automation", "scalability", "microservices",
			"kubernetes", "docker", "git", "github", "stack", "framework", "library", "package",
			"deployment", "testing", "debugging", "optimization", "server", "client", "protocol",
			"interface", "architecture", "infrastructure", "platform", "service", "application",
		},
	},
	{
		Name:     "business",
		Feed:     "Business Feed",
		Personas: []string{"Leader", "Strategist", "Entrepreneur", "Executive", "Manager", "Consultant"},
		Keywords: []string{
			"business", "strategy", "leadership", "entrepreneur", "marketing", "finance",
			"investment", "revenue", "growth", "startup", "venture capital", "vc", "funding",
			"pitch", "pivot", "scaling", "acquisition", "merger", "ipo", "profit", "loss", "roi",
			"kpi", "metrics", "analytics", "sales", "customer", "product", "market",
			"competition", "brand", "advertising", "campaign", "social media", "content", "seo",
			"sem", "conversion", "retention", "churn", "team", "hiring", "culture", "remote",
			"office", "meeting", "presentation", "pitch deck", "business plan",
		},
	},
	{
		Name:     "creative",
		Feed:     "Creative Feed",
		Personas: []string{"Artist", "Designer", "Storyteller", "Visionary", "Creator", "Craftsman"},
		Keywords: []string{
			"art", "design", "creative", "music", "film", "photography", "writing", "poetry",
			"illustration", "animation", "painting", "drawing", "sculpture", "digital art",
			"graphic design", "ui", "ux", "typography", "color", "composition", "cinematography",
			"editing", "directing", "acting", "screenplay", "script", "storyboard",
			"visual effects", "vfx", "composing", "producing", "recording", "mixing", "mastering",
			"concert", "performance", "gallery", "exhibition", "portfolio", "commission",
			"freelance", "client", "project", "deadline", "inspiration", "muse", "style",
			"aesthetic",
		},
	},
	{
		Name:     "academic",
		Feed:     "Academic Feed",
		Personas: []string{"Teacher", "Researcher", "Scholar", "Educator", "Professor", "Mentor"},
		Keywords: []string{
			"research", "study", "education", "science", "analysis", "theory", "paper",
			"conference", "journal", "methodology", "phd", "thesis", "dissertation",
			"peer review", "citation", "bibliography", "hypothesis", "experiment", "data",
			"statistics", "survey", "interview", "qualitative", "quantitative",
			"literature review", "findings", "conclusion", "university", "college", "professor",
			"lecturer", "student", "course", "curriculum", "syllabus", "assignment", "grading",
			"academic", "scholarly", "intellectual", "knowledge", "learning", "teaching",
			"pedagogy",
		},
	},
	{
		Name:     "social",
		Feed:     "Social Feed",
		Personas: []string{"Connector", "Community Builder", "Networker", "Influencer", "Organizer", "Advocate"},
		Keywords: []string{
			"community", "social", "people", "relationships", "networking", "friends", "family",
			"support", "connection", "conversation", "discussion", "debate", "dialogue",
			"collaboration", "partnership", "alliance", "coalition", "group", "team",
			"organization", "association", "society", "club", "meetup", "event", "gathering",
			"celebration", "mentorship", "coaching", "guidance", "advice", "help", "assistance",
			"volunteer", "charity", "donation", "cause", "advocacy", "activism", "movement",
			"campaign", "petition", "protest", "rally", "demonstration", "solidarity",
		},
	},
	{
		Name:     "news",
		Feed:     "News Feed",
		Personas: []string{"Reporter", "Journalist", "Analyst", "Commentator", "Correspondent", "Editor"},
		Keywords: []string{
			"news", "politics", "current events", "breaking", "update", "report", "announcement",
			"statement", "official", "headline", "story", "article", "coverage", "investigation",
			"exclusive", "scoop", "leak", "source", "anonymous", "government", "policy",
			"legislation", "bill", "law", "regulation", "election", "vote", "campaign",
			"candidate", "democracy", "republic", "constitution", "rights", "freedom", "justice",
			"court", "judge", "lawyer", "legal", "international", "foreign", "diplomacy",
			"treaty", "alliance", "conflict", "war", "peace", "negotiation", "summit",
		},
	},
	{
		Name:     "lifestyle",
		Feed:     "Lifestyle Feed",
		Personas: []string{"Enthusiast", "Curator", "Guide", "Inspirer", "Coach", "Wellness Expert"},
		Keywords: []string{
			"lifestyle", "health", "fitness", "food", "travel", "wellness", "recipe", "workout",
			"meditation", "self-care", "nutrition", "diet", "organic", "vegan", "vegetarian",
			"gluten-free", "keto", "paleo", "supplements", "vitamins", "exercise", "training",
			"gym", "yoga", "pilates", "running", "cycling", "swimming", "weightlifting", "cardio",
			"mental health", "therapy", "counseling", "mindfulness", "stress", "anxiety",
			"depression", "happiness", "joy", "fashion", "style", "outfit", "trend", "beauty",
			"skincare", "makeup", "hair", "accessories", "shopping",
		},
	},
	{
		Name:     "sports",
		Feed:     "Sports Feed",
		Personas: []string{"Fan", "Analyst", "Commentator", "Enthusiast", "Coach", "Player"},
		Keywords: []string{
			"sports", "basketball", "football", "soccer", "baseball", "athlete", "team", "coach",
			"falcons", "nfl", "nba", "mlb", "nhl", "tennis", "golf", "olympics", "championship",
			"playoff", "season", "draft", "trade", "injury", "stats", "score", "win", "loss",
			"victory", "defeat", "price", "move", "risk", "quarterback", "running back",
			"wide receiver", "defense", "offense", "touchdown", "field goal", "home run",
			"strikeout", "basket", "three pointer", "free throw", "rebound", "assist", "steal",
			"block", "goalie", "midfielder", "forward", "defender", "goal", "yellow card",
			"red card", "penalty", "ace", "serve", "volley", "backhand", "forehand",
			"match point", "set", "tournament", "grand slam", "putt", "drive", "iron", "wood",
			"par", "birdie", "eagle", "bogey", "course", "green", "fairway", "rough",
		},
	},
	{
		Name:     "entertainment",
		Feed:     "Entertainment Feed",
		Personas: []string{"Actor", "Director", "Producer", "Performer", "Host", "Critic"},
		Keywords: []string{
			"movie", "film", "tv", "television", "show", "series", "episode", "season",
			"premiere", "finale", "actor", "actress", "director", "producer", "screenwriter",
			"cinematographer", "editor", "composer", "award", "oscar", "emmy", "grammy", "tony",
			"golden globe", "nomination", "winner", "ceremony", "red carpet", "screening",
			"box office", "revenue", "budget", "trailer", "teaser", "comedy", "drama", "action",
			"horror", "thriller", "romance", "sci-fi", "fantasy", "documentary", "reality tv",
			"game show", "talk show", "news", "late night", "morning show", "streaming",
			"netflix", "hulu", "disney", "amazon", "hbo", "apple", "youtube", "podcast", "radio",
			"broadcast", "live",
		},
	},
	{
		Name:     "gaming",
		Feed:     "Gaming Feed",
		Personas: []string{"Gamer", "Streamer", "Developer", "Analyst", "Commentator", "Pro Player"},
		Keywords: []string{
			"game", "gaming", "video game", "console", "pc", "playstation", "xbox", "nintendo",
			"switch", "rpg", "fps", "mmo", "moba", "strategy", "puzzle", "platformer",
			"adventure", "simulation", "esports", "tournament", "competitive", "ranked",
			"matchmaking", "leaderboard", "achievement", "level", "quest", "mission", "boss",
			"enemy", "weapon", "armor", "skill", "ability", "upgrade", "multiplayer", "co-op",
			"pvp", "pve", "guild", "clan", "team", "squad", "party", "lobby", "stream", "twitch",
			"youtube gaming", "speedrun", "glitch", "mod", "dlc", "expansion", "update",
		},
	},
	{
		Name:     "finance",
		Feed:     "Finance Feed",
		Personas: []string{"Investor", "Analyst", "Advisor", "Trader", "Planner", "Expert"},
		Keywords: []string{
			"finance", "money", "investment", "stock", "market", "trading", "portfolio",
			"dividend", "interest", "crypto", "bitcoin", "ethereum", "blockchain", "nft", "defi",
			"token", "coin", "wallet", "exchange", "bank", "account", "credit", "debit", "loan",
			"mortgage", "insurance", "retirement", "401k", "ira", "tax", "deduction", "refund",
			"income", "salary", "bonus", "commission", "profit", "loss", "revenue", "budget",
			"expense", "saving", "spending", "debt", "credit score", "fico", "lending",
			"borrowing",
		},
	},
	{
		Name:     "education",
		Feed:     "Education Feed",
		Personas: []string{"Teacher", "Professor", "Mentor", "Trainer", "Coach", "Educator"},
		Keywords: []string{
			"education", "learning", "teaching", "school", "university", "college", "course",
			"class", "lecture", "student", "teacher", "professor", "instructor", "tutor",
			"mentor", "coach", "trainer", "educator", "curriculum", "syllabus", "assignment",
			"homework", "project", "exam", "test", "quiz", "grade", "degree", "certificate",
			"diploma", "major", "minor", "concentration", "specialization", "field", "online",
			"distance", "virtual", "hybrid", "blended", "traditional", "classroom", "campus",
			"dorm",
		},
	},
	{
		Name:     "health",
		Feed:     "Health Feed",
		Personas: []string{"Doctor", "Nurse", "Therapist", "Coach", "Specialist", "Practitioner"},
		Keywords: []string{
			"health", "medical", "doctor", "nurse", "physician", "surgeon", "specialist",
			"clinic", "hospital", "diagnosis", "treatment", "therapy", "medication",
			"prescription", "surgery", "procedure", "recovery", "symptom", "condition", "disease",
			"illness", "infection", "injury", "pain", "fever", "cough", "mental health",
			"psychology", "psychiatry", "therapist", "counselor", "psychologist", "psychiatrist",
			"anxiety", "depression", "stress", "trauma", "ptsd", "ocd", "adhd", "autism",
			"bipolar", "schizophrenia",
		},
	},
	{
		Name:     "environment",
		Feed:     "Environment Feed",
		Personas: []string{"Activist", "Scientist", "Advocate", "Researcher", "Conservationist", "Expert"},
		Keywords: []string{
			"environment", "climate", "sustainability", "green", "eco", "renewable", "solar",
			"wind", "energy", "pollution", "emissions", "carbon", "footprint", "recycling",
			"waste", "plastic", "ocean", "forest", "wildlife", "conservation", "preservation",
			"extinction", "endangered", "species", "habitat", "ecosystem", "global warming",
			"climate change", "temperature", "weather", "storm", "hurricane", "drought", "flood",
			"agriculture", "farming", "organic", "pesticide", "fertilizer", "soil", "water",
			"air", "quality",
		},
	},
	{
		Name:     "politics",
		Feed:     "Politics Feed",
		Personas: []string{"Politician", "Analyst", "Commentator", "Activist", "Reporter", "Expert"},
		Keywords: []string{
			"politics", "political", "government", "policy", "legislation", "law", "bill", "act",
			"regulation", "election", "vote", "voting", "campaign", "candidate", "politician",
			"senator", "representative", "president", "vice president", "governor", "mayor",
			"congress", "senate", "house", "parliament", "democracy", "republic", "constitution",
			"amendment", "rights", "freedom", "liberty", "justice", "liberal", "conservative",
			"progressive", "moderate", "independent", "party", "republican", "democrat",
		},
	},
	{
		Name:     "science",
		Feed:     "Science Feed",
		Personas: []string{"Scientist", "Researcher", "Professor", "Analyst", "Expert", "Scholar"},
		Keywords: []string{
			"science", "scientific", "research", "study", "experiment", "hypothesis", "theory",
			"discovery", "physics", "chemistry", "biology", "astronomy", "geology", "meteorology",
			"oceanography", "ecology", "laboratory", "lab", "scientist", "researcher",
			"professor", "phd", "postdoc", "fellowship", "publication", "paper", "journal",
			"conference", "presentation", "poster", "abstract", "citation", "data", "analysis",
			"statistics", "model", "simulation", "computation", "algorithm", "methodology",
		},
	},
}

var vibeWords = map[string][]string{
	"positive": {"Positive", "Optimistic", "Uplifting", "Encouraging"},
	"negative": {"Critical", "Skeptical", "Concerned", "Cautious"},
	"neutral":  {"Balanced", "Thoughtful", "Measured", "Analytical"},
	"mixed":    {"Complex", "Nuanced", "Varied", "Dynamic"},
}
