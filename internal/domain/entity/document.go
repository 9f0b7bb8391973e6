package entity

// WikiStructure is the page plan extracted from a repository before any
// page is written.
type WikiStructure struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Pages       []PagePlan `json:"pages"`
}

// PagePlan describes one page the structure agent decided the wiki needs.
type PagePlan struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Importance    string   `json:"importance"`
	RelevantFiles []string `json:"relevant_files"`
}

// GeneratedDocument is one finished document together with its quality
// outcome, ready for the store.
type GeneratedDocument struct {
	ID      string
	Title   string
	Kind    AgentType
	Content string
	Result  *AgentResult
}
