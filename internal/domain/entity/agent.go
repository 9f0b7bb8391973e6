package entity

type AgentType string

const (
	AgentTypeStructure AgentType = "structure"
	AgentTypePage      AgentType = "page"
	AgentTypeReadme    AgentType = "readme"
)
