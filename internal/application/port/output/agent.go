package output

import (
	"docforge/internal/application/port/input"
	"docforge/internal/domain/entity"
)

type AgentRegistry interface {
	Register(agent input.DocumentAgent)
	Get(agentType entity.AgentType) (input.DocumentAgent, bool)
	List() []entity.AgentType
}
