package service

import (
	"docforge/internal/application/port/input"
	"docforge/internal/application/port/output"
	"docforge/internal/domain/entity"
)

var _ output.AgentRegistry = (*AgentRegistryImpl)(nil)

type AgentRegistryImpl struct {
	agents map[entity.AgentType]input.DocumentAgent
}

func NewAgentRegistry() *AgentRegistryImpl {
	return &AgentRegistryImpl{
		agents: make(map[entity.AgentType]input.DocumentAgent),
	}
}

func (r *AgentRegistryImpl) Register(agent input.DocumentAgent) {
	r.agents[agent.Type()] = agent
}

func (r *AgentRegistryImpl) Get(agentType entity.AgentType) (input.DocumentAgent, bool) {
	agent, ok := r.agents[agentType]
	return agent, ok
}

func (r *AgentRegistryImpl) List() []entity.AgentType {
	result := make([]entity.AgentType, 0, len(r.agents))
	for agentType := range r.agents {
		result = append(result, agentType)
	}
	return result
}
