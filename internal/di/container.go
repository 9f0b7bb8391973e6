package di

import (
	"fmt"

	"docforge/internal/application/port/input"
	"docforge/internal/application/port/output"
	"docforge/internal/application/service"
	"docforge/internal/domain/entity"
	"docforge/internal/infrastructure/llm/openrouter"
	"docforge/internal/infrastructure/logger"
	"docforge/internal/infrastructure/progress"
	"docforge/internal/infrastructure/prompts"
	"docforge/internal/infrastructure/rubric"
	"docforge/internal/infrastructure/source"
	"docforge/internal/infrastructure/store"
	pageagent "docforge/internal/usecase/agents/page"
	readmeagent "docforge/internal/usecase/agents/readme"
	structureagent "docforge/internal/usecase/agents/structure"
	"docforge/internal/usecase/critic"
	"docforge/internal/usecase/pipeline"
)

type Container struct {
	Logger   output.LoggerPort
	LLM      output.LLMPort
	Agents   output.AgentRegistry
	Pipeline input.PipelineRunner
}

type Config struct {
	OpenRouterAPIKey string
	GeneratorModel   string

	// CriticModel lets the judge run on a different model than the
	// generator. Empty means same model.
	CriticModel string

	OutputDir          string
	RubricDir          string
	MaxConcurrentPages int
	ReferenceTokens    int
	LogLevel           string
	Quiet              bool
}

func NewContainer(cfg Config) (*Container, error) {
	log, err := logger.NewZapAdapter(logger.Config{Level: cfg.LogLevel})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	generatorLLM := openrouter.NewOpenRouterAdapter(
		openrouter.DefaultConfig(cfg.OpenRouterAPIKey, cfg.GeneratorModel))

	criticModel := cfg.CriticModel
	if criticModel == "" {
		criticModel = cfg.GeneratorModel
	}
	criticLLM := openrouter.NewOpenRouterAdapter(
		openrouter.DefaultConfig(cfg.OpenRouterAPIKey, criticModel))
	judge := critic.New(criticLLM, log)

	specs, err := loadSpecs(cfg.RubricDir)
	if err != nil {
		log.Close()
		return nil, err
	}

	var console output.ProgressPort
	if !cfg.Quiet {
		console = progress.NewConsole()
	}

	agents := service.NewAgentRegistry()
	if err := registerAgents(agents, generatorLLM, judge, specs, log, console); err != nil {
		log.Close()
		return nil, err
	}

	reader, err := source.NewReader(source.Config{TokenBudget: cfg.ReferenceTokens}, log)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create source reader: %w", err)
	}

	fileStore, err := store.NewFileStore(cfg.OutputDir, log)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create document store: %w", err)
	}

	runner := pipeline.New(agents, reader, fileStore, console, log, cfg.MaxConcurrentPages)

	return &Container{
		Logger:   log,
		LLM:      generatorLLM,
		Agents:   agents,
		Pipeline: runner,
	}, nil
}

func (c *Container) Close() {
	if c.Logger != nil {
		c.Logger.Close()
	}
}

func loadSpecs(dir string) (map[entity.AgentType]rubric.AgentSpec, error) {
	if dir == "" {
		specs, err := rubric.LoadDefaults()
		if err != nil {
			return nil, fmt.Errorf("failed to load rubrics: %w", err)
		}
		return specs, nil
	}
	specs, err := rubric.LoadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load rubrics from %s: %w", dir, err)
	}
	return specs, nil
}

func registerAgents(
	registry *service.AgentRegistryImpl,
	llm output.LLMPort,
	judge output.CriticPort,
	specs map[entity.AgentType]rubric.AgentSpec,
	log output.LoggerPort,
	console output.ProgressPort,
) error {
	structureSpec, ok := specs[entity.AgentTypeStructure]
	if !ok {
		return fmt.Errorf("no rubric configured for agent %q", entity.AgentTypeStructure)
	}
	pageSpec, ok := specs[entity.AgentTypePage]
	if !ok {
		return fmt.Errorf("no rubric configured for agent %q", entity.AgentTypePage)
	}
	readmeSpec, ok := specs[entity.AgentTypeReadme]
	if !ok {
		return fmt.Errorf("no rubric configured for agent %q", entity.AgentTypeReadme)
	}

	structureAg, err := structureagent.New(llm, judge, structureSpec, prompts.StructureSystemPrompt, log, console)
	if err != nil {
		return fmt.Errorf("failed to build structure agent: %w", err)
	}
	pageAg, err := pageagent.New(llm, judge, pageSpec, prompts.PageSystemPrompt, log, console)
	if err != nil {
		return fmt.Errorf("failed to build page agent: %w", err)
	}
	readmeAg, err := readmeagent.New(llm, judge, readmeSpec, prompts.ReadmeSystemPrompt, log, console)
	if err != nil {
		return fmt.Errorf("failed to build readme agent: %w", err)
	}

	registry.Register(structureAg)
	registry.Register(pageAg)
	registry.Register(readmeAg)
	return nil
}
