package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"docforge/internal/application/port/input"
	"docforge/internal/application/port/output"
	"docforge/internal/domain/entity"
	"docforge/internal/infrastructure/prompts"
)

const defaultMaxConcurrentPages = 3

var _ input.PipelineRunner = (*UseCase)(nil)

// UseCase runs the full documentation pipeline for one repository:
// structure planning, concurrent page generation, then a readme distilled
// from the finished pages. Documents that miss their quality gate are
// still written to the store, flagged in the returned outcomes.
type UseCase struct {
	agents   output.AgentRegistry
	reader   output.SourceReaderPort
	store    output.DocumentStorePort
	progress output.ProgressPort
	logger   output.LoggerPort

	maxConcurrentPages int
}

func New(
	agents output.AgentRegistry,
	reader output.SourceReaderPort,
	store output.DocumentStorePort,
	progress output.ProgressPort,
	logger output.LoggerPort,
	maxConcurrentPages int,
) *UseCase {
	if maxConcurrentPages <= 0 {
		maxConcurrentPages = defaultMaxConcurrentPages
	}
	return &UseCase{
		agents:             agents,
		reader:             reader,
		store:              store,
		progress:           progress,
		logger:             logger,
		maxConcurrentPages: maxConcurrentPages,
	}
}

func (uc *UseCase) Run(ctx context.Context, req input.RunRequest) (*input.PipelineResult, error) {
	uc.logger.Info("Pipeline starting", "repo_path", req.RepoPath, "repo_name", req.RepoName)

	structure, structOutcome, structUsage, err := uc.planStructure(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &input.PipelineResult{Structure: *structure}
	result.Documents = append(result.Documents, *structOutcome)
	result.TokenUsage.Add(structUsage)

	if err := uc.store.SaveStructure(ctx, *structure); err != nil {
		return nil, fmt.Errorf("failed to persist structure: %w", err)
	}

	summaries, pageOutcomes, pageUsage, err := uc.generatePages(ctx, req, structure)
	if err != nil {
		return nil, err
	}
	result.Documents = append(result.Documents, pageOutcomes...)
	result.TokenUsage.Add(pageUsage)

	readmeOutcome, readmeUsage, err := uc.generateReadme(ctx, structure, summaries)
	if err != nil {
		return nil, err
	}
	result.Documents = append(result.Documents, *readmeOutcome)
	result.TokenUsage.Add(readmeUsage)

	uc.logger.Info("Pipeline finished",
		"documents", len(result.Documents),
		"failed_gates", result.FailedGates(),
		"total_tokens", result.TokenUsage.Total(),
	)
	return result, nil
}

func (uc *UseCase) planStructure(ctx context.Context, req input.RunRequest) (*entity.WikiStructure, *input.DocumentOutcome, entity.TokenUsage, error) {
	agent, ok := uc.agents.Get(entity.AgentTypeStructure)
	if !ok {
		return nil, nil, entity.TokenUsage{}, fmt.Errorf("no agent registered for type %q", entity.AgentTypeStructure)
	}

	tree, err := uc.reader.FileTree(ctx, req.RepoPath)
	if err != nil {
		return nil, nil, entity.TokenUsage{}, fmt.Errorf("failed to read file tree: %w", err)
	}

	task, err := prompts.GenerateStructureTask(req.RepoName, tree)
	if err != nil {
		return nil, nil, entity.TokenUsage{}, fmt.Errorf("failed to build structure task: %w", err)
	}

	if uc.progress != nil {
		uc.progress.ShowDocumentStart(ctx, entity.AgentTypeStructure, req.RepoName)
	}

	res, err := agent.Run(ctx, input.DocumentRequest{Task: task, Reference: tree})
	if err != nil {
		return nil, nil, entity.TokenUsage{}, fmt.Errorf("structure agent failed: %w", err)
	}

	structure, err := parseStructure(res.Output.Content)
	if err != nil {
		return nil, nil, entity.TokenUsage{}, fmt.Errorf("structure agent produced an unusable plan: %w", err)
	}
	if structure.Title == "" {
		structure.Title = req.RepoName
	}

	outcome := outcomeFrom("structure", structure.Title, entity.AgentTypeStructure, res)
	if uc.progress != nil {
		uc.progress.ShowDocumentDone(ctx, structure.Title, res)
	}
	return structure, &outcome, res.TokenUsage, nil
}

func (uc *UseCase) generatePages(
	ctx context.Context,
	req input.RunRequest,
	structure *entity.WikiStructure,
) ([]prompts.PageSummary, []input.DocumentOutcome, entity.TokenUsage, error) {
	agent, ok := uc.agents.Get(entity.AgentTypePage)
	if !ok {
		return nil, nil, entity.TokenUsage{}, fmt.Errorf("no agent registered for type %q", entity.AgentTypePage)
	}

	summaries := make([]prompts.PageSummary, len(structure.Pages))
	outcomes := make([]input.DocumentOutcome, len(structure.Pages))

	var mu sync.Mutex
	var usage entity.TokenUsage

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.maxConcurrentPages)

	for i, plan := range structure.Pages {
		i, plan := i, plan
		g.Go(func() error {
			reference, err := uc.reader.BuildReference(gctx, req.RepoPath, plan.RelevantFiles)
			if err != nil {
				return fmt.Errorf("failed to build reference for page %q: %w", plan.ID, err)
			}

			task, err := prompts.GeneratePageTask(structure.Title, plan)
			if err != nil {
				return fmt.Errorf("failed to build task for page %q: %w", plan.ID, err)
			}

			if uc.progress != nil {
				uc.progress.ShowDocumentStart(gctx, entity.AgentTypePage, plan.Title)
			}

			res, err := agent.Run(gctx, input.DocumentRequest{Task: task, Reference: reference})
			if err != nil {
				return fmt.Errorf("page agent failed on %q: %w", plan.ID, err)
			}

			doc := entity.GeneratedDocument{
				ID:      plan.ID,
				Title:   plan.Title,
				Kind:    entity.AgentTypePage,
				Content: res.Output.Content,
				Result:  res,
			}
			if err := uc.store.SaveDocument(gctx, doc); err != nil {
				return fmt.Errorf("failed to persist page %q: %w", plan.ID, err)
			}

			summaries[i] = prompts.PageSummary{Title: plan.Title, Content: res.Output.Content}
			outcomes[i] = outcomeFrom(plan.ID, plan.Title, entity.AgentTypePage, res)

			mu.Lock()
			usage.Add(res.TokenUsage)
			mu.Unlock()

			if uc.progress != nil {
				uc.progress.ShowDocumentDone(gctx, plan.Title, res)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, entity.TokenUsage{}, err
	}
	return summaries, outcomes, usage, nil
}

func (uc *UseCase) generateReadme(
	ctx context.Context,
	structure *entity.WikiStructure,
	summaries []prompts.PageSummary,
) (*input.DocumentOutcome, entity.TokenUsage, error) {
	agent, ok := uc.agents.Get(entity.AgentTypeReadme)
	if !ok {
		return nil, entity.TokenUsage{}, fmt.Errorf("no agent registered for type %q", entity.AgentTypeReadme)
	}

	task, err := prompts.GenerateReadmeTask(*structure, summaries)
	if err != nil {
		return nil, entity.TokenUsage{}, fmt.Errorf("failed to build readme task: %w", err)
	}

	if uc.progress != nil {
		uc.progress.ShowDocumentStart(ctx, entity.AgentTypeReadme, structure.Title)
	}

	res, err := agent.Run(ctx, input.DocumentRequest{Task: task})
	if err != nil {
		return nil, entity.TokenUsage{}, fmt.Errorf("readme agent failed: %w", err)
	}

	doc := entity.GeneratedDocument{
		ID:      "readme",
		Title:   structure.Title,
		Kind:    entity.AgentTypeReadme,
		Content: res.Output.Content,
		Result:  res,
	}
	if err := uc.store.SaveDocument(ctx, doc); err != nil {
		return nil, entity.TokenUsage{}, fmt.Errorf("failed to persist readme: %w", err)
	}

	outcome := outcomeFrom("readme", structure.Title, entity.AgentTypeReadme, res)
	if uc.progress != nil {
		uc.progress.ShowDocumentDone(ctx, structure.Title, res)
	}
	return &outcome, res.TokenUsage, nil
}

// parseStructure extracts the JSON plan from the structure agent output.
// Models routinely wrap JSON in prose or markdown fences, so the parser
// takes the outermost brace pair rather than demanding a clean document.
func parseStructure(raw string) (*entity.WikiStructure, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object found in output")
	}

	var structure entity.WikiStructure
	if err := json.Unmarshal([]byte(raw[start:end+1]), &structure); err != nil {
		return nil, fmt.Errorf("invalid structure JSON: %w", err)
	}
	if len(structure.Pages) == 0 {
		return nil, fmt.Errorf("structure plan contains no pages")
	}
	for i, p := range structure.Pages {
		if p.ID == "" {
			return nil, fmt.Errorf("page %d has no id", i)
		}
		if !pageIDPattern.MatchString(p.ID) {
			return nil, fmt.Errorf("page %d has unsafe id %q", i, p.ID)
		}
	}
	return &structure, nil
}

// Page ids become file names, so anything beyond a plain slug is rejected
// before it reaches the store.
var pageIDPattern = regexp.MustCompile(`^[a-z0-9]+(?:[-_][a-z0-9]+)*$`)

func outcomeFrom(id, title string, kind entity.AgentType, res *entity.AgentResult) input.DocumentOutcome {
	return input.DocumentOutcome{
		ID:                id,
		Title:             title,
		Kind:              kind,
		Attempts:          res.Attempts,
		FinalScore:        res.FinalScore,
		PassedQualityGate: res.PassedQualityGate,
		BelowMinimumFloor: res.BelowMinimumFloor,
	}
}
