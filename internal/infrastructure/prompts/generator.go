package prompts

import (
	"bytes"
	"text/template"

	"docforge/internal/domain/entity"
)

var (
	structureTaskTmpl = template.Must(template.New("structure_task").Parse(
		`Repository: {{.RepoName}}

File tree:
{{.FileTree}}

Plan the wiki for this repository.`))

	pageTaskTmpl = template.Must(template.New("page_task").Parse(
		`Wiki: {{.WikiTitle}}
Page: {{.Plan.Title}}
Scope: {{.Plan.Description}}
Source files to document:
{{- range .Plan.RelevantFiles}}
- {{.}}
{{- end}}

Write this page.`))

	readmeTaskTmpl = template.Must(template.New("readme_task").Parse(
		`Project: {{.WikiTitle}}
{{.Description}}

Generated wiki pages:
{{range .Pages}}## {{.Title}}

{{.Content}}

{{end}}
Distill the README.`))
)

type structureTaskData struct {
	RepoName string
	FileTree string
}

type pageTaskData struct {
	WikiTitle string
	Plan      entity.PagePlan
}

// PageSummary is one finished page fed into the README distillation task.
type PageSummary struct {
	Title   string
	Content string
}

type readmeTaskData struct {
	WikiTitle   string
	Description string
	Pages       []PageSummary
}

func GenerateStructureTask(repoName, fileTree string) (string, error) {
	return render(structureTaskTmpl, structureTaskData{RepoName: repoName, FileTree: fileTree})
}

func GeneratePageTask(wikiTitle string, plan entity.PagePlan) (string, error) {
	return render(pageTaskTmpl, pageTaskData{WikiTitle: wikiTitle, Plan: plan})
}

func GenerateReadmeTask(structure entity.WikiStructure, pages []PageSummary) (string, error) {
	return render(readmeTaskTmpl, readmeTaskData{
		WikiTitle:   structure.Title,
		Description: structure.Description,
		Pages:       pages,
	})
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
