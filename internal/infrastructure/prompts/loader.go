package prompts

import (
	_ "embed"
)

//go:embed structure.txt
var StructureSystemPrompt string

//go:embed page.txt
var PageSystemPrompt string

//go:embed readme.txt
var ReadmeSystemPrompt string
