package tui

import "time"

type stage int

const (
	stageProjects stage = iota
	stageNewProject
	stageConfirmDelete
	stagePrinters
	stageSubmitTargets
	stageSubmitForm
	stageEditor
	stageFind
	stageCite
	stageSources
	stageSourceForm
	stageBibImport
	stageImportProject
	stageExportFormat
	stagePalette
	stagePreview
)

// editorStages keep the open project on screen; leaving them for the
// projects list saves first.
var editorStages = map[stage]bool{
	stageEditor:        true,
	stageFind:          true,
	stageCite:          true,
	stageSources:       true,
	stageSourceForm:    true,
	stageBibImport:     true,
	stageImportProject: true,
	stageExportFormat:  true,
	stagePreview:       true,
}

const (
	minEditorWidth          = 20
	editorHorizontalPadding = 2
	tabSpaces               = "    "
)

const (
	discoverTimeout = 3 * time.Second
	submitTimeout   = 30 * time.Second
	printTimeout    = 10 * time.Second
)

const noSourcesHint = "No sources yet. Open Sources with Ctrl+O first."

type keyHint struct {
	Key         string
	Description string
}
