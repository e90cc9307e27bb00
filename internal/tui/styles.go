package tui

import "github.com/charmbracelet/lipgloss"

var (
	accentColor = lipgloss.Color("#d8a657")
	nameColor   = lipgloss.Color("#7daea3")
	dimColor    = lipgloss.Color("244")

	titleStyle         = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle        = lipgloss.NewStyle().Foreground(dimColor)
	infoStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("#a3be8c"))
	nameStyle          = lipgloss.NewStyle().Foreground(nameColor)
	cursorStyle        = lipgloss.NewStyle().Reverse(true)
	selectedItemStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6"))
	statusBarStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	dirtyStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#b3261e"))
	badgeStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyStyle           = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyDescStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	legendBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(0, 1)
	panelStyle         = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accentColor).Padding(0, 1)
	findBarStyle       = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true, false, false, false).BorderForeground(dimColor)
)
