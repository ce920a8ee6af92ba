package main

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"skiff/internal/heap"
	"skiff/internal/inspect"
	"skiff/internal/snapshot"
)

var browseCmd = &cobra.Command{
	Use:   "browse [image]",
	Short: "Interactively browse a heap snapshot",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveImagePath(args)
		if err != nil {
			return err
		}
		img, err := snapshot.Load(path)
		if err != nil {
			return err
		}
		recs, fault := inspect.Walk(img)
		model := newBrowseModel(path, img, recs, fault)
		_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
		return err
	},
}

type browseModel struct {
	path  string
	brk   heap.Addr
	tbl   table.Model
	fault *heap.Fault
}

func newBrowseModel(path string, img *heap.Image, recs []inspect.Record, fault *heap.Fault) *browseModel {
	columns := []table.Column{
		{Title: "ADDR", Width: 10},
		{Title: "TAG", Width: 12},
		{Title: "WORDS", Width: 6},
		{Title: "LEN", Width: 6},
		{Title: "PREVIEW", Width: 36},
	}
	rows := make([]table.Row, 0, len(recs))
	for _, rec := range recs {
		lenLabel := ""
		if rec.Len >= 0 {
			lenLabel = fmt.Sprintf("%d", rec.Len)
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("%#010x", uint64(rec.Addr)),
			rec.Tag.String(),
			fmt.Sprintf("%d", rec.Words),
			lenLabel,
			rec.Preview,
		})
	}

	tbl := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Bold(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("6"))
	tbl.SetStyles(styles)

	return &browseModel{path: path, brk: img.Brk(), tbl: tbl, fault: fault}
}

func (m *browseModel) Init() tea.Cmd {
	return nil
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		if msg.Height > 6 {
			m.tbl.SetHeight(msg.Height - 5)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.tbl, cmd = m.tbl.Update(msg)
	return m, cmd
}

func (m *browseModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := fmt.Sprintf("%s (%d objects, break %#x)", m.path, len(m.tbl.Rows()), uint64(m.brk))
	view := titleStyle.Render(header) + "\n" + m.tbl.View() + "\n"
	if m.fault != nil {
		warn := lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
		view += warn.Render(fmt.Sprintf("walk stopped early: %v", m.fault)) + "\n"
	}
	view += "q to quit, arrows to move\n"
	return view
}
