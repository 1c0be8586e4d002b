package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/ayusman/airmarker/internal/store"
)

type saveStyles struct {
	header lipgloss.Style
	cell   lipgloss.Style
	id     lipgloss.Style
	border lipgloss.Style
	empty  lipgloss.Style
}

func newSaveStyles() saveStyles {
	return saveStyles{
		header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("241")).Padding(0, 1),
		cell:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Padding(0, 1),
		id:     lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Padding(0, 1),
		border: lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		empty:  lipgloss.NewStyle().Faint(true),
	}
}

func newSavesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "saves",
		Short: "List saved drawings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := store.New(c.cfg.Store.Path)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			saves, err := st.Saves().List()
			if err != nil {
				return fmt.Errorf("list saves: %w", err)
			}
			return writeSaves(cmd.OutOrStdout(), saves)
		},
	}
}

func writeSaves(w io.Writer, saves []*store.Save) error {
	s := newSaveStyles()
	if len(saves) == 0 {
		_, err := fmt.Fprintln(w, s.empty.Render("No saved drawings."))
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.border).
		Headers("ID", "SAVED", "SEGMENTS", "SIZE", "PATH").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return s.header
			case col == 0:
				return s.id
			default:
				return s.cell
			}
		})

	for _, sv := range saves {
		t.Row(
			sv.ID,
			sv.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			strconv.Itoa(sv.Segments),
			fmt.Sprintf("%dx%d", sv.Width, sv.Height),
			sv.Path,
		)
	}

	_, err := fmt.Fprintln(w, t.Render())
	return err
}
