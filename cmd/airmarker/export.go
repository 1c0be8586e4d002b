package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/airmarker/internal/export"
	"github.com/ayusman/airmarker/internal/store"
)

func newExportCmd(c *cli) *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "export OUT.pdf",
		Short: "Export a saved drawing as PDF",
		Long:  "Renders the stroke journal of a save (the latest one unless --id is given) as a vector PDF.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.New(c.cfg.Store.Path)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			sv, err := findSave(st, id)
			if err != nil {
				return err
			}
			segs, err := st.Saves().Segments(sv.ID)
			if err != nil {
				return fmt.Errorf("load segments: %w", err)
			}

			if err := export.WriteFile(args[0], sv.Width, sv.Height, segs); err != nil {
				return fmt.Errorf("export %s: %w", sv.ID, err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Exported %s (%d segments) to %s\n", sv.ID, len(segs), args[0])
			return err
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "save to export (default latest)")
	return cmd
}

func findSave(st *store.Store, id string) (*store.Save, error) {
	var (
		sv  *store.Save
		err error
	)
	if id == "" {
		sv, err = st.Saves().Latest()
	} else {
		sv, err = st.Saves().Get(id)
	}
	if errors.Is(err, store.ErrNotFound) {
		if id == "" {
			return nil, errors.New("no saved drawings")
		}
		return nil, fmt.Errorf("save %s not found", id)
	}
	return sv, err
}
