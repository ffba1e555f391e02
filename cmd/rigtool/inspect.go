package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/avatarforge/autorig/internal/classifier"
	"github.com/avatarforge/autorig/pkg/analyze"
	"github.com/avatarforge/autorig/pkg/container"
)

func newInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <model.glb>",
		Short: "Print the structural analysis of a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading model: %w", err)
			}

			doc, err := container.Parse(data)
			if err != nil {
				return fmt.Errorf("parsing container: %w", err)
			}
			a := analyze.Analyze(doc)
			cls := classifier.Fallback(a)

			tw := table.NewWriter()
			tw.SetStyle(table.StyleRounded)
			tw.AppendHeader(table.Row{"Property", "Value"})
			tw.AppendRows([]table.Row{
				{"File size", fmt.Sprintf("%d bytes", len(data))},
				{"Vertices", a.VertexCount},
				{"Meshes", len(a.MeshSummaries)},
				{"Materials", a.MaterialCount},
				{"Existing skeleton", a.HasExistingSkeleton},
				{"Animations", a.HasAnimations},
				{"Bounds", fmt.Sprintf("%.2f x %.2f x %.2f", a.Bounds.Width(), a.Bounds.Height(), a.Bounds.Depth())},
				{"Humanoid confidence", fmt.Sprintf("%.2f", a.HumanoidConfidence)},
				{"Classification", fmt.Sprintf("%s (%.2f)", cls.Label, cls.Confidence)},
				{"Anatomy", fmt.Sprintf("head=%t torso=%t arms=%t legs=%t",
					a.Anatomy.Head, a.Anatomy.Torso, a.Anatomy.Arms, a.Anatomy.Legs)},
			})
			fmt.Fprintln(cmd.OutOrStdout(), tw.Render())

			if len(a.MeshSummaries) > 0 {
				mw := table.NewWriter()
				mw.SetStyle(table.StyleRounded)
				mw.AppendHeader(table.Row{"Mesh", "Primitives", "Vertices"})
				for _, m := range a.MeshSummaries {
					mw.AppendRow(table.Row{m.Name, m.PrimitiveCount, m.VertexCount})
				}
				fmt.Fprintln(cmd.OutOrStdout(), mw.Render())
			}
			return nil
		},
	}
	return cmd
}
