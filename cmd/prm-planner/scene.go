package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"prm-planner/pkg/geometry"
	"prm-planner/pkg/scene"
)

// sceneOptions are the scene flags shared by run and scene.
type sceneOptions struct {
	name            string
	simplify        float64
	removeContained bool
}

func (o *sceneOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.name, "scene", "s", "default",
		fmt.Sprintf("built-in scene (%s) or a GeoJSON file", strings.Join(scene.Names(), ", ")))
	cmd.Flags().Float64Var(&o.simplify, "simplify", 0, "Douglas-Peucker tolerance applied to obstacles (0 = off)")
	cmd.Flags().BoolVar(&o.removeContained, "remove-contained", false, "drop obstacles contained in other obstacles")
}

// load resolves the scene by built-in name first, then as a file path.
func (o *sceneOptions) load() (scene.Scene, error) {
	s, err := scene.Builtin(o.name)
	if err != nil {
		if _, statErr := os.Stat(o.name); statErr != nil {
			return scene.Scene{}, err
		}
		if s, err = scene.LoadGeoJSON(o.name); err != nil {
			return scene.Scene{}, fmt.Errorf("failed to load scene: %w", err)
		}
	}

	if o.removeContained {
		s.Obstacles = scene.RemoveContained(s.Obstacles)
	}
	if o.simplify > 0 {
		s.Obstacles = scene.Simplify(s.Obstacles, o.simplify)
	}
	return s, nil
}

var (
	sceneOpts   sceneOptions
	sceneExport string
)

var sceneCmd = &cobra.Command{
	Use:   "scene",
	Short: "Display information about an obstacle scene",
	Long:  "Show obstacle counts, areas and endpoints of a scene, and optionally export it as GeoJSON.",
	Args:  cobra.NoArgs,
	RunE:  runScene,
}

func init() {
	sceneOpts.register(sceneCmd)
	sceneCmd.Flags().StringVarP(&sceneExport, "export", "o", "", "write the scene as GeoJSON to this file")
	rootCmd.AddCommand(sceneCmd)
}

func runScene(cmd *cobra.Command, args []string) error {
	s, err := sceneOpts.load()
	if err != nil {
		return err
	}

	domain := geometry.Square(1)
	st := s.ComputeStats(domain)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Scene Information")
	fmt.Fprintln(out, "=================")
	fmt.Fprintf(out, "Name: %s\n", s.Name)
	fmt.Fprintf(out, "Start: %s\n", s.Start)
	fmt.Fprintf(out, "Goal: %s\n\n", s.Goal)

	fmt.Fprintln(out, "Obstacles:")
	fmt.Fprintf(out, "  Polygons: %d\n", st.Polygons)
	fmt.Fprintf(out, "  Vertices: %d\n", st.Vertices)
	fmt.Fprintf(out, "  Area: %.6f of %.6f\n", st.ObstacleArea, st.DomainArea)
	fmt.Fprintf(out, "  Free fraction (analytic): %.4f\n", st.FreeFraction)
	fmt.Fprintf(out, "  Largest radius: %.6f\n", st.LargestRadius)

	if sceneExport == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.FeatureCollection(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scene: %w", err)
	}
	if err := os.WriteFile(sceneExport, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	fmt.Fprintf(out, "\nExported to %s\n", sceneExport)
	return nil
}
