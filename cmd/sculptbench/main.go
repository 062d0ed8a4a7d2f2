// sculptbench drives the sculpt engine with synthetic strokes and reports
// what the remesher and spatial index did.
package main

import (
	"context"
	"flag"
	"fmt"
	gomath "math"
	"os"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-sculpt/internal/config"
	"github.com/Faultbox/midgard-sculpt/internal/curvature"
	"github.com/Faultbox/midgard-sculpt/internal/logger"
	"github.com/Faultbox/midgard-sculpt/internal/stroke"
	"github.com/Faultbox/midgard-sculpt/pkg/math"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}
	command, args := args[0], args[1:]

	switch command {
	case "info":
		err = cmdInfo(cfg, args)
	case "stroke":
		err = cmdStroke(cfg, args)
	case "curvature", "curv":
		err = cmdCurvature(cfg, args)
	case "config":
		err = cmdConfig(cfg, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sculptbench - dynamic topology sculpt benchmark

Usage:
  sculptbench [global flags] <command> [options]

Commands:
  info      [-base name] [-level n]          Show base mesh and index statistics
  stroke    [-base name] [-level n] [-n k]   Run a synthetic stroke around the mesh
  curvature [-base name] [-level n]          Show curvature statistics
  config    [-save]                          Print the effective config, optionally saving it

Base meshes: icosphere, icosahedron, plane, hull, sdf

Global flags:
  -config -debug -detail -dyntopo on|off -workers -leaf-size -brush

Examples:
  sculptbench info -base hull -level 3
  sculptbench -dyntopo on -brush clay stroke -n 200
  sculptbench -debug curvature -base sdf`)
}

func baseFlags(name string) (*flag.FlagSet, *string, *int) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	base := fs.String("base", "icosphere", "Base mesh")
	level := fs.Int("level", 2, "Base mesh subdivision level")
	return fs, base, level
}

func cmdInfo(cfg *config.Config, args []string) error {
	fs, base, level := baseFlags("info")
	fs.Parse(args)

	ws, err := newWorkspace(cfg, *base, *level)
	if err != nil {
		return err
	}
	printMesh(ws)
	return ws.m.Validate()
}

func printMesh(ws *workspace) {
	m := ws.m
	st := ws.tree.Stats()
	fmt.Printf("Verts:    %d\n", m.VertCount())
	fmt.Printf("Edges:    %d\n", m.EdgeCount())
	fmt.Printf("Faces:    %d\n", m.FaceCount())
	fmt.Printf("Avg edge: %.4f\n", m.AverageEdgeLength())
	fmt.Printf("Features: %d\n", ws.features)
	fmt.Println()
	fmt.Println("Index:")
	fmt.Printf("  Nodes:          %d\n", st.Nodes)
	fmt.Printf("  Leaves:         %d\n", st.Leaves)
	fmt.Printf("  Max depth:      %d\n", st.MaxDepth)
	fmt.Printf("  Max leaf faces: %d\n", st.MaxLeafFaces)
}

func cmdStroke(cfg *config.Config, args []string) error {
	fs, base, level := baseFlags("stroke")
	steps := fs.Int("n", 64, "Number of stroke steps")
	fs.Parse(args)

	ws, err := newWorkspace(cfg, *base, *level)
	if err != nil {
		return err
	}
	sample, err := brushSample(cfg.Brush)
	if err != nil {
		return err
	}

	undo := &stroke.MemoryUndoLog{}
	sess := stroke.NewSession(ws.m, ws.tree, ws.remesher,
		stroke.Options{Dyntopo: cfg.Remesh.Enabled}, undo, nil)

	ctx := context.Background()
	if err := sess.Begin(); err != nil {
		return err
	}

	var total stroke.StepStats
	var durations []time.Duration
	prev, havePrev := math.Vec3{}, false
	for i := range *steps {
		origin, dir := cursorRay(*base, i, *steps)
		hit, ok := sess.Raycast(origin, dir)
		if !ok {
			continue
		}
		s := sample
		s.Center = hit.Point
		if havePrev {
			s.GrabDelta = hit.Point.Sub(prev)
		}
		prev, havePrev = hit.Point, true

		start := time.Now()
		st, err := sess.Step(ctx, s)
		durations = append(durations, time.Since(start))
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		total.Dabs += st.Dabs
		total.Moved += st.Moved
		total.Snapshots += st.Snapshots
		total.Remesh.Collapsed += st.Remesh.Collapsed
		total.Remesh.Split += st.Remesh.Split
		total.Remesh.Flipped += st.Remesh.Flipped
		total.Remesh.Rejected += st.Remesh.Rejected
		total.Remesh.DepthCapped += st.Remesh.DepthCapped
	}
	if err := sess.End(); err != nil {
		return err
	}

	printMesh(ws)
	fmt.Println()
	fmt.Printf("Stroke:   %s, %d steps, %d dabs\n", sample.Kind, len(durations), total.Dabs)
	fmt.Printf("  Moved:        %d\n", total.Moved)
	fmt.Printf("  Split:        %d\n", total.Remesh.Split)
	fmt.Printf("  Collapsed:    %d\n", total.Remesh.Collapsed)
	fmt.Printf("  Flipped:      %d\n", total.Remesh.Flipped)
	fmt.Printf("  Rejected:     %d\n", total.Remesh.Rejected)
	fmt.Printf("  Depth capped: %d\n", total.Remesh.DepthCapped)
	fmt.Printf("  Undo leaves:  %d\n", total.Snapshots)
	if len(durations) > 0 {
		slices.Sort(durations)
		fmt.Printf("  Step p50:     %v\n", durations[len(durations)/2])
		fmt.Printf("  Step max:     %v\n", durations[len(durations)-1])
	}
	return ws.m.Validate()
}

// cursorRay returns the i-th of n rays along a closed path: a circle over
// the plane, or a tilted great circle around the other bases.
func cursorRay(base string, i, n int) (origin, dir math.Vec3) {
	th := 2 * gomath.Pi * float64(i) / float64(n)
	if base == "plane" {
		return math.Vec3{X: 0.5 * gomath.Cos(th), Y: 0.5 * gomath.Sin(th), Z: 5}, math.Vec3{Z: -1}
	}
	d := math.Vec3{X: gomath.Cos(th), Y: 0.3, Z: gomath.Sin(th)}.Normalize()
	return d.Scale(5), d.Neg()
}

func cmdCurvature(cfg *config.Config, args []string) error {
	fs, base, level := baseFlags("curvature")
	fs.Parse(args)

	ws, err := newWorkspace(cfg, *base, *level)
	if err != nil {
		return err
	}
	res, err := curvature.Compute(context.Background(), ws.m, curvature.Layer(ws.m))
	if err != nil {
		return err
	}

	var mean, gauss []float64
	totalGauss := 0.0
	for v := range ws.m.Verts() {
		mean = append(mean, res.Mean[v])
		gauss = append(gauss, res.Gauss[v])
		totalGauss += res.Gauss[v] * res.Area[v]
	}
	if len(mean) == 0 {
		return nil
	}
	slices.Sort(mean)
	slices.Sort(gauss)

	fmt.Printf("Verts:      %d (%d degenerate)\n", len(mean), len(res.Degenerate))
	fmt.Printf("Mean H:     min %.4f  median %.4f  max %.4f\n", mean[0], mean[len(mean)/2], mean[len(mean)-1])
	fmt.Printf("Gauss K:    min %.4f  median %.4f  max %.4f\n", gauss[0], gauss[len(gauss)/2], gauss[len(gauss)-1])
	fmt.Printf("Total K·A:  %.6f (4π = %.6f)\n", totalGauss, 4*gomath.Pi)
	return nil
}

func cmdConfig(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	save := fs.Bool("save", false, "Write the config to the user config directory")
	fs.Parse(args)

	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	if !*save {
		return nil
	}
	if err := cfg.Save(); err != nil {
		return err
	}
	logger.Info("config saved", zap.String("dir", config.ConfigDir()))
	return nil
}
