package main

import (
	"fmt"

	"github.com/Faultbox/midgard-sculpt/internal/brush"
	"github.com/Faultbox/midgard-sculpt/internal/bvh"
	"github.com/Faultbox/midgard-sculpt/internal/config"
	"github.com/Faultbox/midgard-sculpt/internal/mesh"
	"github.com/Faultbox/midgard-sculpt/internal/parallel"
	"github.com/Faultbox/midgard-sculpt/internal/primitive"
	"github.com/Faultbox/midgard-sculpt/internal/remesh"
	"github.com/Faultbox/midgard-sculpt/internal/stroke"
)

// baseMesh builds one of the named starting shapes with unit size.
func baseMesh(name string, level int) (*mesh.Mesh, error) {
	switch name {
	case "icosphere", "sphere":
		return primitive.Icosphere(1, level)
	case "icosahedron":
		return primitive.Icosahedron(1)
	case "plane":
		return primitive.Plane(4<<level, 2)
	case "hull":
		return primitive.HullSphere(20<<(2*level), 1)
	case "sdf":
		return primitive.SDFSphere(1, 8<<level)
	}
	return nil, fmt.Errorf("unknown base mesh %q", name)
}

func remeshParams(c config.RemeshConfig) (remesh.Params, error) {
	policy, err := remesh.ParsePolicy(c.CollapsePolicy)
	if err != nil {
		return remesh.Params{}, err
	}
	return remesh.Params{
		Detail:           c.Detail,
		MinEdge:          c.MinEdge,
		MaxEdge:          c.MaxEdge,
		Adaptive:         c.Adaptive,
		UseQuadrics:      c.UseQuadrics,
		SplitScale:       c.SplitScale,
		MaxSplitDepth:    c.MaxSplitDepth,
		FlipPasses:       c.FlipPasses,
		SmoothIterations: c.SmoothIterations,
		SmoothFactor:     c.SmoothFactor,
		Policy:           policy,
	}, nil
}

func treeConfig(c config.IndexConfig) bvh.Config {
	return bvh.Config{MaxLeafSize: c.MaxLeafSize, MaxDepth: c.MaxDepth}
}

func parallelSettings(c config.ParallelConfig) parallel.Settings {
	return parallel.Settings{Workers: c.Workers, Grain: c.Grain}
}

// brushSample returns the configured brush as a stroke sample template.
func brushSample(c config.BrushConfig) (stroke.Sample, error) {
	kind, err := brush.ParseKind(c.Kind)
	if err != nil {
		return stroke.Sample{}, err
	}
	falloff, err := brush.ParseFalloff(c.Falloff)
	if err != nil {
		return stroke.Sample{}, err
	}
	sym, err := stroke.ParseSymmetry(c.Symmetry)
	if err != nil {
		return stroke.Sample{}, err
	}
	return stroke.Sample{
		Kind:     kind,
		Falloff:  falloff,
		Radius:   c.Radius,
		Strength: c.Strength,
		Symmetry: sym,
	}, nil
}

// workspace is a mesh with its index and remesher, wired from config.
type workspace struct {
	m        *mesh.Mesh
	tree     *bvh.Tree
	remesher *remesh.Remesher
	features int
}

func newWorkspace(cfg *config.Config, base string, level int) (*workspace, error) {
	m, err := baseMesh(base, level)
	if err != nil {
		return nil, err
	}
	m.Parallel = parallelSettings(cfg.Parallel)
	features := remesh.MarkFeatures(m, cfg.Remesh.FeatureAngle)

	p, err := remeshParams(cfg.Remesh)
	if err != nil {
		return nil, err
	}
	tree := bvh.BuildFromMesh(m, treeConfig(cfg.Index))
	return &workspace{
		m:        m,
		tree:     tree,
		remesher: remesh.New(m, tree, p, nil),
		features: features,
	}, nil
}
