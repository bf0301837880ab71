package main

import (
	"fmt"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/scenegraph/ecs"
	"github.com/plus3/scenegraph/internal/config"
	"github.com/plus3/scenegraph/scene"
)

// forest tracks the nodes the churn system picks from. Entries may go stale
// when a subtree is destroyed; pick drops them lazily.
type forest struct {
	nodes []*scene.SceneNode
	skins int
}

func (f *forest) Len() int { return len(f.nodes) }

func (f *forest) add(n *scene.SceneNode) {
	f.nodes = append(f.nodes, n)
}

// pick returns a random live node, or nil when none is left
func (f *forest) pick(rng *rand.Rand) *scene.SceneNode {
	for len(f.nodes) > 0 {
		i := rng.Intn(len(f.nodes))
		n := f.nodes[i]
		if n.Alive() {
			return n
		}
		last := len(f.nodes) - 1
		f.nodes[i] = f.nodes[last]
		f.nodes = f.nodes[:last]
	}
	return nil
}

func randomVec3(rng *rand.Rand, scale float32) mgl32.Vec3 {
	return mgl32.Vec3{
		(rng.Float32()*2 - 1) * scale,
		(rng.Float32()*2 - 1) * scale,
		(rng.Float32()*2 - 1) * scale,
	}
}

// buildForest creates cfg.Nodes nodes whose depth below the root never
// exceeds cfg.Depth, then turns some of them into skin instances.
func buildForest(world *ecs.World, nodes *scene.NodeSystem, skins *scene.SkinningSystem, rng *rand.Rand, cfg config.StressConfig) *forest {
	f := &forest{nodes: make([]*scene.SceneNode, 0, cfg.Nodes)}
	depths := make([]int, 0, cfg.Nodes)
	var parents []int // indices of nodes that may still take children

	for i := 0; i < cfg.Nodes; i++ {
		n := nodes.CreateNode()
		n.SetName(fmt.Sprintf("node-%d", i))
		n.SetPosition(randomVec3(rng, 10))
		n.SetRotation(mgl32.QuatRotate(rng.Float32()*mgl32.DegToRad(360), mgl32.Vec3{0, 1, 0}))

		depth := 1
		if len(parents) > 0 && rng.Intn(8) != 0 {
			p := parents[rng.Intn(len(parents))]
			f.nodes[p].AddChild(n)
			depth = depths[p] + 1
		}
		f.add(n)
		depths = append(depths, depth)
		if depth < cfg.Depth {
			parents = append(parents, i)
		}
	}

	if cfg.Joints > 0 && len(f.nodes) >= cfg.Joints {
		for i := 0; i < cfg.Skins; i++ {
			if addSkin(world, nodes, skins, rng, f, cfg.Joints) {
				f.skins++
			}
		}
	}
	return f
}

// addSkin creates a skin resource, a mesh with per joint bounds and an
// instance node driven by random joints from the forest.
func addSkin(world *ecs.World, nodes *scene.NodeSystem, skins *scene.SkinningSystem, rng *rand.Rand, f *forest, jointCount int) bool {
	joints := make([]ecs.Entity, jointCount)
	ibm := make([]mgl32.Mat4, jointCount)
	bounds := make([]scene.Aabb, jointCount)
	for j := range joints {
		joint := f.pick(rng)
		if joint == nil {
			return false
		}
		joints[j] = joint.Entity()
		ibm[j] = mgl32.Translate3D(randomVec3(rng, 1).Elem())
		bounds[j] = scene.Aabb{Min: mgl32.Vec3{-0.5, -0.5, -0.5}, Max: mgl32.Vec3{0.5, 0.5, 0.5}}
	}

	skin := world.CreateEntity()
	ecs.Table[scene.SkinIbmComponent](world).Create(skin, scene.SkinIbmComponent{Matrices: ibm})
	mesh := world.CreateEntity()
	ecs.Table[scene.MeshComponent](world).Create(mesh, scene.MeshComponent{JointBounds: bounds})

	instance := nodes.CreateNode()
	instance.SetName("skin")
	ecs.Table[scene.RenderMeshComponent](world).Create(instance.Entity(), scene.RenderMeshComponent{Mesh: mesh})
	return skins.CreateInstance(skin, joints, instance.Entity(), ecs.Root) == nil
}
