package referenceframe

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/airside-sim/tugscan/spatialmath"
)

// JointType is the URDF joint type.
type JointType string

// The supported joint types.
const (
	FixedJoint      JointType = "fixed"
	RevoluteJoint   JointType = "revolute"
	ContinuousJoint JointType = "continuous"
	PrismaticJoint  JointType = "prismatic"
)

// Joint connects a parent link to a child link. Origin places the child frame in the parent
// frame when the joint value is zero.
type Joint struct {
	Name    string
	Type    JointType
	Parent  string
	Child   string
	Origin  spatialmath.Transform
	Axis    r3.Vector
	Limited bool
	Min     float64 // radians for rotating joints, meters for prismatic ones
	Max     float64
}

// Movable reports whether the joint takes an input value.
func (j *Joint) Movable() bool {
	return j.Type != FixedJoint
}

// motion returns the joint's own transform for value q, applied after Origin.
func (j *Joint) motion(q float64) spatialmath.Transform {
	switch j.Type {
	case RevoluteJoint, ContinuousJoint:
		return spatialmath.NewTransformFromAxisAngle(r3.Vector{}, j.Axis, q)
	case PrismaticJoint:
		if n := j.Axis.Norm(); n > 0 {
			return spatialmath.NewTranslation(j.Axis.Mul(q / n))
		}
	case FixedJoint:
	}
	return spatialmath.NewIdentityTransform()
}

// Inputs maps joint names to joint values. Joints left out are at zero.
type Inputs map[string]float64

// Model is a tree of links connected by joints, rooted at a single link.
type Model struct {
	name     string
	root     string
	links    []string
	joints   []Joint
	children map[string][]int // link name -> indices into joints
}

// NewModel validates the link tree and returns a Model. Every joint must connect declared
// links, no link may have two parents, and exactly one link may be parentless.
func NewModel(name string, links []string, joints []Joint) (*Model, error) {
	declared := make(map[string]bool, len(links))
	for _, l := range links {
		if declared[l] {
			return nil, errors.Errorf("link %q is declared twice", l)
		}
		declared[l] = true
	}

	m := &Model{
		name:     name,
		links:    append([]string(nil), links...),
		joints:   append([]Joint(nil), joints...),
		children: map[string][]int{},
	}
	parentOf := map[string]string{}
	jointNames := map[string]bool{}
	for i, j := range m.joints {
		if jointNames[j.Name] {
			return nil, errors.Errorf("joint %q is declared twice", j.Name)
		}
		jointNames[j.Name] = true
		if !declared[j.Parent] {
			return nil, NewFrameNotInListOfTransformsError(j.Parent)
		}
		if !declared[j.Child] {
			return nil, NewFrameNotInListOfTransformsError(j.Child)
		}
		if p, ok := parentOf[j.Child]; ok {
			return nil, errors.Errorf("link %q has two parents, %q and %q", j.Child, p, j.Parent)
		}
		parentOf[j.Child] = j.Parent
		m.children[j.Parent] = append(m.children[j.Parent], i)
	}

	roots := lo.Filter(m.links, func(l string, _ int) bool {
		_, hasParent := parentOf[l]
		return !hasParent
	})
	switch len(roots) {
	case 0:
		return nil, errors.New("kinematic tree has no root link, joints form a cycle")
	case 1:
		m.root = roots[0]
	default:
		return nil, errors.Errorf("kinematic tree has %d root links %v, expected one", len(roots), roots)
	}

	// with one root and one parent per link, every link is reachable unless a cycle hangs off the tree
	reached := 0
	m.walk(func(string, spatialmath.Transform) { reached++ }, nil)
	if reached != len(m.links) {
		return nil, errors.New("kinematic tree contains a cycle")
	}
	return m, nil
}

// Name returns the name of this model.
func (m *Model) Name() string {
	return m.name
}

// Root returns the name of the root link.
func (m *Model) Root() string {
	return m.root
}

// Links returns the link names in declaration order.
func (m *Model) Links() []string {
	return append([]string(nil), m.links...)
}

// Joints returns a copy of the joints.
func (m *Model) Joints() []Joint {
	return append([]Joint(nil), m.joints...)
}

// DoF returns the names of the joints that take an input.
func (m *Model) DoF() []string {
	var out []string
	for i := range m.joints {
		if m.joints[i].Movable() {
			out = append(out, m.joints[i].Name)
		}
	}
	return out
}

// ValidInputs checks that every input names a movable joint and respects its limits.
func (m *Model) ValidInputs(cfg Inputs) error {
	byName := lo.SliceToMap(m.joints, func(j Joint) (string, Joint) { return j.Name, j })
	for name, q := range cfg {
		j, ok := byName[name]
		if !ok {
			return errors.Errorf("input for unknown joint %q", name)
		}
		if !j.Movable() {
			return errors.Errorf("input for fixed joint %q", name)
		}
		if j.Limited && (q < j.Min || q > j.Max) {
			return NewOutOfLimitsError(name, q, j.Min, j.Max)
		}
	}
	return nil
}

// LinkPoses runs forward kinematics and returns the pose of every link relative to the root link.
func (m *Model) LinkPoses(cfg Inputs) (map[string]spatialmath.Transform, error) {
	if err := m.ValidInputs(cfg); err != nil {
		return nil, err
	}
	poses := make(map[string]spatialmath.Transform, len(m.links))
	m.walk(func(link string, tf spatialmath.Transform) { poses[link] = tf }, cfg)
	return poses, nil
}

// walk visits every link reachable from the root, parents before children.
func (m *Model) walk(visit func(link string, tf spatialmath.Transform), cfg Inputs) {
	type item struct {
		link string
		tf   spatialmath.Transform
	}
	queue := []item{{m.root, spatialmath.NewIdentityTransform()}}
	seen := map[string]bool{}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur.link] {
			continue
		}
		seen[cur.link] = true
		visit(cur.link, cur.tf)
		for _, idx := range m.children[cur.link] {
			j := &m.joints[idx]
			local := spatialmath.Compose(j.Origin, j.motion(cfg[j.Name]))
			queue = append(queue, item{j.Child, spatialmath.Compose(cur.tf, local)})
		}
	}
}
