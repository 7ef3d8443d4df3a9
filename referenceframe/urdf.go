package referenceframe

import (
	"encoding/xml"
	"os"

	"github.com/pkg/errors"
)

// URDFConfig represents all supported fields in a Universal Robot Description Format (URDF) file.
type URDFConfig struct {
	XMLName xml.Name    `xml:"robot"`
	Name    string      `xml:"name,attr"`
	Links   []URDFLink  `xml:"link"`
	Joints  []URDFJoint `xml:"joint"`
}

// URDFLink is a struct which details the XML used in a URDF link element.
type URDFLink struct {
	XMLName xml.Name `xml:"link"`
	Name    string   `xml:"name,attr"`
}

// URDFJoint is a struct which details the XML used in a URDF joint element.
type URDFJoint struct {
	XMLName xml.Name `xml:"joint"`
	Name    string   `xml:"name,attr"`
	Type    string   `xml:"type,attr"`
	Parent  frame    `xml:"parent"`
	Child   frame    `xml:"child"`
	Origin  *pose    `xml:"origin,omitempty"`
	Axis    *axis    `xml:"axis,omitempty"`
	Limit   *limit   `xml:"limit,omitempty"`
}

// ParseURDFFile will read a given file and parse the contained URDF XML data into a Model.
// An empty modelName keeps the robot's own name.
func ParseURDFFile(filename, modelName string) (*Model, error) {
	//nolint:gosec
	xmlData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read URDF file")
	}
	m, err := UnmarshalURDF(xmlData, modelName)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %q", filename)
	}
	return m, nil
}

// UnmarshalURDF converts URDF XML data into a Model.
func UnmarshalURDF(xmlData []byte, modelName string) (*Model, error) {
	// empty data probably means that the read URDF has no actionable information
	if len(xmlData) == 0 {
		return nil, ErrNoModelInformation
	}

	urdf := &URDFConfig{}
	if err := xml.Unmarshal(xmlData, urdf); err != nil {
		return nil, errors.Wrap(err, "failed to convert URDF data to equivalent URDFConfig struct")
	}
	if len(urdf.Links) == 0 {
		return nil, ErrNoModelInformation
	}
	if modelName == "" {
		modelName = urdf.Name
	}

	links := make([]string, 0, len(urdf.Links))
	for _, l := range urdf.Links {
		links = append(links, l.Name)
	}

	joints := make([]Joint, 0, len(urdf.Joints))
	for _, jointElem := range urdf.Joints {
		origin, err := jointElem.Origin.Parse()
		if err != nil {
			return nil, errors.Wrapf(err, "joint %q origin", jointElem.Name)
		}
		j := Joint{
			Name:   jointElem.Name,
			Type:   JointType(jointElem.Type),
			Parent: jointElem.Parent.Link,
			Child:  jointElem.Child.Link,
			Origin: origin,
		}

		switch j.Type {
		case FixedJoint:
		case ContinuousJoint:
			if j.Axis, err = jointElem.Axis.Parse(); err != nil {
				return nil, errors.Wrapf(err, "joint %q axis", jointElem.Name)
			}
		case RevoluteJoint, PrismaticJoint:
			if j.Axis, err = jointElem.Axis.Parse(); err != nil {
				return nil, errors.Wrapf(err, "joint %q axis", jointElem.Name)
			}
			// revolute and prismatic joints must declare limits in URDF; a missing element is
			// tolerated and leaves the joint unbounded
			if jointElem.Limit != nil {
				j.Limited = true
				j.Min, j.Max = jointElem.Limit.Lower, jointElem.Limit.Upper
			}
		default:
			return nil, NewUnsupportedJointTypeError(jointElem.Type)
		}
		joints = append(joints, j)
	}

	return NewModel(modelName, links, joints)
}
