package mechanism

import (
	"fmt"
	"strings"
)

// Component selects a part of the assembly: the bedframe or a link by index.
type Component int

const ComponentBedframe Component = -1

func LinkComponent(i int) Component { return Component(i) }

type Field int

const (
	FieldX Field = iota
	FieldY
	FieldAngle
	FieldLength
	FieldAttachX
	FieldAttachY
)

var fieldNames = map[Field]string{
	FieldX:       "x",
	FieldY:       "y",
	FieldAngle:   "angle",
	FieldLength:  "length",
	FieldAttachX: "attach_x",
	FieldAttachY: "attach_y",
}

func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// Param is a typed handle on one scalar of the assembly. Get and Set
// resolve it with a closed switch, so an unsupported pair is an error
// rather than a silent no-op.
type Param struct {
	Component Component
	Field     Field
}

func (m *Murphy) link(c Component) (*Link, error) {
	if c < 0 || int(c) >= len(m.Links) {
		return nil, fmt.Errorf("%w: component %d", ErrUnknownParam, c)
	}
	return &m.Links[c], nil
}

func (m *Murphy) Get(p Param) (float64, error) {
	if p.Component == ComponentBedframe {
		switch p.Field {
		case FieldX:
			return m.Bed.X, nil
		case FieldY:
			return m.Bed.Y, nil
		case FieldAngle:
			return m.Bed.Angle, nil
		}
		return 0, fmt.Errorf("%w: bedframe.%s", ErrUnknownParam, p.Field)
	}
	l, err := m.link(p.Component)
	if err != nil {
		return 0, err
	}
	switch p.Field {
	case FieldX:
		return l.Pivot.X, nil
	case FieldY:
		return l.Pivot.Y, nil
	case FieldAngle:
		return l.Angle, nil
	case FieldLength:
		return l.Length, nil
	case FieldAttachX:
		if l.Attached {
			return l.Attachment.X, nil
		}
	case FieldAttachY:
		if l.Attached {
			return l.Attachment.Y, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownParam, m.Label(p))
}

func (m *Murphy) Set(p Param, v float64) error {
	if p.Component == ComponentBedframe {
		switch p.Field {
		case FieldX:
			m.Bed.X = v
			return nil
		case FieldY:
			m.Bed.Y = v
			return nil
		case FieldAngle:
			m.Bed.Angle = v
			return nil
		}
		return fmt.Errorf("%w: bedframe.%s", ErrUnknownParam, p.Field)
	}
	l, err := m.link(p.Component)
	if err != nil {
		return err
	}
	switch p.Field {
	case FieldX:
		l.Pivot.X = v
		return nil
	case FieldY:
		l.Pivot.Y = v
		return nil
	case FieldAngle:
		l.Angle = v
		return nil
	case FieldLength:
		l.Length = v
		return nil
	case FieldAttachX:
		if l.Attached {
			l.Attachment.X = v
			return nil
		}
	case FieldAttachY:
		if l.Attached {
			l.Attachment.Y = v
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownParam, m.Label(p))
}

// Label names p the way config files and logs spell it, e.g. "A.length".
func (m *Murphy) Label(p Param) string {
	if p.Component == ComponentBedframe {
		return "bedframe." + p.Field.String()
	}
	if p.Component >= 0 && int(p.Component) < len(m.Links) {
		return m.Links[p.Component].Name + "." + p.Field.String()
	}
	return fmt.Sprintf("link%d.%s", int(p.Component), p.Field)
}

// ParseParam is the inverse of Label.
func (m *Murphy) ParseParam(s string) (Param, error) {
	comp, field, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok {
		return Param{}, fmt.Errorf("%w: %q (want component.field)", ErrUnknownParam, s)
	}
	var p Param
	found := false
	for f, name := range fieldNames {
		if name == field {
			p.Field, found = f, true
			break
		}
	}
	if !found {
		return Param{}, fmt.Errorf("%w: unknown field in %q", ErrUnknownParam, s)
	}
	if comp == "bedframe" {
		p.Component = ComponentBedframe
	} else {
		i := m.LinkIndex(comp)
		if i < 0 {
			return Param{}, fmt.Errorf("%w: unknown component in %q", ErrUnknownParam, s)
		}
		p.Component = LinkComponent(i)
	}
	if _, err := m.Get(p); err != nil {
		return Param{}, err
	}
	return p, nil
}

// PoseParams are the free variables of the assembly solver, in the order
// it visits them: each link's angle, then the bedframe position.
func (m *Murphy) PoseParams() []Param {
	params := make([]Param, 0, len(m.Links)+2)
	for i := range m.Links {
		params = append(params, Param{Component: LinkComponent(i), Field: FieldAngle})
	}
	return append(params,
		Param{Component: ComponentBedframe, Field: FieldX},
		Param{Component: ComponentBedframe, Field: FieldY},
	)
}

// DesignMenu lists the structural parameters the outer search may tune.
func (m *Murphy) DesignMenu() []Param {
	var params []Param
	for i, l := range m.Links {
		c := LinkComponent(i)
		params = append(params,
			Param{Component: c, Field: FieldX},
			Param{Component: c, Field: FieldY},
			Param{Component: c, Field: FieldLength},
		)
		if l.Attached {
			params = append(params,
				Param{Component: c, Field: FieldAttachX},
				Param{Component: c, Field: FieldAttachY},
			)
		}
	}
	return params
}

// IsPose reports whether p is moved by the assembly solver rather than
// being part of the design.
func (p Param) IsPose() bool {
	return p.Field == FieldAngle || (p.Component == ComponentBedframe && (p.Field == FieldX || p.Field == FieldY))
}
