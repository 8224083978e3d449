package tilemap

import (
	"fmt"
	"strconv"

	"github.com/milk9111/mapworld/common"
)

// Kind identifies which field of a Value is populated.
type Kind int

const (
	KindNumber Kind = iota + 1
	KindString
	KindPoints
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindPoints:
		return "points"
	default:
		return "invalid"
	}
}

// Value is a single map property: a number, a string or a point list.
// The zero Value is invalid.
type Value struct {
	kind Kind
	num  float64
	str  string
	pts  []common.Vec2
}

func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Points copies pts into a point-list value.
func Points(pts []common.Vec2) Value {
	cp := make([]common.Vec2, len(pts))
	copy(cp, pts)
	return Value{kind: KindPoints, pts: cp}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) Valid() bool {
	return v.kind != 0
}

func (v Value) AsNumber() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsPoints returns the point list. The slice is shared; callers must not modify it.
func (v Value) AsPoints() ([]common.Vec2, bool) {
	if v.kind != KindPoints {
		return nil, false
	}
	return v.pts, true
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindString:
		return v.str
	case KindPoints:
		return fmt.Sprintf("%v", v.pts)
	default:
		return "<invalid>"
	}
}

// Equal reports whether both values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindString:
		return v.str == o.str
	case KindPoints:
		if len(v.pts) != len(o.pts) {
			return false
		}
		for i := range v.pts {
			if v.pts[i] != o.pts[i] {
				return false
			}
		}
		return true
	}
	return true
}

// Properties is a raw property bag keyed by property name.
type Properties map[string]Value

// Clone returns a shallow copy. Point slices are shared since Values never mutate them.
func (p Properties) Clone() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
