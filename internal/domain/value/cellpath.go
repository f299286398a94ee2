package value

import (
	"fmt"

	"github.com/glint-shell/glint/internal/domain/source"
)

// ErrColumnNotFound is returned by Follow when a required string member has
// no matching Record key (spec §4.1 step 2, §8.2 scenario 4). Callers at
// the eval layer translate this into a *errors.ShellError with the
// "column_not_found" diagnostic code; kept as a plain sentinel here so the
// value package has no dependency on the error-rendering package.
type ErrColumnNotFound struct {
	Column string
}

func (e *ErrColumnNotFound) Error() string { return fmt.Sprintf("column not found: %s", e.Column) }

// ErrIndexOutOfBounds is returned by Follow when an integer member indexes
// past the end of a List.
type ErrIndexOutOfBounds struct {
	Index, Length int
}

func (e *ErrIndexOutOfBounds) Error() string {
	return fmt.Sprintf("index %d out of bounds (length %d)", e.Index, e.Length)
}

// ErrCellPathTypeMismatch is returned when a path member cannot apply to
// the current value's Kind (e.g. a string key against a List).
type ErrCellPathTypeMismatch struct {
	Member PathMember
	Got    Kind
}

func (e *ErrCellPathTypeMismatch) Error() string {
	return fmt.Sprintf("type mismatch: cannot apply cell-path member to %s", e.Got)
}

// Follow applies a cell-path (spec §4.1 "Cell-path application") over v,
// returning the final current value. Optional misses on a Record yield
// Nothing rather than failing.
func Follow(v Value, members []PathMember) (Value, error) {
	current := v
	for _, m := range members {
		next, err := followOne(current, m)
		if err != nil {
			return Value{}, err
		}
		current = next
	}
	return current, nil
}

func followOne(current Value, m PathMember) (Value, error) {
	switch {
	case m.IsString && current.Kind == KindRecord:
		val, ok := current.recordVal.Get(m.String)
		if !ok {
			if m.Optional {
				return Nothing(current.Span), nil
			}
			return Value{}, &ErrColumnNotFound{Column: m.String}
		}
		return val, nil

	case m.IsString && current.Kind == KindCustom:
		if capable, ok := current.customVal.(CellPathCapable); ok {
			return capable.FollowCellPath(m)
		}
		return Value{}, &ErrCellPathTypeMismatch{Member: m, Got: current.Kind}

	case !m.IsString && current.Kind == KindList:
		list := current.listVal
		idx := m.Int
		if idx < 0 || idx >= len(list) {
			if m.Optional {
				return Nothing(current.Span), nil
			}
			return Value{}, &ErrIndexOutOfBounds{Index: idx, Length: len(list)}
		}
		return list[idx], nil

	case !m.IsString && current.Kind == KindCustom:
		if capable, ok := current.customVal.(CellPathCapable); ok {
			return capable.FollowCellPath(m)
		}
		return Value{}, &ErrCellPathTypeMismatch{Member: m, Got: current.Kind}

	default:
		if m.Optional {
			return Nothing(current.Span), nil
		}
		return Value{}, &ErrCellPathTypeMismatch{Member: m, Got: current.Kind}
	}
}

// Update performs a persistent cell-path update (spec §4.1 "Cell-path
// update"): records and lists are cloned along the path so the original
// value is unaffected.
func Update(v Value, members []PathMember, newVal Value) (Value, error) {
	if len(members) == 0 {
		return newVal, nil
	}
	head, rest := members[0], members[1:]

	switch {
	case head.IsString && v.Kind == KindRecord:
		clone := v.recordVal.Clone()
		existing, ok := clone.Get(head.String)
		if !ok {
			if len(rest) > 0 {
				return Value{}, &ErrColumnNotFound{Column: head.String}
			}
			clone.Set(head.String, newVal)
			return RecordVal(clone, v.Span), nil
		}
		updated, err := Update(existing, rest, newVal)
		if err != nil {
			return Value{}, err
		}
		clone.Set(head.String, updated)
		return RecordVal(clone, v.Span), nil

	case !head.IsString && v.Kind == KindList:
		if head.Int < 0 || head.Int >= len(v.listVal) {
			return Value{}, &ErrIndexOutOfBounds{Index: head.Int, Length: len(v.listVal)}
		}
		clone := append([]Value(nil), v.listVal...)
		updated, err := Update(clone[head.Int], rest, newVal)
		if err != nil {
			return Value{}, err
		}
		clone[head.Int] = updated
		return List(clone, v.Span), nil

	default:
		return Value{}, &ErrCellPathTypeMismatch{Member: head, Got: v.Kind}
	}
}

// BuildCellPath is a convenience constructor used by the parser/evaluator
// when producing a CellPath Value from parsed path syntax.
func BuildCellPath(members []PathMember, sp source.Span) Value {
	return CellPath(members, sp)
}
