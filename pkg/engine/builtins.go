package engine

import (
	"fmt"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/meshkit/pkg/editor"
	"github.com/chazu/meshkit/pkg/mesh"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms editing-script source before passing it
// to zygomys. Two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal),
//     so keywords need no global symbol registration.
//
//  2. Kebab-case to underscore: snap-to-grid -> snap_to_grid, since
//     zygomys reads a hyphen inside an identifier as subtraction.
//
// Classic Lisp ; comments become // comments. All transformations
// respect string literal boundaries.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Copy double-quoted string literals untouched.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Copy backtick-quoted string literals untouched.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// ; line comments become // for zygomys.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// :keyword -> "__kw_keyword". := stays an assignment.
		if b[i] == ':' && i+1 < len(b) {
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Hyphen between identifier characters is part of a
		// kebab-case name, not a minus.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isLetter(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string. Returns the
// keyword name without the prefix.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword
// argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp,
// handling both preprocessed keywords (__kw_flat) and plain strings
// ("flat").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

func toVec3Args(args []zygo.Sexp) (v3.Vec, error) {
	if len(args) != 3 {
		return v3.Vec{}, fmt.Errorf("expected 3 numbers, got %d arguments", len(args))
	}
	var out [3]float64
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return v3.Vec{}, fmt.Errorf("argument %d: %w", i+1, err)
		}
		out[i] = f
	}
	return v3.Vec{X: out[0], Y: out[1], Z: out[2]}, nil
}

func toSelectionMode(s zygo.Sexp) (editor.SelectionMode, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, fmt.Errorf("expected mode keyword (:replace, :add, :subtract, :toggle): %w", err)
	}
	switch name {
	case "replace":
		return editor.SelectionReplace, nil
	case "add":
		return editor.SelectionAdd, nil
	case "subtract":
		return editor.SelectionSubtract, nil
	case "toggle":
		return editor.SelectionToggle, nil
	}
	return 0, fmt.Errorf("invalid selection mode %q", name)
}

func toNormalMode(s zygo.Sexp) (editor.NormalMode, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, fmt.Errorf("expected normal mode keyword (:flat, :smooth, :weighted): %w", err)
	}
	switch name {
	case "flat":
		return editor.NormalFlat, nil
	case "smooth":
		return editor.NormalSmooth, nil
	case "weighted":
		return editor.NormalWeightedSmooth, nil
	}
	return 0, fmt.Errorf("invalid normal mode %q", name)
}

// ---------------------------------------------------------------------------
// Editing session
// ---------------------------------------------------------------------------

// session holds the working mesh between builtin calls. Vertex ops run
// against a persistent vertex editor so selection carries across
// calls; triangle and normal ops borrow the mesh through their own
// editor and hand it back, re-selecting the surviving vertices.
type session struct {
	ve *editor.VertexEditor
}

func newSession(m *mesh.Mesh) *session {
	return &session{ve: editor.NewVertex(m)}
}

func (s *session) finish() *mesh.Mesh {
	return s.ve.Finish()
}

func (s *session) withIndexEditor(fn func(*editor.IndexEditor) error) error {
	sel := s.ve.SelectedIndices()
	ie := editor.NewIndex(s.ve.Finish())
	err := fn(ie)
	s.ve = editor.NewVertex(ie.Finish())
	for _, i := range sel {
		s.ve.Select(i, editor.SelectionAdd)
	}
	return err
}

func (s *session) withNormalEditor(fn func(*editor.NormalEditor) error) error {
	sel := s.ve.SelectedIndices()
	ne := editor.NewNormal(s.ve.Finish())
	err := fn(ne)
	s.ve = editor.NewVertex(ne.Finish())
	for _, i := range sel {
		s.ve.Select(i, editor.SelectionAdd)
	}
	return err
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the mesh editing builtins into a zygomys
// environment. Source must have gone through preprocessSource so that
// :keyword tokens arrive as recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, sess *session) {

	// (select-all)
	env.AddFunction("select_all", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		sess.ve.SelectAll()
		return &zygo.SexpInt{Val: int64(sess.ve.SelectionCount())}, nil
	})

	// (clear-selection)
	env.AddFunction("clear_selection", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		sess.ve.ClearSelection()
		return zygo.SexpNull, nil
	})

	// (invert-selection)
	env.AddFunction("invert_selection", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		sess.ve.InvertSelection()
		return &zygo.SexpInt{Val: int64(sess.ve.SelectionCount())}, nil
	})

	// (select 3)  (select 3 :mode :add)
	env.AddFunction("select", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("select requires a vertex index")
		}
		mode := editor.SelectionReplace
		if v, ok := pa.kw["mode"]; ok {
			m, err := toSelectionMode(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("select: mode: %w", err)
			}
			mode = m
		}
		for n, p := range pa.positional {
			i, err := toInt(p)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("select: index %d: %w", n+1, err)
			}
			if !sess.ve.Select(i, mode) {
				return zygo.SexpNull, fmt.Errorf("select: vertex %d out of range", i)
			}
			// Only the first index replaces; the rest accumulate.
			if mode == editor.SelectionReplace {
				mode = editor.SelectionAdd
			}
		}
		return &zygo.SexpInt{Val: int64(sess.ve.SelectionCount())}, nil
	})

	// (translate 1 0 0)
	env.AddFunction("translate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		offset, err := toVec3Args(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: %w", err)
		}
		sess.ve.Translate(offset)
		return zygo.SexpNull, nil
	})

	// (scale 2 2 2)
	env.AddFunction("scale", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		factors, err := toVec3Args(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scale: %w", err)
		}
		sess.ve.Scale(factors)
		return zygo.SexpNull, nil
	})

	// (snap-to-grid 0.5)
	env.AddFunction("snap_to_grid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("snap-to-grid requires a cell size")
		}
		cell, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("snap-to-grid: %w", err)
		}
		if !sess.ve.SnapToGrid(cell) {
			return zygo.SexpNull, fmt.Errorf("snap-to-grid: cell size must be positive, got %g", cell)
		}
		return zygo.SexpNull, nil
	})

	// (delete-selected)
	env.AddFunction("delete_selected", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		removed := sess.ve.DeleteSelected()
		return &zygo.SexpInt{Val: int64(removed)}, nil
	})

	// (merge 0.001)
	env.AddFunction("merge", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("merge requires a distance threshold")
		}
		threshold, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("merge: %w", err)
		}
		removed := sess.ve.MergeSelected(threshold)
		return &zygo.SexpInt{Val: int64(removed)}, nil
	})

	// (flip-winding)
	env.AddFunction("flip_winding", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		err := sess.withIndexEditor(func(ie *editor.IndexEditor) error {
			ie.FlipAll()
			return nil
		})
		return zygo.SexpNull, err
	})

	// (remove-degenerate)
	env.AddFunction("remove_degenerate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		removed := 0
		err := sess.withIndexEditor(func(ie *editor.IndexEditor) error {
			removed = ie.RemoveDegenerate()
			return nil
		})
		if err != nil {
			return zygo.SexpNull, err
		}
		return &zygo.SexpInt{Val: int64(removed)}, nil
	})

	// (normals :flat)  (normals :smooth)  (normals :weighted)
	env.AddFunction("normals", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("normals requires a mode keyword")
		}
		mode, err := toNormalMode(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("normals: %w", err)
		}
		err = sess.withNormalEditor(func(ne *editor.NormalEditor) error {
			return ne.Calculate(mode)
		})
		return zygo.SexpNull, err
	})

	// (normalize-all)
	env.AddFunction("normalize_all", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		err := sess.withNormalEditor(func(ne *editor.NormalEditor) error {
			ne.NormalizeAll()
			return nil
		})
		return zygo.SexpNull, err
	})

	// (flip-normals)
	env.AddFunction("flip_normals", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		err := sess.withNormalEditor(func(ne *editor.NormalEditor) error {
			ne.FlipAll()
			return nil
		})
		return zygo.SexpNull, err
	})
}
