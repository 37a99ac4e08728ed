// Package engine provides the Lisp batch-editing engine for meshkit.
// It wraps zygomys in a sandboxed environment whose builtins drive the
// editor sessions against a working copy of a mesh.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/meshkit/pkg/mesh"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine evaluates editing scripts against meshes. It is safe for
// concurrent use; each call to Apply creates a fresh sandboxed
// environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
}

// New creates an Engine.
func New() *Engine {
	return &Engine{}
}

// Apply runs an editing script against a copy of m and returns the
// edited mesh. The input mesh is never mutated.
//
// Return semantics:
//   - On success: edited mesh + nil errors + nil error
//   - On parse/eval failure: nil mesh + eval errors + nil error
//   - On fatal failure (timeout, panic): nil + nil + error
func (e *Engine) Apply(m *mesh.Mesh, source string) (*mesh.Mesh, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		edited, evalErrs, err := e.apply(m, source)
		ch <- evalResult{mesh: edited, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

// apply performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) apply(m *mesh.Mesh, source string) (*mesh.Mesh, []EvalError, error) {
	if m == nil {
		m = mesh.New()
	}
	// An empty script is a valid program that edits nothing.
	if strings.TrimSpace(source) == "" {
		return m.Clone(), nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem
	// or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	sess := newSession(m.Clone())
	registerBuiltins(env, sess)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	return sess.finish(), nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError
// values, extracting line numbers from the message where possible.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}
	if m := linePatternShort.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}

	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
