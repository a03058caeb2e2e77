package runtime

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/risor-io/risor/object"
)

// makeBasenameFn creates the "basename" host function.
//
// basename(path) → string
func makeBasenameFn() *object.Builtin {
	return object.NewBuiltin("basename", func(ctx context.Context, args ...object.Object) object.Object {
		path, errObj := singleString("basename", args)
		if errObj != nil {
			return errObj
		}
		return object.NewString(filepath.Base(path))
	})
}

// makeDirnameFn creates the "dirname" host function.
//
// dirname(path) → string
func makeDirnameFn() *object.Builtin {
	return object.NewBuiltin("dirname", func(ctx context.Context, args ...object.Object) object.Object {
		path, errObj := singleString("dirname", args)
		if errObj != nil {
			return errObj
		}
		return object.NewString(filepath.Dir(path))
	})
}

// makeGlobFn creates the "glob" host function, a doublestar match.
//
// glob(pattern, path) → bool
func makeGlobFn() *object.Builtin {
	return object.NewBuiltin("glob", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("glob", 2, len(args))
		}
		pattern, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("glob: pattern must be a string, got %s", args[0].Type())
		}
		path, ok := args[1].(*object.String)
		if !ok {
			return object.Errorf("glob: path must be a string, got %s", args[1].Type())
		}
		matched, err := doublestar.Match(pattern.Value(), filepath.ToSlash(path.Value()))
		if err != nil {
			return object.Errorf("glob: %v", err)
		}
		return object.NewBool(matched)
	})
}

func singleString(name string, args []object.Object) (string, *object.Error) {
	if len(args) != 1 {
		return "", object.NewArgsError(name, 1, len(args))
	}
	s, ok := args[0].(*object.String)
	if !ok {
		return "", object.Errorf("%s: argument must be a string, got %s", name, args[0].Type())
	}
	return s.Value(), nil
}

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Info(msg string) {
	l.logger.Info(msg, "origin", "script")
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn(msg, "origin", "script")
}

func (l *logObject) Error(msg string) {
	l.logger.Error(msg, "origin", "script")
}
