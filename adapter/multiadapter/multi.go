// Package multiadapter fans each level method out to several extensions.
package multiadapter

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/FimGroup/anylogging"
)

// Combine returns an extension that writes every call to each of exts, in
// order. A logger is enabled for a level when any backend is. Every backend
// runs even when one panics; the panic is raised again afterwards, as a
// *multierror.Error when several backends failed.
func Combine(exts ...logging.Extension) logging.Extension {
	return func(r *logging.Registry, l *logging.Logger) *logging.Logger {
		backends := make([]*logging.Logger, 0, len(exts))
		for _, ext := range exts {
			if ext == nil {
				continue
			}
			scratch, err := logging.NewLogFunction(l.Name(), l.Config(), func(string, ...interface{}) {})
			if err != nil {
				panic(err)
			}
			if b := ext(r, scratch); b != nil {
				backends = append(backends, b)
			}
		}

		enabledFor := func(level ...string) bool {
			for _, b := range backends {
				if b.EnabledFor(level...) {
					return true
				}
			}
			return false
		}

		names := r.Levels().Names()
		methods := make(map[string]logging.LevelFunc, len(names))
		for _, level := range names {
			var fns []logging.LevelFunc
			for _, b := range backends {
				if fn, ok := b.Method(level); ok {
					fns = append(fns, fn)
				}
			}
			methods[level] = fanOut(fns)
		}
		l.Bind(methods, enabledFor)
		return l
	}
}

func fanOut(fns []logging.LevelFunc) logging.LevelFunc {
	return func(args ...interface{}) {
		var panics []interface{}
		for _, fn := range fns {
			if p := call(fn, args); p != nil {
				panics = append(panics, p)
			}
		}
		switch len(panics) {
		case 0:
		case 1:
			panic(panics[0])
		default:
			var merr *multierror.Error
			for _, p := range panics {
				if err, ok := p.(error); ok {
					merr = multierror.Append(merr, err)
				} else {
					merr = multierror.Append(merr, fmt.Errorf("%v", p))
				}
			}
			panic(merr)
		}
	}
}

func call(fn logging.LevelFunc, args []interface{}) (p interface{}) {
	defer func() {
		p = recover()
	}()
	fn(args...)
	return nil
}
