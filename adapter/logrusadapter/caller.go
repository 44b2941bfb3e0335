package logrusadapter

import (
	"runtime"
	"strings"
	"sync"
)

var (
	facadeModule   string
	callerInitOnce sync.Once
)

const (
	maximumCallerDepth int = 25
	minimumCallerDepth int = 3
	adapterPackageTail     = "/adapter/logrusadapter"
)

// getCaller returns the first frame outside of this module, skipping the
// logger dispatch and adapter frames between the call site and logrus.
func getCaller() *runtime.Frame {
	callerInitOnce.Do(func() {
		pcs := make([]uintptr, maximumCallerDepth)
		n := runtime.Callers(0, pcs)
		frames := runtime.CallersFrames(pcs[:n])
		for f, again := frames.Next(); again; f, again = frames.Next() {
			if strings.Contains(f.Function, "getCaller") {
				facadeModule = strings.TrimSuffix(getPackageName(f.Function), adapterPackageTail)
				break
			}
		}
	})

	pcs := make([]uintptr, maximumCallerDepth)
	depth := runtime.Callers(minimumCallerDepth, pcs)
	frames := runtime.CallersFrames(pcs[:depth])

	for f, again := frames.Next(); again; f, again = frames.Next() {
		if !inFacade(getPackageName(f.Function)) {
			return &f //nolint:scopelint
		}
	}
	return nil
}

func inFacade(pkg string) bool {
	if facadeModule == "" || strings.HasSuffix(pkg, "_test") {
		return false
	}
	return pkg == facadeModule || strings.HasPrefix(pkg, facadeModule+"/")
}

// getPackageName reduces a fully qualified function name to the package name
func getPackageName(f string) string {
	for {
		lastPeriod := strings.LastIndex(f, ".")
		lastSlash := strings.LastIndex(f, "/")
		if lastPeriod > lastSlash {
			f = f[:lastPeriod]
		} else {
			break
		}
	}

	return f
}
