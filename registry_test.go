package logging_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"github.com/FimGroup/anylogging"
)

type call struct {
	Level string
	Args  []interface{}
}

type recorder struct {
	lock  sync.Mutex
	calls []call
}

func (rec *recorder) extension(r *logging.Registry, l *logging.Logger) *logging.Logger {
	methods := make(map[string]logging.LevelFunc)
	for _, level := range r.Levels().Names() {
		level := level
		methods[level] = func(args ...interface{}) {
			rec.lock.Lock()
			rec.calls = append(rec.calls, call{Level: level, Args: args})
			rec.lock.Unlock()
		}
	}
	l.Bind(methods, func(...string) bool { return true })
	return l
}

func (rec *recorder) take() []call {
	rec.lock.Lock()
	defer rec.lock.Unlock()
	c := rec.calls
	rec.calls = nil
	return c
}

func recoverError(t *testing.T, f func()) (err error) {
	t.Helper()
	defer func() {
		p := recover()
		if p == nil {
			t.Fatal("expected panic")
		}
		e, ok := p.(error)
		if !ok {
			t.Fatalf("panic value %v is not an error", p)
		}
		err = e
	}()
	f()
	return nil
}

func TestGetLoggerReturnsSameInstance(t *testing.T) {
	var created, extended int32
	r := logging.New(
		logging.WithFactory(func(r *logging.Registry, name string, cfg logging.Config) (*logging.Logger, error) {
			atomic.AddInt32(&created, 1)
			return logging.DefaultFactory(r, name, cfg)
		}),
		logging.WithExtension(func(r *logging.Registry, l *logging.Logger) *logging.Logger {
			atomic.AddInt32(&extended, 1)
			return logging.NopExtension(r, l)
		}),
	)

	first, err := r.GetLogger("test")
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.GetLogger("test", logging.Config{"level": "info"})
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatal("expected the same logger instance")
	}
	if created != 1 || extended != 1 {
		t.Fatalf("factory ran %d times, extension ran %d times, want 1 and 1", created, extended)
	}
}

func TestNameFidelity(t *testing.T) {
	r := logging.New()
	names := []string{
		"test",
		"toString",
		"constructor",
		"__proto__",
		"hasOwnProperty",
		"module:sub-part",
		"a b/c.d",
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			l, err := r.GetLogger(name)
			if err != nil {
				t.Fatal(err)
			}
			if l.Name() != name {
				t.Errorf("got name %q, want %q", l.Name(), name)
			}
			if got, ok := r.All().Lookup(name); !ok || got != l {
				t.Errorf("logger %q is not registered", name)
			}
		})
	}
	if got := r.All().Len(); got != len(names) {
		t.Errorf("got %d registered loggers, want %d", got, len(names))
	}
}

func TestEmptyName(t *testing.T) {
	r := logging.New()
	if n := r.All().Len(); n != 0 {
		t.Fatalf("fresh registry has %d loggers", n)
	}
	if _, err := r.GetLogger(""); !errors.Is(err, logging.ErrInvalidName) {
		t.Fatalf("got error %v, want %v", err, logging.ErrInvalidName)
	}
	if l := r.Get(""); l != nil {
		t.Fatal("expected nil logger for empty name")
	}
	if n := r.All().Len(); n != 0 {
		t.Fatalf("empty name registered %d loggers", n)
	}
}

func TestAllIsLiveView(t *testing.T) {
	r := logging.New()
	all := r.All()
	r.Get("b")
	r.Get("a")
	if diff := cmp.Diff([]string{"a", "b"}, all.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	var seen []string
	all.Range(func(name string, l *logging.Logger) bool {
		seen = append(seen, l.Name())
		return true
	})
	if diff := cmp.Diff([]string{"a", "b"}, seen); diff != "" {
		t.Fatalf("range mismatch (-want +got):\n%s", diff)
	}
	all.Delete("a")
	if _, ok := all.Lookup("a"); ok {
		t.Fatal("deleted logger still registered")
	}
	r.Reset()
	if all.Len() != 0 {
		t.Fatal("reset left loggers behind")
	}
}

func TestLevelSurface(t *testing.T) {
	l := logging.New().Get("test")
	for _, level := range []string{"error", "warn", "info", "log", "debug", "trace"} {
		if !l.Has(level) {
			t.Errorf("missing level method %q", level)
		}
	}
	if l.EnabledFor("info") {
		t.Error("no-op logger reports enabled")
	}
	l.Call("message")
	l.Call("info", "message")
	l.Error("a")
	l.Warn("a")
	l.Info("a")
	l.Log("a")
	l.Debug("a")
	l.Trace("a")
}

func TestDispatch(t *testing.T) {
	rec := &recorder{}
	r := logging.New(logging.WithExtension(rec.extension))
	l := r.Get("test")

	tests := []struct {
		args []interface{}
		want call
	}{
		{args: []interface{}{"message"}, want: call{Level: "log", Args: []interface{}{"message"}}},
		{args: []interface{}{"error"}, want: call{Level: "log", Args: []interface{}{"error"}}},
		{args: []interface{}{"info", "message"}, want: call{Level: "info", Args: []interface{}{"message"}}},
		{args: []interface{}{"bogus-level", "message"}, want: call{Level: "log", Args: []interface{}{"bogus-level", "message"}}},
		{args: []interface{}{"error", "a", "b"}, want: call{Level: "error", Args: []interface{}{"a", "b"}}},
		{args: []interface{}{"Hello", "World!"}, want: call{Level: "log", Args: []interface{}{"Hello", "World!"}}},
		{args: []interface{}{42, "answer"}, want: call{Level: "log", Args: []interface{}{42, "answer"}}},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprint(tc.args...), func(t *testing.T) {
			l.Call(tc.args...)
			if diff := cmp.Diff([]call{tc.want}, rec.take()); diff != "" {
				t.Errorf("dispatch mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

type levelName string

func (n levelName) String() string {
	return string(n)
}

func TestDispatchStringerLevel(t *testing.T) {
	rec := &recorder{}
	r := logging.New(logging.WithExtension(rec.extension))
	r.Get("test").Call(levelName("warn"), "message")
	want := []call{{Level: "warn", Args: []interface{}{"message"}}}
	if diff := cmp.Diff(want, rec.take()); diff != "" {
		t.Errorf("dispatch mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatchCallsReplacedMethod(t *testing.T) {
	l := logging.New().Get("test")
	methods, enabledFor := l.Bindings()
	called := false
	old := methods["info"]
	methods["info"] = func(args ...interface{}) {
		called = true
		old(args...)
	}
	l.Bind(methods, enabledFor)

	l.Call("info", "message")
	if !called {
		t.Fatal("info method was not called")
	}
}

func TestExtensionReapplied(t *testing.T) {
	rec := &recorder{}
	r := logging.New(logging.WithExtension(rec.extension))
	l := r.Get("test")
	if got := r.Extend(l); got != l {
		t.Fatal("extension returned a different logger")
	}
	r.Extend(l)

	if diff := cmp.Diff(sortedCanonical(), l.Levels()); diff != "" {
		t.Fatalf("levels mismatch (-want +got):\n%s", diff)
	}
	l.Call("warn", "once")
	want := []call{{Level: "warn", Args: []interface{}{"once"}}}
	if diff := cmp.Diff(want, rec.take()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func sortedCanonical() []string {
	return []string{"debug", "error", "info", "log", "trace", "warn"}
}

func TestLevelTableMutation(t *testing.T) {
	rec := &recorder{}
	r := logging.New(logging.WithExtension(rec.extension))
	old := r.Get("old")
	if err := r.Levels().Set("silly", 7); err != nil {
		t.Fatal(err)
	}

	// not re-extended yet
	err := recoverError(t, func() { old.Call("silly", "x") })
	if !errors.Is(err, logging.ErrLevelNotBound) {
		t.Fatalf("got %v, want %v", err, logging.ErrLevelNotBound)
	}

	r.Extend(old)
	fresh := r.Get("fresh")
	for _, l := range []*logging.Logger{old, fresh} {
		if !l.Has("silly") {
			t.Fatalf("logger %s has no silly method", l.Name())
		}
		l.Call("silly", "x")
		l.Invoke("silly", "y")
	}
	want := []call{
		{Level: "silly", Args: []interface{}{"x"}},
		{Level: "silly", Args: []interface{}{"y"}},
		{Level: "silly", Args: []interface{}{"x"}},
		{Level: "silly", Args: []interface{}{"y"}},
	}
	if diff := cmp.Diff(want, rec.take()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestExistingLoggersKeepExtension(t *testing.T) {
	r := logging.New()
	before := r.Get("before")
	rec := &recorder{}
	r.SetExtension(rec.extension)
	after := r.Get("after")

	before.Call("info", "dropped")
	after.Call("info", "kept")
	want := []call{{Level: "info", Args: []interface{}{"kept"}}}
	if diff := cmp.Diff(want, rec.take()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistryIsolation(t *testing.T) {
	r := logging.New()
	a := r.Get("a")
	b := r.Get("b")
	var hits int
	a.Bind(map[string]logging.LevelFunc{"log": func(...interface{}) { hits++ }}, nil)

	b.Call("message")
	if hits != 0 {
		t.Fatal("logger b dispatched to logger a")
	}
	if !b.Has("info") {
		t.Fatal("rebinding logger a changed logger b")
	}
	a.Call("message")
	if hits != 1 {
		t.Fatalf("got %d hits, want 1", hits)
	}
}

func TestDispatchUnregisteredPanics(t *testing.T) {
	r := logging.New()
	l := r.Get("gone")
	r.All().Delete("gone")
	err := recoverError(t, func() { l.Call("message") })
	if !errors.Is(err, logging.ErrNotRegistered) {
		t.Fatalf("got %v, want %v", err, logging.ErrNotRegistered)
	}
}

func TestLevelMethodPanicPropagates(t *testing.T) {
	boom := errors.New("backend down")
	r := logging.New(logging.WithExtension(func(r *logging.Registry, l *logging.Logger) *logging.Logger {
		logging.NopExtension(r, l)
		methods, enabledFor := l.Bindings()
		methods["error"] = func(...interface{}) { panic(boom) }
		l.Bind(methods, enabledFor)
		return l
	}))
	err := recoverError(t, func() { r.Get("test").Call("error", "x") })
	if err != boom {
		t.Fatalf("got %v, want %v", err, boom)
	}
}

func TestExtensionPanicPropagates(t *testing.T) {
	boom := errors.New("extension failed")
	r := logging.New(logging.WithExtension(func(*logging.Registry, *logging.Logger) *logging.Logger {
		panic(boom)
	}))
	err := recoverError(t, func() { r.Get("test") })
	if err != boom {
		t.Fatalf("got %v, want %v", err, boom)
	}
	if r.All().Len() != 0 {
		t.Fatal("failed logger was registered")
	}
}

func TestConcurrentCreatePanic(t *testing.T) {
	boom := errors.New("factory failed")
	release := make(chan struct{})
	r := logging.New(logging.WithFactory(func(*logging.Registry, string, logging.Config) (*logging.Logger, error) {
		<-release
		panic(boom)
	}))

	const n = 8
	got := make([]interface{}, n)
	var started, wg sync.WaitGroup
	started.Add(n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			defer func() { got[i] = recover() }()
			started.Done()
			r.Get("test")
		}(i)
	}
	started.Wait()
	close(release)
	wg.Wait()

	for i, p := range got {
		if p != boom {
			t.Errorf("goroutine %d recovered %v, want %v", i, p, boom)
		}
	}
}

func TestExtensionMustReturnSameLogger(t *testing.T) {
	r := logging.New(logging.WithExtension(func(r *logging.Registry, l *logging.Logger) *logging.Logger {
		other, err := logging.NewLogFunction(l.Name(), l.Config(), r.Dispatch)
		if err != nil {
			panic(err)
		}
		return logging.NopExtension(r, other)
	}))
	_, err := r.GetLogger("test")
	if errors.Cause(err) != logging.ErrExtensionResult {
		t.Fatalf("got %v, want %v", err, logging.ErrExtensionResult)
	}
	if r.All().Len() != 0 {
		t.Fatal("rejected logger was registered")
	}
}

func TestFactoryError(t *testing.T) {
	r := logging.New(logging.WithFactory(func(*logging.Registry, string, logging.Config) (*logging.Logger, error) {
		return nil, errors.New("refused")
	}))
	if _, err := r.GetLogger("test"); err == nil {
		t.Fatal("expected factory error")
	}
	if r.All().Len() != 0 {
		t.Fatal("failed logger was registered")
	}
}

func TestCustomDispatcher(t *testing.T) {
	rec := &recorder{}
	r := logging.New(logging.WithExtension(rec.extension))
	r.SetDispatcher(func(r *logging.Registry, name string, args ...interface{}) {
		l, _ := r.All().Lookup(name)
		l.Invoke("debug", args...)
	})
	r.Get("test").Call("info", "message")
	want := []call{{Level: "debug", Args: []interface{}{"info", "message"}}}
	if diff := cmp.Diff(want, rec.take()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}

	r.SetDispatcher(nil)
	r.Get("test").Call("info", "message")
	want = []call{{Level: "info", Args: []interface{}{"message"}}}
	if diff := cmp.Diff(want, rec.take()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigPassedThrough(t *testing.T) {
	cfg := logging.Config{"level": "debug", "custom": 1}
	l := logging.New().Get("test", cfg)
	if diff := cmp.Diff(cfg, l.Config()); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestConcurrentGetLogger(t *testing.T) {
	var created int32
	r := logging.New(logging.WithFactory(func(r *logging.Registry, name string, cfg logging.Config) (*logging.Logger, error) {
		atomic.AddInt32(&created, 1)
		return logging.DefaultFactory(r, name, cfg)
	}))

	const workers = 32
	loggers := make([]*logging.Logger, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			loggers[i] = r.Get("shared")
		}(i)
	}
	wg.Wait()

	if created != 1 {
		t.Fatalf("factory ran %d times, want 1", created)
	}
	for _, l := range loggers {
		if l != loggers[0] {
			t.Fatal("concurrent lookups returned different loggers")
		}
	}
}

func TestNewLogFunction(t *testing.T) {
	if _, err := logging.NewLogFunction("", nil, func(string, ...interface{}) {}); !errors.Is(err, logging.ErrInvalidName) {
		t.Fatalf("got %v, want %v", err, logging.ErrInvalidName)
	}

	var gotName string
	var gotArgs []interface{}
	l, err := logging.NewLogFunction("module:sub-part", nil, func(name string, args ...interface{}) {
		gotName, gotArgs = name, args
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Levels()) != 0 || l.EnabledFor() {
		t.Fatal("bare logger already has bindings")
	}
	l.Call("info", "x")
	if gotName != "module:sub-part" {
		t.Errorf("got name %q", gotName)
	}
	if diff := cmp.Diff([]interface{}{"info", "x"}, gotArgs); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}
