package service

import (
	"errors"
	"strings"
	"testing"
)

type recorder struct {
	events []string
}

type fakeService struct {
	name     string
	deps     []string
	initErr  error
	startErr error
	disabled bool
	rec      *recorder
	args     []any
}

func (f *fakeService) Name() string           { return f.name }
func (f *fakeService) Dependencies() []string { return f.deps }
func (f *fakeService) Enabled() bool          { return !f.disabled }

func (f *fakeService) Init(args ...any) error {
	f.args = args
	f.rec.events = append(f.rec.events, "init:"+f.name)
	return f.initErr
}

func (f *fakeService) Start() error {
	f.rec.events = append(f.rec.events, "start:"+f.name)
	return f.startErr
}

func (f *fakeService) Stop() error {
	f.rec.events = append(f.rec.events, "stop:"+f.name)
	return nil
}

func TestHub_OrderAndLifecycle(t *testing.T) {
	rec := &recorder{}
	h := NewHub()
	for _, svc := range []*fakeService{
		{name: "monitor", deps: []string{"status"}, rec: rec},
		{name: "audio", rec: rec},
		{name: "status", rec: rec},
	} {
		if err := h.Register(svc); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	order, err := h.Order()
	if err != nil {
		t.Fatalf("Order failed: %v", err)
	}
	if got := strings.Join(order, ","); got != "audio,status,monitor" {
		t.Errorf("Expected audio,status,monitor, got %s", got)
	}

	if err := h.InitAll("cfg"); err != nil {
		t.Fatalf("InitAll failed: %v", err)
	}
	if args := MustGet[*fakeService](h, "audio").args; len(args) != 1 || args[0] != "cfg" {
		t.Errorf("Expected init args [cfg], got %v", args)
	}
	if err := h.StartAll(); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	h.StopAll()
	h.StopAll()

	want := "init:audio,init:status,init:monitor,start:audio,start:status,start:monitor,stop:monitor,stop:status,stop:audio"
	if got := strings.Join(rec.events, ","); got != want {
		t.Errorf("Expected events\n%s\ngot\n%s", want, got)
	}
}

func TestHub_Rollback(t *testing.T) {
	rec := &recorder{}
	h := NewHub()
	h.Register(&fakeService{name: "a", rec: rec})
	h.Register(&fakeService{name: "b", deps: []string{"a"}, startErr: errors.New("no device"), rec: rec})

	if err := h.InitAll(); err != nil {
		t.Fatalf("InitAll failed: %v", err)
	}
	if err := h.StartAll(); err == nil {
		t.Fatal("Expected start failure")
	}
	want := "init:a,init:b,start:a,start:b,stop:a"
	if got := strings.Join(rec.events, ","); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestHub_InitRollback(t *testing.T) {
	rec := &recorder{}
	h := NewHub()
	h.Register(&fakeService{name: "a", rec: rec})
	h.Register(&fakeService{name: "b", deps: []string{"a"}, initErr: errors.New("bad"), rec: rec})

	if err := h.InitAll(); err == nil {
		t.Fatal("Expected init failure")
	}
	if got := strings.Join(rec.events, ","); got != "init:a,init:b,stop:a" {
		t.Errorf("Unexpected events %s", got)
	}
}

func TestHub_DisabledNotStarted(t *testing.T) {
	rec := &recorder{}
	h := NewHub()
	h.Register(&fakeService{name: "audio", disabled: true, rec: rec})
	h.InitAll()
	if err := h.StartAll(); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	h.StopAll()
	if got := strings.Join(rec.events, ","); got != "init:audio" {
		t.Errorf("Expected only init, got %s", got)
	}
}

func TestHub_Errors(t *testing.T) {
	h := NewHub()
	rec := &recorder{}
	h.Register(&fakeService{name: "a", rec: rec})
	if err := h.Register(&fakeService{name: "a", rec: rec}); err == nil {
		t.Error("Expected duplicate registration error")
	}

	h.Register(&fakeService{name: "b", deps: []string{"missing"}, rec: rec})
	if err := h.InitAll(); err == nil || !strings.Contains(err.Error(), "missing") {
		t.Errorf("Expected unregistered dependency error, got %v", err)
	}

	cyclic := NewHub()
	cyclic.Register(&fakeService{name: "x", deps: []string{"y"}, rec: rec})
	cyclic.Register(&fakeService{name: "y", deps: []string{"x"}, rec: rec})
	if _, err := cyclic.Order(); !errors.Is(err, ErrCycle) {
		t.Errorf("Expected ErrCycle, got %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("Expected MustGet panic for missing service")
		}
	}()
	MustGet[*fakeService](h, "nope")
}
