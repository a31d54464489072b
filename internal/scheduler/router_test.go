package scheduler

import (
	"errors"
	"testing"

	"github.com/me/goplan/pkg/model"
)

func TestRouterResolve(t *testing.T) {
	cp := newTestCPLNS(t)
	swo := newTestSWO(t)

	t.Run("both wired", func(t *testing.T) {
		r := NewRouter(cp, swo)
		engine, err := r.Resolve(model.ModuleCPLNS)
		if err != nil || engine.Module() != model.ModuleCPLNS {
			t.Errorf("Resolve(CP_LNS) = %v, %v", engine, err)
		}
		engine, err = r.Resolve(model.ModuleSWO)
		if err != nil || engine.Module() != model.ModuleSWO {
			t.Errorf("Resolve(SWO) = %v, %v", engine, err)
		}
	})

	t.Run("swo missing", func(t *testing.T) {
		r := NewRouter(cp, nil)
		if _, err := r.Resolve(model.ModuleSWO); !errors.Is(err, ErrSWOUnavailable) {
			t.Errorf("Resolve(SWO) err = %v, want ErrSWOUnavailable", err)
		}
	})

	t.Run("unknown module", func(t *testing.T) {
		r := NewRouter(cp, swo)
		if _, err := r.Resolve(model.Module("PSO")); err == nil {
			t.Error("Resolve(PSO) succeeded, want error")
		}
	})
}
