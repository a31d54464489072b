package scheduler

import (
	"errors"
	"fmt"

	"github.com/me/goplan/pkg/model"
)

// ErrSWOUnavailable is returned when the SWO module is requested but no SWO
// engine was wired in. The service surfaces it as 503.
var ErrSWOUnavailable = errors.New("SWO scheduler is not configured")

// Router selects the active engine for a module.
type Router struct {
	cp  Engine
	swo Engine // may be nil
}

// NewRouter creates a router over the available engines. swo may be nil.
func NewRouter(cp, swo Engine) *Router {
	return &Router{cp: cp, swo: swo}
}

// Resolve returns the engine for the requested module.
func (r *Router) Resolve(module model.Module) (Engine, error) {
	switch module {
	case model.ModuleCPLNS:
		return r.cp, nil
	case model.ModuleSWO:
		if r.swo == nil {
			return nil, ErrSWOUnavailable
		}
		return r.swo, nil
	default:
		return nil, fmt.Errorf("unknown scheduler module %q", module)
	}
}
