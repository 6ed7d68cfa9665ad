package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vk/circuitgo/internal/ctxlog"
	"github.com/vk/circuitgo/internal/flow"
)

// ValidateRegistry instantiates every kind on a scratch runtime and reports
// all kinds whose declaration is broken: a missing factory, duplicate or
// unknown port names, defaults rejected by their schema.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	rt := flow.NewRuntime(ctx)
	defer rt.Close()

	for _, k := range r.Kinds() {
		if k.New == nil {
			errs = append(errs, fmt.Sprintf("kind '%s': no factory", k.Name))
			continue
		}
		if k.DisplayName == "" {
			logger.Warn("Node kind has no display name and cannot be found by menu search.", "kind", k.Name)
		}
		if k.Category == "" {
			errs = append(errs, fmt.Sprintf("kind '%s': no category", k.Name))
		}

		var err error
		rt.Do(func() {
			var n *flow.Node
			n, err = r.Instantiate(rt, k.Name, "validate-"+k.Name)
			if err == nil {
				if len(n.Outputs()) == 0 {
					err = errors.New("no outputs")
				}
				n.Close()
			}
		})
		if err != nil {
			errs = append(errs, fmt.Sprintf("kind '%s': %v", k.Name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	logger.Debug("Registry validation passed.", "kinds", len(r.kinds))
	return nil
}
