package app

import (
	"github.com/vk/circuitgo/internal/imageedit"
	"github.com/vk/circuitgo/internal/registry"
	"github.com/vk/circuitgo/modules/color"
	"github.com/vk/circuitgo/modules/image"
	"github.com/vk/circuitgo/modules/math"
	"github.com/vk/circuitgo/modules/text"
)

// coreModules is the definitive list of all modules that are compiled into
// the circuitgo binary.
func (a *App) coreModules() []registry.Module {
	editor := imageedit.New(a.ctx, imageedit.Config{Model: a.config.OpenAIModel})
	return []registry.Module{
		&math.Module{},
		&color.Module{},
		&image.Module{Editor: editor, Fetcher: &imageedit.Fetcher{}, Timeout: a.config.EditTimeout},
		&text.Module{},
	}
}
