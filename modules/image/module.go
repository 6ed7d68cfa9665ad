// Package image provides image nodes: an image source and an AI-assisted
// inpainting node backed by the image editing service.
package image

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/circuitgo/internal/ctxlog"
	"github.com/vk/circuitgo/internal/flow"
	"github.com/vk/circuitgo/internal/imageedit"
	"github.com/vk/circuitgo/internal/registry"
	"github.com/vk/circuitgo/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// Category is the menu section of every kind in this package.
const Category = "Image"

// DefaultTimeout bounds one edit, including fetching its inputs.
const DefaultTimeout = 60 * time.Second

// Module implements the registry.Module interface for this package.
type Module struct {
	// Editor performs edits; nil disables editing.
	Editor imageedit.Editor
	// Fetcher resolves image URLs; nil uses a default fetcher.
	Fetcher *imageedit.Fetcher
	Timeout time.Duration
}

// Register registers the image kinds.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(&registry.Kind{Name: "image", DisplayName: "Image", Category: Category, New: newImage})
	r.RegisterKind(&registry.Kind{Name: "image_edit", DisplayName: "Image Edit", Category: Category, New: m.newEdit})
}

func imageVal(url string) cty.Value {
	return cty.ObjectVal(map[string]cty.Value{"url": cty.StringVal(url)})
}

func newImage() flow.Spec {
	return flow.Spec{
		Inputs: []flow.InputSpec{{Name: "url", Schema: schema.String}},
		Outputs: []flow.OutputSpec{{
			Name:   "image",
			Schema: schema.Image,
			Derive: flow.Map("url", func(v cty.Value) (cty.Value, error) {
				return imageVal(v.AsString()), nil
			}),
		}},
	}
}

func (m *Module) newEdit() flow.Spec {
	return flow.Spec{
		Inputs: []flow.InputSpec{
			{Name: "prompt", Schema: schema.String},
			{Name: "image", Schema: schema.Image},
			{Name: "mask", Schema: schema.Image},
		},
		Outputs: []flow.OutputSpec{{
			Name:   "image",
			Schema: schema.Image,
			Derive: flow.Async([]string{"prompt", "image", "mask"}, m.edit),
		}},
	}
}

func (m *Module) edit(ctx context.Context, args []cty.Value) (cty.Value, error) {
	editor := m.Editor
	if editor == nil {
		editor = imageedit.Unconfigured{}
	}
	fetcher := m.Fetcher
	if fetcher == nil {
		fetcher = &imageedit.Fetcher{}
	}
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	prompt := args[0].AsString()
	imageURL := args[1].GetAttr("url").AsString()
	maskURL := args[2].GetAttr("url").AsString()

	img, err := fetcher.Fetch(ctx, imageURL)
	if err != nil {
		return cty.NilVal, fmt.Errorf("image: %w", err)
	}
	mask, err := fetcher.Fetch(ctx, maskURL)
	if err != nil {
		return cty.NilVal, fmt.Errorf("mask: %w", err)
	}

	start := time.Now()
	url, err := editor.Edit(ctx, imageedit.Request{Prompt: prompt, Image: img, Mask: mask})
	if err != nil {
		return cty.NilVal, err
	}
	ctxlog.FromContext(ctx).Info("Image edited.", "duration", time.Since(start))
	return imageVal(url), nil
}
