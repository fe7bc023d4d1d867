package services

import (
	"context"
	"fmt"
)

const VisualizationInstruction = "Based on these clothing items, generate a high-quality, full-body realistic fashion illustration of a model wearing this complete outfit. The style should be modern and natural. Show clearly how these items look when worn together."

type Visualizer struct {
	LLM          StylistLLM
	ImageMaxSide int
	Metrics      *Metrics
}

// Visualize renders the given item photos as one outfit. The first image
// in the response is returned.
func (v *Visualizer) Visualize(ctx context.Context, images []InlineImage) (rendered InlineImage, err error) {
	if len(images) == 0 {
		return InlineImage{}, ErrNothingToVisualize
	}
	defer func() { v.Metrics.CapabilityCall("visualize", err) }()

	prepared := make([]InlineImage, 0, len(images))
	for _, image := range images {
		p, err := PrepareImageForLLM(image, v.ImageMaxSide)
		if err != nil {
			return InlineImage{}, fmt.Errorf("%w: %w", ErrVisualizationFailed, err)
		}
		prepared = append(prepared, p)
	}
	response, err := v.LLM.GenerateOutfitImage(ctx, prepared, VisualizationInstruction)
	if err != nil {
		return InlineImage{}, fmt.Errorf("%w: %w", ErrVisualizationFailed, err)
	}
	if len(response.Images) == 0 {
		return InlineImage{}, fmt.Errorf("%w: %w", ErrVisualizationFailed, ErrNoImageProduced)
	}
	return response.Images[0], nil
}
