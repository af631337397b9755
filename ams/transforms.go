package ams

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/mediaservices/armmediaservices/v3"

	"amsflow/media"
)

const (
	odataVideoAnalyzer  = "#Microsoft.Media.VideoAnalyzerPreset"
	odataAudioAnalyzer  = "#Microsoft.Media.AudioAnalyzerPreset"
	odataBuiltInEncoder = "#Microsoft.Media.BuiltInStandardEncoderPreset"
)

func toPreset(p media.Preset) (armmediaservices.PresetClassification, error) {
	switch p.Kind {
	case media.PresetVideoAnalyzer:
		return &armmediaservices.VideoAnalyzerPreset{
			ODataType:     to.Ptr(odataVideoAnalyzer),
			AudioLanguage: to.Ptr(p.AudioLanguage),
		}, nil
	case media.PresetAudioAnalyzer:
		return &armmediaservices.AudioAnalyzerPreset{
			ODataType:     to.Ptr(odataAudioAnalyzer),
			AudioLanguage: to.Ptr(p.AudioLanguage),
		}, nil
	case media.PresetBuiltInEncoder:
		return &armmediaservices.BuiltInStandardEncoderPreset{
			ODataType:  to.Ptr(odataBuiltInEncoder),
			PresetName: to.Ptr(armmediaservices.EncoderNamedPreset(p.EncoderPreset)),
		}, nil
	}
	return nil, fmt.Errorf("unsupported preset kind %q", p.Kind)
}

func fromPreset(p armmediaservices.PresetClassification) media.Preset {
	switch v := p.(type) {
	case *armmediaservices.VideoAnalyzerPreset:
		return media.Preset{Kind: media.PresetVideoAnalyzer, AudioLanguage: deref(v.AudioLanguage)}
	case *armmediaservices.AudioAnalyzerPreset:
		return media.Preset{Kind: media.PresetAudioAnalyzer, AudioLanguage: deref(v.AudioLanguage)}
	case *armmediaservices.BuiltInStandardEncoderPreset:
		return media.Preset{Kind: media.PresetBuiltInEncoder, EncoderPreset: string(deref(v.PresetName))}
	}
	return media.Preset{}
}

func toTransform(t armmediaservices.Transform) media.Transform {
	out := media.Transform{Name: deref(t.Name)}
	if t.Properties != nil {
		for _, o := range t.Properties.Outputs {
			if o != nil && o.Preset != nil {
				out.Presets = append(out.Presets, fromPreset(o.Preset))
			}
		}
	}
	return out
}

func (c *Client) GetTransform(ctx context.Context, name string) (media.Transform, error) {
	resp, err := c.transforms.Get(ctx, c.rg(), c.name(), name, nil)
	if err != nil {
		return media.Transform{}, mapError("get transform", name, err)
	}
	return toTransform(resp.Transform), nil
}

func (c *Client) CreateOrUpdateTransform(ctx context.Context, t media.Transform) (media.Transform, error) {
	outputs := make([]*armmediaservices.TransformOutput, 0, len(t.Presets))
	for _, p := range t.Presets {
		preset, err := toPreset(p)
		if err != nil {
			return media.Transform{}, fmt.Errorf("create transform %s: %w", t.Name, err)
		}
		outputs = append(outputs, &armmediaservices.TransformOutput{Preset: preset})
	}

	params := armmediaservices.Transform{
		Properties: &armmediaservices.TransformProperties{Outputs: outputs},
	}
	resp, err := c.transforms.CreateOrUpdate(ctx, c.rg(), c.name(), t.Name, params, nil)
	if err != nil {
		return media.Transform{}, mapError("create transform", t.Name, err)
	}
	return toTransform(resp.Transform), nil
}
