package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/johnquangdev/speaker-attribution/internal/usecase/attribution"
)

// bundle is one meeting on disk: the engine input plus optional threshold overrides.
type bundle struct {
	attribution.Input `yaml:",inline"`
	Params            *paramOverrides `json:"params,omitempty" yaml:"params,omitempty"`
}

// paramOverrides replaces individual thresholds; unset fields keep the configured value.
type paramOverrides struct {
	AssignThreshold        *float64 `json:"assign_threshold,omitempty" yaml:"assign_threshold,omitempty"`
	NearWindow             *int     `json:"near_window,omitempty" yaml:"near_window,omitempty"`
	NicknameMinLen         *int     `json:"nickname_min_len,omitempty" yaml:"nickname_min_len,omitempty"`
	DuplicateMinSimilarity *float64 `json:"duplicate_min_similarity,omitempty" yaml:"duplicate_min_similarity,omitempty"`
	AutomatedPhraseCutoff  *int64   `json:"automated_phrase_cutoff_ms,omitempty" yaml:"automated_phrase_cutoff_ms,omitempty"`
	TimelineWindowMs       *int64   `json:"timeline_window_ms,omitempty" yaml:"timeline_window_ms,omitempty"`
	TimelineMinScore       *float64 `json:"timeline_min_score,omitempty" yaml:"timeline_min_score,omitempty"`
}

func (o *paramOverrides) apply(p attribution.Params) attribution.Params {
	if o == nil {
		return p
	}
	if o.AssignThreshold != nil {
		p.AssignThreshold = *o.AssignThreshold
	}
	if o.NearWindow != nil {
		p.NearWindow = *o.NearWindow
	}
	if o.NicknameMinLen != nil {
		p.NicknameMinLen = *o.NicknameMinLen
	}
	if o.DuplicateMinSimilarity != nil {
		p.DuplicateMinSimilarity = *o.DuplicateMinSimilarity
	}
	if o.AutomatedPhraseCutoff != nil {
		p.AutomatedPhraseCutoffMs = *o.AutomatedPhraseCutoff
	}
	if o.TimelineWindowMs != nil {
		p.TimelineWindowMs = *o.TimelineWindowMs
	}
	if o.TimelineMinScore != nil {
		p.TimelineMinScore = *o.TimelineMinScore
	}
	return p
}

// loadBundle reads a bundle, choosing the decoder by extension. Anything
// that is not .json is decoded as YAML.
func loadBundle(path string) (*bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle: %w", err)
	}
	return decodeBundle(data, strings.ToLower(filepath.Ext(path)))
}

func decodeBundle(data []byte, ext string) (*bundle, error) {
	var b bundle
	if ext == ".json" {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&b); err != nil {
			return nil, fmt.Errorf("failed to decode JSON bundle: %w", err)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&b); err != nil {
			return nil, fmt.Errorf("failed to decode YAML bundle: %w", err)
		}
	}
	for i, u := range b.Utterances {
		if err := u.Validate(); err != nil {
			return nil, fmt.Errorf("utterance %d: %w", i, err)
		}
	}
	return &b, nil
}
