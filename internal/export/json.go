// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"

	"github.com/jeranaias/modia-tui/internal/model"
)

// JSONExporter exports conversations as indented JSON. Sources blocks are
// dropped unless IncludeSources is set; other options do not apply.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export converts a conversation to JSON.
func (e *JSONExporter) Export(conv *Conversation) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}
	out := *conv
	if !e.options.IncludeSources {
		out.Messages = make([]model.Message, 0, len(conv.Messages))
		for _, m := range conv.Messages {
			if !m.IsCodeBlock() {
				out.Messages = append(out.Messages, m)
			}
		}
	}
	return json.MarshalIndent(&out, "", "  ")
}

// FileExtension returns ".json".
func (e *JSONExporter) FileExtension() string {
	return ".json"
}
