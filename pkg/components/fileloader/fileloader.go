// Package fileloader provides the file loading component.
package fileloader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flowgraph/flowgraph/pkg/models"
	"github.com/flowgraph/flowgraph/pkg/protocol"
)

const Type = "file-loader"

const maxFileBytes = 50 << 20

// ErrPathRequired is returned when no path value was provided.
var ErrPathRequired = errors.New("file loader requires a path")

func Component() *protocol.ComponentDefinition {
	return &protocol.ComponentDefinition{
		Type:        Type,
		Name:        "File Loader",
		Description: "Reads a local file and exposes its content.",
		Ports: models.PortSet{
			Inputs: []models.PortSpec{
				{Name: "path", Label: "Path", Type: "string", Required: true, AllowManual: true},
			},
			Outputs: []models.PortSpec{
				{Name: "content", Label: "Content", Type: "object"},
				{Name: "size", Label: "Size", Type: "number"},
				{Name: "name", Label: "File Name", Type: "string"},
			},
		},
		Parameters: &models.JSONSchema{
			Type: "object",
			Properties: map[string]*models.Property{
				"parse_json": {
					Type:        "boolean",
					Description: "Parse the content as JSON when the extension suggests it",
					Default:     true,
				},
			},
		},
		Runner:  protocol.RunnerDescriptor{Kind: protocol.RunnerInline},
		Execute: execute,
	}
}

func execute(ctx context.Context, ec protocol.ExecutionContext) (map[string]any, error) {
	path, _ := ec.Inputs["path"].(string)
	if path == "" {
		return nil, ErrPathRequired
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	if info.Size() > maxFileBytes {
		return nil, fmt.Errorf("file %s exceeds the %d byte limit", path, maxFileBytes)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if ec.Logger != nil {
		ec.Logger.InfoContext(ctx, "Loaded file", "path", path, "bytes", len(raw))
	}

	var content any = string(raw)

	parseJSON := true
	if flag, ok := ec.Parameters["parse_json"].(bool); ok {
		parseJSON = flag
	}

	if parseJSON && strings.EqualFold(filepath.Ext(path), ".json") {
		var parsed any
		if err := json.Unmarshal(raw, &parsed); err == nil {
			content = parsed
		}
	}

	return map[string]any{
		"content": content,
		"size":    info.Size(),
		"name":    filepath.Base(path),
	}, nil
}
