// Package form provides the form component: its input ports are derived
// from the fields declared in its parameters.
package form

import (
	"context"
	"fmt"

	"github.com/flowgraph/flowgraph/pkg/models"
	"github.com/flowgraph/flowgraph/pkg/protocol"
)

const Type = "form"

func Component() *protocol.ComponentDefinition {
	return &protocol.ComponentDefinition{
		Type:        Type,
		Name:        "Form",
		Description: "Collects declared fields into one record.",
		Ports: models.PortSet{
			Outputs: []models.PortSpec{
				{Name: "values", Label: "Values", Type: "object"},
			},
		},
		Parameters: &models.JSONSchema{
			Type: "object",
			Properties: map[string]*models.Property{
				"fields": {
					Type:        "array",
					Description: "Declared form fields",
					Items: &models.Property{
						Type: "object",
						Properties: map[string]*models.Property{
							"name":     {Type: "string"},
							"label":    {Type: "string"},
							"type":     {Type: "string", Default: "string"},
							"required": {Type: "boolean", Default: false},
						},
						Required: []string{"name"},
					},
				},
			},
			Required: []string{"fields"},
		},
		Runner:       protocol.RunnerDescriptor{Kind: protocol.RunnerInline},
		Execute:      execute,
		ResolvePorts: resolvePorts,
	}
}

// resolvePorts exposes one input port per declared field, so edits to the
// field list immediately change what the node accepts.
func resolvePorts(parameters map[string]any) (models.PortSet, error) {
	ports := models.PortSet{
		Outputs: []models.PortSpec{
			{Name: "values", Label: "Values", Type: "object"},
		},
	}

	fields, err := declaredFields(parameters)
	if err != nil {
		return models.PortSet{}, err
	}

	for _, field := range fields {
		ports.Inputs = append(ports.Inputs, models.PortSpec{
			Name:        field.name,
			Label:       field.label,
			Type:        field.fieldType,
			Required:    field.required,
			AllowManual: true,
		})
	}

	return ports, nil
}

func execute(_ context.Context, ec protocol.ExecutionContext) (map[string]any, error) {
	fields, err := declaredFields(ec.Parameters)
	if err != nil {
		return nil, err
	}

	values := make(map[string]any, len(fields))

	for _, field := range fields {
		value, ok := ec.Inputs[field.name]
		if !ok {
			if field.required {
				return nil, fmt.Errorf("missing required field %q", field.name)
			}

			continue
		}

		values[field.name] = value
	}

	return map[string]any{"values": values}, nil
}

type field struct {
	name      string
	label     string
	fieldType string
	required  bool
}

func declaredFields(parameters map[string]any) ([]field, error) {
	raw, ok := parameters["fields"].([]any)
	if !ok {
		return nil, fmt.Errorf("form requires a fields list")
	}

	fields := make([]field, 0, len(raw))

	for i, entry := range raw {
		spec, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %d is not an object", i)
		}

		name, _ := spec["name"].(string)
		if name == "" {
			return nil, fmt.Errorf("field %d has no name", i)
		}

		label, _ := spec["label"].(string)

		fieldType, _ := spec["type"].(string)
		if fieldType == "" {
			fieldType = "string"
		}

		required, _ := spec["required"].(bool)

		fields = append(fields, field{
			name:      name,
			label:     label,
			fieldType: fieldType,
			required:  required,
		})
	}

	return fields, nil
}
