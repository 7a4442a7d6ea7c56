package oracle

import "github.com/casamind/casamind/pkg/types"

var controlDefinition = types.ToolDefinition{
	Name:        "resolve_device_function",
	Description: "Report the function code and value for one device command. Call once per command.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status": map[string]any{
				"type": "string",
				"enum": []string{"Success", "Failure"},
			},
			"device_uuid": map[string]any{
				"type":        "string",
				"description": "UUID of the device being commanded.",
			},
			"code": map[string]any{
				"type":        "string",
				"description": "Function code to execute, e.g. switch or countdown.",
			},
			"value": map[string]any{
				"description": "Scalar value for the function. Never an object or array.",
			},
			"failure_reason": map[string]any{
				"type":        "string",
				"description": "Why the command could not be resolved. Required on Failure.",
			},
		},
		"required": []string{"status", "device_uuid"},
	},
}

var scheduleDefinition = types.ToolDefinition{
	Name:        "resolve_device_schedule",
	Description: "Report schedule parameters for one device command. Call once per command.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status": map[string]any{
				"type": "string",
				"enum": []string{"Success", "Failure"},
			},
			"device_uuid": map[string]any{
				"type": "string",
			},
			"code": map[string]any{
				"type": "string",
			},
			"value": map[string]any{
				"description": "Scalar value for the function. Never an object or array.",
			},
			"time": map[string]any{
				"type":        "string",
				"description": "Time of day in HH:MM format, e.g. 09:37.",
			},
			"days": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string", "enum": []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}},
			},
			"failure_reason": map[string]any{
				"type": "string",
			},
		},
		"required": []string{"status", "device_uuid"},
	},
}

var sceneDefinition = types.ToolDefinition{
	Name:        "match_scene",
	Description: "Report which available scene the user's command refers to.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"scene_name": map[string]any{
				"type":        "string",
				"description": "Scene name deduced from the instruction, even if unavailable.",
			},
			"scene_uuid": map[string]any{
				"type":        "string",
				"description": "UUID of the matched scene, or None when no scene matches.",
			},
		},
		"required": []string{"scene_name"},
	},
}
