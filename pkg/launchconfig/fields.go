package launchconfig

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Customer-controllable launch fields.
var allowedFields = map[string]struct{}{
	"instance_type":          {},
	"subnet_id":              {},
	"static_ip":              {},
	"security_group_ids":     {},
	"tags":                   {},
	"monitoring":             {},
	"termination_protection": {},
	"iam_instance_profile":   {},
}

// Service-managed launch fields that callers may never set.
var blockedFields = map[string]struct{}{
	"image_id":              {},
	"user_data":             {},
	"block_device_mappings": {},
	"placement_group":       {},
	"availability_zone":     {},
	"key_name":              {},
}

// BlockedFieldsError reports launch-config fields outside the allow-list.
type BlockedFieldsError struct {
	Blocked []string // Present on the deny-list
	Unknown []string // Outside both lists; the policy is closed, not best-effort
}

func (e *BlockedFieldsError) Error() string {
	parts := make([]string, 0, 2)

	if len(e.Blocked) > 0 {
		parts = append(parts, fmt.Sprintf("service-managed fields may not be set: %s", strings.Join(e.Blocked, ", ")))
	}

	if len(e.Unknown) > 0 {
		parts = append(parts, fmt.Sprintf("unknown fields: %s", strings.Join(e.Unknown, ", ")))
	}

	return "invalid launch configuration: " + strings.Join(parts, "; ")
}

// launchConfigSchema type-checks the allow-listed fields of a submitted
// launch configuration document.
const launchConfigSchema = `{
	"type": "object",
	"properties": {
		"instance_type":          {"type": "string"},
		"subnet_id":              {"type": "string", "pattern": "^subnet-[0-9a-f]+$"},
		"static_ip":              {"type": "string"},
		"security_group_ids":     {"type": "array", "items": {"type": "string", "pattern": "^sg-[0-9a-f]+$"}},
		"tags":                   {"type": "object", "additionalProperties": {"type": "string"}},
		"monitoring":             {"type": "boolean"},
		"termination_protection": {"type": "boolean"},
		"iam_instance_profile":   {"type": "string"}
	}
}`

// ValidateFields enforces the closed field policy on a raw launch-config
// document: deny-listed fields are a hard error naming the offenders, and so
// is anything outside the allow-list. Allowed fields are then type-checked
// against the JSON schema.
func ValidateFields(doc map[string]any) error {
	fieldErr := &BlockedFieldsError{}

	for field := range doc {
		if _, ok := blockedFields[field]; ok {
			fieldErr.Blocked = append(fieldErr.Blocked, field)

			continue
		}

		if _, ok := allowedFields[field]; !ok {
			fieldErr.Unknown = append(fieldErr.Unknown, field)
		}
	}

	if len(fieldErr.Blocked) > 0 || len(fieldErr.Unknown) > 0 {
		sort.Strings(fieldErr.Blocked)
		sort.Strings(fieldErr.Unknown)

		return fieldErr
	}

	schemaLoader := gojsonschema.NewStringLoader(launchConfigSchema)
	docLoader := gojsonschema.NewGoLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("failed to validate launch configuration: %w", err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return fmt.Errorf("invalid launch configuration: %s", strings.Join(details, "; "))
	}

	return nil
}
