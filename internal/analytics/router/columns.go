package router

import (
	"strings"

	"github.com/google/uuid"
)

// stringPtr trims value and maps the empty string to a NULL column.
func stringPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// idPtr maps the zero id to a NULL column.
func idPtr(id uuid.UUID) *string {
	if id == uuid.Nil {
		return nil
	}
	s := id.String()
	return &s
}

func optionalID(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	return idPtr(*id)
}
