package document

import (
	"strings"

	"github.com/edibridge/backend/internal/domain/shared"
)

// NewBusinessKey builds the normalized key tying an incoming document to
// exactly one logical root entity within a tenant, e.g. "UNDAR-4500123".
// The key doubles as the keyed-lock suffix, so normalization must be stable
// across deliveries of the same document.
func NewBusinessKey(systemCode, documentNumber string) (string, error) {
	systemCode = strings.ToUpper(strings.TrimSpace(systemCode))
	documentNumber = strings.ToUpper(strings.TrimSpace(documentNumber))
	if systemCode == "" {
		return "", shared.NewDomainError("INVALID_BUSINESS_KEY", "System code cannot be empty")
	}
	if documentNumber == "" {
		return "", shared.NewDomainError("INVALID_BUSINESS_KEY", "Document number cannot be empty")
	}
	return systemCode + "-" + documentNumber, nil
}
