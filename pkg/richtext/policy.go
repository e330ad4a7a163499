package richtext

import (
	"fmt"
	"strings"
)

// AttachmentPolicy decides what text-only output does with an attachment.
type AttachmentPolicy int

const (
	// PolicyPlaceholder writes AttachmentCharacter where the attachment was.
	PolicyPlaceholder AttachmentPolicy = iota
	// PolicyDrop writes nothing.
	PolicyDrop
)

func (p AttachmentPolicy) String() string {
	switch p {
	case PolicyPlaceholder:
		return "placeholder"
	case PolicyDrop:
		return "drop"
	default:
		return fmt.Sprintf("AttachmentPolicy(%d)", int(p))
	}
}

// Placeholder returns the text written for one attachment.
func (p AttachmentPolicy) Placeholder() string {
	if p == PolicyDrop {
		return ""
	}
	return string(AttachmentCharacter)
}

// ParsePolicy accepts "placeholder" or "drop"; empty means placeholder.
func ParsePolicy(s string) (AttachmentPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "placeholder":
		return PolicyPlaceholder, nil
	case "drop":
		return PolicyDrop, nil
	default:
		return 0, fmt.Errorf("unknown attachment policy %q (want placeholder or drop)", s)
	}
}
