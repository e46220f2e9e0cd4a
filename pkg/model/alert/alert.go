package alert

import (
	"fmt"
	"strings"
	"time"
)

// Severity is the ordered alert severity classification. The underlying
// integer gives the total order LOW < MEDIUM < HIGH < CRITICAL; nothing in
// this subsystem interprets it beyond sorting and display.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// ParseSeverity parses the string form of a severity, case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	case "critical":
		return SeverityCritical, nil
	default:
		return 0, fmt.Errorf("unknown severity: %q", s)
	}
}

// MarshalJSON renders the severity as its lower-case string form.
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *Severity) UnmarshalJSON(b []byte) error {
	v, err := ParseSeverity(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// AssetRef is a weak reference to an asset ("bien") owned by another
// subsystem. The display fields are denormalized at alert creation; this
// subsystem never dereferences the underlying asset.
type AssetRef struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type Alerts []*Alert

// Alert is a notification record describing a condition requiring attention.
// ID is producer-assigned and immutable; Read only ever moves false -> true.
type Alert struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Severity    Severity  `json:"severity"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
	Asset       *AssetRef `json:"asset,omitempty"`
}

// ReadState is the list filter: all (no filter), unread, read.
type ReadState string

const (
	ReadStateAll    ReadState = "all"
	ReadStateUnread ReadState = "unread"
	ReadStateRead   ReadState = "read"
)

// ParseReadState parses a read-state filter value; empty means all.
func ParseReadState(s string) (ReadState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return ReadStateAll, nil
	case "unread":
		return ReadStateUnread, nil
	case "read":
		return ReadStateRead, nil
	default:
		return "", fmt.Errorf("unknown read state: %q", s)
	}
}
