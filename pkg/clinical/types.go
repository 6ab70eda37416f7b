package clinical

import (
	"errors"
	"strings"
)

const (
	// DefaultSchema is used when an organization does not declare a preferred note schema.
	DefaultSchema = "SOAP"

	// NewClientHistory replaces the history context when no prior sessions exist.
	NewClientHistory = "New client."

	// DefaultInstructions is returned for organizations without an instructions file.
	DefaultInstructions = "You are a helpful clinical assistant. Follow standard SOAP protocols."
)

// Session is the transient input of one pipeline run.
type Session struct {
	OrganizationId string `json:"org_id"`
	ClientId       string `json:"client_id"`
	RawText        string `json:"raw_text"`
}

func (s Session) Validate() error {
	var missing []string
	if strings.TrimSpace(s.OrganizationId) == "" {
		missing = append(missing, "org_id")
	}
	if strings.TrimSpace(s.ClientId) == "" {
		missing = append(missing, "client_id")
	}
	if strings.TrimSpace(s.RawText) == "" {
		missing = append(missing, "raw_text")
	}
	if len(missing) > 0 {
		return errors.New("session is missing " + strings.Join(missing, ", "))
	}
	return nil
}

// OrgContext is the per-organization configuration read once per run.
type OrgContext struct {
	PreferredSchema      string
	ToneConstraints      string
	FreeTextInstructions string
}

// Schema returns the note schema name, falling back to SOAP.
func (c OrgContext) Schema() string {
	if strings.TrimSpace(c.PreferredSchema) == "" {
		return DefaultSchema
	}
	return c.PreferredSchema
}

// RetrievedHistory holds prior session excerpts, most relevant first.
type RetrievedHistory []string

// Text renders the history for prompting. An empty history yields the new-client sentinel.
func (h RetrievedHistory) Text() string {
	if len(h) == 0 {
		return NewClientHistory
	}
	return strings.Join(h, "\n")
}

func (h RetrievedHistory) IsEmpty() bool {
	return len(h) == 0
}
