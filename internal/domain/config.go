package domain

import "strings"

// ConnectionConfig holds the parameters needed to reach the remote agent.
// It is a value: replace it as a whole, never patch it in place.
type ConnectionConfig struct {
	EndpointURL string `json:"endpointURL"`
	APIKey      string `json:"apiKey"`
	AgentID     string `json:"agentID"`
}

// Missing lists the names of the required fields that are empty.
func (c ConnectionConfig) Missing() []string {
	var missing []string
	if strings.TrimSpace(c.EndpointURL) == "" {
		missing = append(missing, "endpoint URL")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		missing = append(missing, "API key")
	}
	if strings.TrimSpace(c.AgentID) == "" {
		missing = append(missing, "agent ID")
	}
	return missing
}

// Complete reports whether every required field is set.
func (c ConnectionConfig) Complete() bool {
	return len(c.Missing()) == 0
}

// MaskedKey returns the API key with all but the last four characters hidden.
func (c ConnectionConfig) MaskedKey() string {
	key := c.APIKey
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
