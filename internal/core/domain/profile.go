package domain

// Profile is a lightweight, ordered reference to an entity surfaced in a
// response, used by clients for direct navigation. Profiles are listed in
// the same order the synthesizer's textual context presents them.
type Profile struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	DisplayName string         `json:"displayName"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}
