package registration

// Input is the creation payload for registrations.
type Input struct {
	// Name is a human-readable label. Required.
	Name string `json:"name"`

	// Source identifies the sending system. Required.
	Source string `json:"source"`

	// Description is an optional human-readable description.
	Description string `json:"description,omitempty"`

	// EventsFilter restricts accepted event types. Empty accepts all.
	EventsFilter []string `json:"eventsFilter,omitempty"`
}

// UpdateInput carries a partial update. Nil fields are left untouched;
// an empty non-nil EventsFilter clears the filter.
type UpdateInput struct {
	Name         *string   `json:"name,omitempty"`
	Source       *string   `json:"source,omitempty"`
	Description  *string   `json:"description,omitempty"`
	EventsFilter *[]string `json:"eventsFilter,omitempty"`
	Status       *Status   `json:"status,omitempty"`
}

// ListOpts configures filtering for registration listing.
type ListOpts struct {
	// Status keeps only registrations in the given state when set.
	Status *Status

	// Limit caps the number of results. 0 means no cap.
	Limit int
}
