package types

// Item is a playable catalog record. Only the ID matters to restoration;
// the other fields are carried for API responses and logging.
type Item struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist,omitempty"`
	Category string `json:"category,omitempty"`
	Filename string `json:"filename,omitempty"`
	Duration string `json:"duration,omitempty"`
}
