package api

type ProjectSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	Thumbnail string `json:"thumbnail"`
	Date      string `json:"date,omitempty"`
}

type Project struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Images      []string `json:"images"`
	Thumbnail   string   `json:"thumbnail"`
	Date        string   `json:"date,omitempty"`
}

type ResolvedImage struct {
	ElementID string `json:"element_id"`
	Alt       string `json:"alt"`
	Original  string `json:"original"`
	Source    string `json:"source"`
	Status    string `json:"status"`
	Outcome   string `json:"outcome"`
	Rewrites  int    `json:"rewrites"`
	Style     string `json:"style"`
	Error     string `json:"error,omitempty"`
}

type Resolution struct {
	ElementID  string `json:"element_id"`
	ProjectID  string `json:"project_id"`
	Original   string `json:"original"`
	Final      string `json:"final"`
	Status     string `json:"status"`
	Outcome    string `json:"outcome"`
	Rewrites   int    `json:"rewrites"`
	LastError  string `json:"last_error,omitempty"`
	ResolvedAt string `json:"resolved_at"`
}

type Error struct {
	Error string `json:"error"`
}
