package corpus

// Content type vocabulary. Each extractor assigns one of these based on the
// kind of source it handles; the orchestrating caller may override it as a
// deliberate post-processing step, never an extractor.
const (
	TypeArticle       = "article"
	TypeDocumentation = "documentation"
	TypeBookChapter   = "book_chapter"
	TypeDocument      = "document"
	TypeNewsletter    = "newsletter"
	TypeGuide         = "guide"
)

// Record is the normalized unit of extracted content. A Record is created
// once by an extractor as a pure function of the fetched input and is not
// mutated afterwards.
type Record struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Content       string            `json:"content"`
	SourceURL     string            `json:"source_url,omitempty"`
	ContentType   string            `json:"content_type"`
	Author        string            `json:"author,omitempty"`
	DatePublished string            `json:"date_published,omitempty"`
	Tags          []string          `json:"tags"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Output is the batch envelope written at the end of a run.
type Output struct {
	TeamID string   `json:"team_id,omitempty"`
	Items  []Record `json:"items"`
}
