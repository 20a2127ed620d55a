package report

// Status is the processing outcome of a single section in a bulk ingestion.
type Status string

// Section status values.
const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// Section is the outcome of ingesting one text section. Failed sections
// carry the content size and an estimated token count so an operator can
// tell an oversized chunk from a flaky provider.
type Section struct {
	title     string
	status    Status
	docID     string
	attempts  int
	bytes     int
	estTokens int
	err       error
}

// NewOK records a successfully ingested section.
func NewOK(title, docID string, attempts int) Section {
	return Section{title: title, status: StatusOK, docID: docID, attempts: attempts}
}

// NewSkipped records a section skipped as a duplicate of stored content.
func NewSkipped(title, docID string) Section {
	return Section{title: title, status: StatusSkipped, docID: docID}
}

// NewError records a failed section with diagnostic context.
func NewError(title string, attempts, byteLen int, err error) Section {
	return Section{
		title:     title,
		status:    StatusError,
		attempts:  attempts,
		bytes:     byteLen,
		estTokens: byteLen / 4,
		err:       err,
	}
}

// Title returns the section title.
func (s Section) Title() string { return s.title }

// Status returns the processing outcome.
func (s Section) Status() Status { return s.status }

// DocID returns the stored document id, empty on error.
func (s Section) DocID() string { return s.docID }

// Attempts returns how many attempts were made.
func (s Section) Attempts() int { return s.attempts }

// Bytes returns the content byte length, recorded on failure.
func (s Section) Bytes() int { return s.bytes }

// EstimatedTokens returns a rough token count (len/4), recorded on failure.
func (s Section) EstimatedTokens() int { return s.estTokens }

// Err returns the error, if any.
func (s Section) Err() error { return s.err }
