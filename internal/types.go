package internal

import "time"

const (
	UnknownInvoiceNumber = "UNKNOWN"
	UnknownDate          = "NODATE"
	UnknownCustomer      = "UNKNOWN_CUSTOMER"
	UnknownAccountID     = "NO_ID"
)

type InvoiceMetadata struct {
	InvoiceNumber string `json:"invoiceNumber"`
	Date          string `json:"date"`
	CustomerName  string `json:"customerName"`
	AccountID     string `json:"accountId"`
}

// InvoiceRecord is one invoice found inside a source document. PageIndices are
// 0-based, contiguous and strictly increasing.
type InvoiceRecord struct {
	Metadata    InvoiceMetadata
	PageIndices []int
	SourcePath  string
	Text        string
}

type FilterMode string

const (
	FilterByName    FilterMode = "name"
	FilterByAccount FilterMode = "id"
	FilterByText    FilterMode = "text"
)

type MatchUnit string

const (
	UnitInvoice  MatchUnit = "invoice"
	UnitDocument MatchUnit = "document"
)

// DateRange is inclusive on both ends and compared by calendar day.
type DateRange struct {
	From time.Time
	To   time.Time
}

type FilterSpec struct {
	Mode        FilterMode
	SearchValue string
	DateFilter  *DateRange
}

type PlanAction string

const (
	ActionWrite            PlanAction = "write"
	ActionSkipDuplicate    PlanAction = "skip_duplicate"
	ActionSkipDateFiltered PlanAction = "skip_date_filtered"
)

type ExtractionResult struct {
	Action PlanAction
	Path   string
}

type RunStatistics struct {
	FilesScanned        int `json:"filesScanned"`
	InvoicesDetected    int `json:"invoicesDetected"`
	InvoicesMatched     int `json:"invoicesMatched"`
	SkippedDuplicate    int `json:"skippedDuplicate"`
	SkippedDateFiltered int `json:"skippedDateFiltered"`
	Errors              int `json:"errors"`
}

type OutputEntry struct {
	Filename    string
	Path        string
	SourcePath  string
	PageIndices []int
	Metadata    *InvoiceMetadata
}

type FileFailure struct {
	File    string
	Stage   string
	Message string
}

type RunSummary struct {
	RunID     string
	Stats     RunStatistics
	Outputs   []OutputEntry
	Failures  []FileFailure
	StartedAt time.Time
	Duration  time.Duration
	Aborted   bool
}

// CreatedFiles lists the output file names in creation order.
func (s RunSummary) CreatedFiles() []string {
	out := make([]string, 0, len(s.Outputs))
	for _, o := range s.Outputs {
		out = append(out, o.Filename)
	}
	return out
}

type EmailRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

type AttachmentRow struct {
	ID        int
	EmailID   int
	Filename  string
	Hash      string
	SavedPath string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}

type MailAttachment struct {
	Filename string
	Content  []byte
}
