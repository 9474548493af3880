package workflow

import (
	"time"

	"invoice-parser/internal/entity"
)

// Stage is one discrete step of the extraction progress machine.
type Stage int

const (
	StageIdle Stage = iota - 1
	StageUploadReceived
	StageTextExtracted
	StageAIProcessing
	StageNormalizing
	StageValidated
	StageComplete
)

// Progress is the externally visible progress state: the active stage with
// its label and completion percentage.
type Progress struct {
	Stage   Stage
	Label   string
	Percent int
}

var stageLabels = map[Stage]string{
	StageUploadReceived: "Upload Received",
	StageTextExtracted:  "Text Extracted",
	StageAIProcessing:   "AI Processing",
	StageNormalizing:    "Normalizing",
	StageValidated:      "Validated",
	StageComplete:       "Complete",
}

var stagePercents = map[Stage]int{
	StageUploadReceived: 10,
	StageTextExtracted:  25,
	StageAIProcessing:   50,
	StageNormalizing:    75,
	StageValidated:      90,
	StageComplete:       100,
}

// Label returns the display label for the stage, empty when idle.
func (s Stage) Label() string { return stageLabels[s] }

// Percent returns the completion percentage for the stage, zero when idle.
func (s Stage) Percent() int { return stagePercents[s] }

// Progress returns the full progress state for the stage.
func (s Stage) Progress() Progress {
	return Progress{Stage: s, Label: s.Label(), Percent: s.Percent()}
}

func idleProgress() Progress {
	return Progress{Stage: StageIdle}
}

// noticeTTL is how long the transient save notice stays visible.
const noticeTTL = 5 * time.Second

// SaveNotice is the transient success notification shown after a save.
type SaveNotice struct {
	OrderID int
	ShownAt time.Time
}

// Session owns all mutable state for one document's lifecycle from selection
// through save. A Session must not be shared across concurrently running
// workflows; one in-flight document, one Session.
type Session struct {
	File         *File
	ImagePreview string // data URI, empty when no preview
	PDFPages     int
	SelectedPage int

	Progress Progress

	// Invoice is the original extracted record; immutable once set.
	// Draft is the user-editable copy, owned exclusively by the reconciler.
	Invoice *entity.InvoiceRecord
	Draft   *entity.InvoiceRecord

	RawOCRText      *string
	RawJSONResponse *string
	ShowComparison  bool

	SavedOrderID *int
	Notice       *SaveNotice
	Invoices     []entity.InvoiceHeader

	// Err is the current user-visible error message, empty when none.
	Err string
}

// resetExtraction clears everything produced by a previous extraction so no
// state leaks from one document into the next.
func (s *Session) resetExtraction() {
	s.Err = ""
	s.Invoice = nil
	s.Draft = nil
	s.RawOCRText = nil
	s.RawJSONResponse = nil
	s.ShowComparison = false
	s.Progress = idleProgress()
}

// NoticeActive reports whether the save notice is still within its display
// window at the given time.
func (s *Session) NoticeActive(now time.Time) bool {
	return s.Notice != nil && now.Sub(s.Notice.ShownAt) < noticeTTL
}
