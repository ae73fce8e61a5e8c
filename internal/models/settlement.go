package models

import "time"

// Form holds the free-form settlement fields exactly as submitted.
// Values are forwarded verbatim; amounts are not parsed.
type Form struct {
	Email         string `json:"email" form:"email" msgpack:"email"`
	Name          string `json:"name" form:"name" msgpack:"name"`
	AdvSetlDate   string `json:"advSetlDate" form:"advSetlDate" msgpack:"advSetlDate"`
	Area          string `json:"area" form:"area" msgpack:"area"`
	PlaceProg     string `json:"placeProg" form:"placeProg" msgpack:"placeProg"`
	Project       string `json:"project" form:"project" msgpack:"project"`
	PrjCode       string `json:"prjCode" form:"prjCode" msgpack:"prjCode"`
	Coversheet    string `json:"coversheet" form:"coversheet" msgpack:"coversheet"`
	DateProg      string `json:"dateProg" form:"dateProg" msgpack:"dateProg"`
	ProgTitle     string `json:"progTitle" form:"progTitle" msgpack:"progTitle"`
	Summary       string `json:"summary" form:"summary" msgpack:"summary"`
	Food          string `json:"food" form:"food" msgpack:"food"`
	Travel        string `json:"travel" form:"travel" msgpack:"travel"`
	Stationery    string `json:"stationery" form:"stationery" msgpack:"stationery"`
	Printing      string `json:"printing" form:"printing" msgpack:"printing"`
	Accom         string `json:"accom" form:"accom" msgpack:"accom"`
	Communication string `json:"communication" form:"communication" msgpack:"communication"`
	Resource      string `json:"resource" form:"resource" msgpack:"resource"`
	Other         string `json:"other" form:"other" msgpack:"other"`
	Total         string `json:"total" form:"total" msgpack:"total"`
	InWord        string `json:"inword" form:"inword" msgpack:"inword"`
	Vendor        string `json:"vendor" form:"vendor" msgpack:"vendor"`
	Individual    string `json:"individual" form:"individual" msgpack:"individual"`
	TotalAdvTake  string `json:"totalAdvTake" form:"totalAdvTake" msgpack:"totalAdvTake"`
	Receivable    string `json:"receivable" form:"receivable" msgpack:"receivable"`
}

// Fields returns pointers to every form field in ledger column order.
// Storage backends use it to bind insert arguments and scan targets.
func (f *Form) Fields() []*string {
	return []*string{
		&f.Email, &f.Name, &f.AdvSetlDate, &f.Area, &f.PlaceProg,
		&f.Project, &f.PrjCode, &f.Coversheet, &f.DateProg, &f.ProgTitle,
		&f.Summary, &f.Food, &f.Travel, &f.Stationery, &f.Printing,
		&f.Accom, &f.Communication, &f.Resource, &f.Other, &f.Total,
		&f.InWord, &f.Vendor, &f.Individual, &f.TotalAdvTake, &f.Receivable,
	}
}

// Settlement is the persisted record for one form submission.
type Settlement struct {
	ID string `json:"id" msgpack:"id"`
	Form
	// Files holds external file ids in attachment order. Empty until the
	// background upload stage completes.
	Files     []string  `json:"files" msgpack:"files"`
	CreatedAt time.Time `json:"createdAt" msgpack:"createdAt"`
}

// NewSettlement builds an unsaved record with an empty, non-nil file list.
func NewSettlement(form Form) *Settlement {
	return &Settlement{
		Form:  form,
		Files: []string{},
	}
}

// Clone returns a deep copy so a snapshot can cross goroutines safely.
func (s *Settlement) Clone() *Settlement {
	c := *s
	c.Files = append([]string{}, s.Files...)
	return &c
}

// Attachment is an uploaded file held in memory for the duration of a request.
type Attachment struct {
	Name     string
	MIMEType string
	Data     []byte
}
