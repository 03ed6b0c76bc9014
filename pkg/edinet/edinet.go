// Package edinet talks to the EDINET API v2 run by Japan's Financial
// Services Agency: daily filing lists and the ZIP packages holding each
// filing's XBRL instance.
package edinet

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/horiken1977/roic-sub001/pkg/fiscal"
)

// DocTypeAnnualReport is the docTypeCode of an annual securities report
// (有価証券報告書).
const DocTypeAnnualReport = "120"

const submitLayout = "2006-01-02 15:04"

var jst = time.FixedZone("JST", 9*60*60)

// FilingSummary is one row of a daily filing list.
type FilingSummary struct {
	DocumentID       string `json:"docID"`
	EdinetCode       string `json:"edinetCode"`
	SecCode          string `json:"secCode"`
	FilerName        string `json:"filerName"`
	DocTypeCode      string `json:"docTypeCode"`
	OrdinanceCode    string `json:"ordinanceCode"`
	FormCode         string `json:"formCode"`
	PeriodStart      string `json:"periodStart"`
	PeriodEnd        string `json:"periodEnd"`
	SubmitDateTime   string `json:"submitDateTime"`
	DocDescription   string `json:"docDescription"`
	WithdrawalStatus string `json:"withdrawalStatus"`
	XBRLFlag         string `json:"xbrlFlag"`
}

// SubmittedAt parses SubmitDateTime, which EDINET reports in JST.
func (f FilingSummary) SubmittedAt() (time.Time, error) {
	return time.ParseInLocation(submitLayout, f.SubmitDateTime, jst)
}

// PeriodEndDate parses PeriodEnd.
func (f FilingSummary) PeriodEndDate() (time.Time, error) {
	if f.PeriodEnd == "" {
		return time.Time{}, fmt.Errorf("document %s has no period end", f.DocumentID)
	}
	return fiscal.ParseDate(f.PeriodEnd)
}

// IsAnnualReport reports whether the row is a live annual securities report
// carrying XBRL.
func (f FilingSummary) IsAnnualReport() bool {
	return f.DocTypeCode == DocTypeAnnualReport &&
		(f.WithdrawalStatus == "" || f.WithdrawalStatus == "0") &&
		f.XBRLFlag == "1"
}

// MatchesCompany reports whether the row belongs to companyID, which is
// either an EDINET code (E12345) or a 4 or 5 digit securities code.
func (f FilingSummary) MatchesCompany(companyID string) bool {
	id := strings.ToUpper(strings.TrimSpace(companyID))
	if id == "" {
		return false
	}
	if strings.HasPrefix(id, "E") {
		return strings.EqualFold(f.EdinetCode, id)
	}
	if len(id) == 4 {
		return len(f.SecCode) == 5 && strings.HasPrefix(f.SecCode, id)
	}
	return f.SecCode == id
}

type metadata struct {
	Title     string `json:"title"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	ResultSet struct {
		Count int `json:"count"`
	} `json:"resultset"`
}

// DocumentList is the body of documents.json?type=2.
type DocumentList struct {
	Metadata metadata        `json:"metadata"`
	Results  []FilingSummary `json:"results"`
}

// errorBody is what EDINET returns instead of a package when a request fails.
type errorBody struct {
	Metadata metadata `json:"metadata"`
	// the v2 API sometimes nests errors this way (e.g. bad subscription key)
	StatusCode int    `json:"StatusCode"`
	Message    string `json:"message"`
}

func (e errorBody) String() string {
	if e.Metadata.Message != "" {
		return fmt.Sprintf("%s %s", e.Metadata.Status, e.Metadata.Message)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, e.Message)
}

// ErrDocumentUnavailable is matched by every DocumentUnavailableError.
var ErrDocumentUnavailable = errors.New("document unavailable")

// DocumentUnavailableError reports that a filing's XBRL could not be
// retrieved or unpacked. Callers may retry.
type DocumentUnavailableError struct {
	DocumentID string
	Reason     string
	Err        error
}

func (e *DocumentUnavailableError) Error() string {
	msg := "document unavailable"
	if e.DocumentID != "" {
		msg += " " + e.DocumentID
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DocumentUnavailableError) Unwrap() error { return e.Err }

func (e *DocumentUnavailableError) Is(target error) bool {
	return target == ErrDocumentUnavailable
}
