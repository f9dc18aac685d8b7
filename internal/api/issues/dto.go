package issues

import (
	"encoding/base64"

	"vineyard-api/internal/api/httpx"
	"vineyard-api/internal/domain/issues"
)

// IssueRequest accepts both spellings of the reporter and resolver
// references; the _id form wins when both are sent.
type IssueRequest struct {
	VineID           *uint            `json:"vine_id"`
	VineLocationID   *uint            `json:"vine_location_id"`
	Description      *string          `json:"description"`
	ReportedBy       *uint            `json:"reported_by"`
	ReportedByID     *uint            `json:"reported_by_id"`
	IsResolved       *bool            `json:"is_resolved"`
	DateResolved     *httpx.Timestamp `json:"date_resolved"`
	ResolvedBy       *uint            `json:"resolved_by"`
	ResolvedByID     *uint            `json:"resolved_by_id"`
	PhotoDataBase64  *string          `json:"photo_data_base64"`
	PhotoContentType *string          `json:"photo_content_type"`
}

func (r IssueRequest) photo() *issues.PhotoUpload {
	if r.PhotoDataBase64 == nil || *r.PhotoDataBase64 == "" {
		return nil
	}
	p := &issues.PhotoUpload{Base64: *r.PhotoDataBase64}
	if r.PhotoContentType != nil {
		p.ContentType = *r.PhotoContentType
	}
	return p
}

// CreateInput maps the request; fallbackReporter is used when the body
// names no reporter.
func (r IssueRequest) CreateInput(fallbackReporter uint) issues.CreateInput {
	in := issues.CreateInput{
		VineID:         r.VineID,
		VineLocationID: r.VineLocationID,
		ReportedBy:     issues.CanonicalUserRef(r.ReportedBy, r.ReportedByID),
		DateResolved:   r.DateResolved.Ptr(),
		ResolvedBy:     issues.CanonicalUserRef(r.ResolvedBy, r.ResolvedByID),
		Photo:          r.photo(),
	}
	if r.Description != nil {
		in.Description = *r.Description
	}
	if r.IsResolved != nil {
		in.IsResolved = *r.IsResolved
	}
	if in.ReportedBy == nil && fallbackReporter != 0 {
		in.ReportedBy = &fallbackReporter
	}
	return in
}

func (r IssueRequest) UpdateInput() issues.UpdateInput {
	return issues.UpdateInput{
		Description:  r.Description,
		IsResolved:   r.IsResolved,
		DateResolved: r.DateResolved.Ptr(),
		ResolvedBy:   issues.CanonicalUserRef(r.ResolvedBy, r.ResolvedByID),
		Photo:        r.photo(),
	}
}

// ---------- responses

type IssueResponse struct {
	issues.Issue
	PhotoURL         *string `json:"photo_url"`
	PhotoContentType *string `json:"photo_content_type"`
}

func photoFields(i *issues.Issue) (*string, *string) {
	p := i.Photo()
	if p == nil {
		return nil, nil
	}
	url := i.PhotoURL()
	ct := p.MIME()
	return &url, &ct
}

func newIssueResponse(i *issues.Issue) IssueResponse {
	url, ct := photoFields(i)
	return IssueResponse{Issue: *i, PhotoURL: url, PhotoContentType: ct}
}

func newIssueResponses(list []issues.Issue) []IssueResponse {
	out := make([]IssueResponse, 0, len(list))
	for i := range list {
		out = append(out, newIssueResponse(&list[i]))
	}
	return out
}

type DetailsResponse struct {
	issues.Details
	PhotoURL         *string `json:"photo_url"`
	PhotoContentType *string `json:"photo_content_type"`
}

func newDetailsResponse(d *issues.Details) DetailsResponse {
	url, ct := photoFields(&d.Issue)
	return DetailsResponse{Details: *d, PhotoURL: url, PhotoContentType: ct}
}

// WithPhotoResponse carries the stored photo inline for clients that cannot
// make a second request.
type WithPhotoResponse struct {
	IssueResponse
	PhotoDataBase64 *string `json:"photo_data_base64"`
}

func encodePhoto(data []byte) *string {
	s := base64.StdEncoding.EncodeToString(data)
	return &s
}
