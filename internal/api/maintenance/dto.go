package maintenance

import (
	"vineyard-api/internal/api/httpx"
	"vineyard-api/internal/domain/maintenance"
)

type TypeRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (r TypeRequest) Input() maintenance.TypeInput {
	return maintenance.TypeInput{Name: r.Name, Description: r.Description}
}

type ActivityRequest struct {
	VineID         *uint            `json:"vine_id"`
	VineLocationID *uint            `json:"vine_location_id"`
	TypeID         *uint            `json:"type_id"`
	ActivityDate   *httpx.Timestamp `json:"activity_date"`
	Notes          *string          `json:"notes"`
}

func (r ActivityRequest) Input() maintenance.ActivityInput {
	return maintenance.ActivityInput{
		VineID:         r.VineID,
		VineLocationID: r.VineLocationID,
		TypeID:         r.TypeID,
		ActivityDate:   r.ActivityDate.Ptr(),
		Notes:          r.Notes,
	}
}
