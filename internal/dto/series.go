package dto

// CreateSeriesRequest is the payload for POST /series.
type CreateSeriesRequest struct {
	Title string `json:"title" validate:"required,max=120"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}
