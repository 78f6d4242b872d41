package dto

// ReopenPeriodRequest carries the mandatory reason for reopening a closed month.
type ReopenPeriodRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// CalculateVATRequest selects the quarter to aggregate.
type CalculateVATRequest struct {
	Year    int `json:"year" binding:"required,min=1900,max=9999"`
	Quarter int `json:"quarter" binding:"required,min=1,max=4"`
}
