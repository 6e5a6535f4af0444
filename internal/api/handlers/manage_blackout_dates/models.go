package manage_blackout_dates

// AddBlackoutDateRequest HTTP request model
type AddBlackoutDateRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}
