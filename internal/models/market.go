package models

// StockDataInput is the argument set of the get_stock_data tool.
type StockDataInput struct {
	Symbol    string `json:"symbol"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// IndicatorInput is the argument set of the get_indicators tool.
type IndicatorInput struct {
	Symbol       string `json:"symbol"`
	Indicator    string `json:"indicator"`
	CurrDate     string `json:"curr_date"`
	LookBackDays int    `json:"look_back_days"`
}
