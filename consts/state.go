package consts

const (
	// Analyst Team
	Agent_MomentumAnalyst = "Momentum Analyst"
)

const (
	// Tool names the momentum analyst is allowed to call.
	Tool_GetStockData  = "get_stock_data"
	Tool_GetIndicators = "get_indicators"
)

const DateLayout = "2006-01-02"
