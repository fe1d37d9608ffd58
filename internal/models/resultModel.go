package models

// SweepResult is one persisted grid row: the aggregate statistics of a
// single (tp, sl, horizon) combination for a given run. Percent
// variants of the stored fractions are derived on export and not
// duplicated here.
type SweepResult struct {
	ID     uint   `gorm:"primaryKey"`
	RunID  string `gorm:"index;not null"`
	Symbol string `gorm:"index;not null"`

	TPFrac      float64 `gorm:"column:tp_frac;not null"`
	SLFrac      float64 `gorm:"column:sl_frac;not null"`
	HorizonDays int     `gorm:"column:horizon_days;not null"`
	Spread      float64

	Trades      int
	Years       float64
	Label1Ratio float64 `gorm:"column:label1_ratio"`

	PnLLinear        float64 `gorm:"column:pnl_linear"`
	PnLLinearPerYear float64 `gorm:"column:pnl_linear_per_year"`
	PnLPerTrade      float64 `gorm:"column:pnl_per_trade"`
	MaxDrawdown      float64
	TradesPerYear    float64
	SharpeAnnual     float64
	CalmarRatio      float64
	EquityFinal      float64
	CompoundedReturn float64
	CompoundedCAGR   float64 `gorm:"column:compounded_cagr"`

	RatioTotalVsAsset  float64 `gorm:"column:ratio_total_vs_asset"`
	RatioAnnualVsAsset float64 `gorm:"column:ratio_annual_vs_asset"`
	RatioCAGRVsAsset   float64 `gorm:"column:ratio_cagr_vs_asset"`

	Candidate bool
	RankScore float64
}

// TableName sets the table name for SweepResult model
func (SweepResult) TableName() string {
	return "sweep_results"
}
