package utils

const ShortDashDateLayout = "2006-01-02"

const (
	CurrencyUSD = "USD"
	CurrencyCAD = "CAD"
)

// ChartColors is the palette used for portfolio charts.
var ChartColors = []string{
	"#80b3ff", // Light Blue
	"#ffa366", // Light Orange
	"#a3d977", // Light Green
	"#ff8080", // Light Red
	"#c285ff", // Light Purple
	"#80e6d4", // Light Teal
}

// GetChartColor cycles through ChartColors.
func GetChartColor(index int) string {
	return ChartColors[index%len(ChartColors)]
}
