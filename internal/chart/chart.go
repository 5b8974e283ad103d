// Package chart renders dashboard charts as PNG images.
package chart

import (
	"bytes"
	"errors"
	"fmt"

	"expense-tracker/internal/stats"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	incomeColor  = drawing.ColorFromHex("10B981")
	expenseColor = drawing.ColorFromHex("EF4444")
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no data to render")

// RenderTrends draws income and expense lines for the monthly trend.
func RenderTrends(trends []stats.MonthTrend) ([]byte, error) {
	if len(trends) == 0 {
		return nil, ErrNoData
	}

	xs := make([]float64, len(trends))
	incomes := make([]float64, len(trends))
	expenses := make([]float64, len(trends))
	ticks := make([]gochart.Tick, len(trends))
	maxY := 1.0
	for i, tr := range trends {
		xs[i] = float64(i)
		incomes[i] = tr.Income.InexactFloat64()
		expenses[i] = tr.Expenses.InexactFloat64()
		ticks[i] = gochart.Tick{Value: float64(i), Label: tr.Month}
		maxY = max(maxY, incomes[i], expenses[i])
	}

	graph := gochart.Chart{
		Width:  900,
		Height: 450,
		Background: gochart.Style{
			Padding:   gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
			FillColor: gochart.ColorWhite,
		},
		XAxis: gochart.XAxis{
			Ticks: ticks,
			Range: &gochart.ContinuousRange{Min: 0, Max: float64(len(trends) - 1)},
		},
		YAxis: gochart.YAxis{
			// 全部为 0 时 go-chart 无法计算刻度，这里固定下限并保证上限大于 0
			Range: &gochart.ContinuousRange{Min: 0, Max: maxY * 1.1},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    "Income",
				XValues: xs,
				YValues: incomes,
				Style:   gochart.Style{StrokeColor: incomeColor, StrokeWidth: 3},
			},
			gochart.ContinuousSeries{
				Name:    "Expenses",
				XValues: xs,
				YValues: expenses,
				Style:   gochart.Style{StrokeColor: expenseColor, StrokeWidth: 3},
			},
		},
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(gochart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render trends: %w", err)
	}
	return buffer.Bytes(), nil
}

// RenderCategories draws the expense breakdown as a pie chart.
func RenderCategories(totals []stats.CategoryTotal) ([]byte, error) {
	values := make([]gochart.Value, 0, len(totals))
	for _, ct := range totals {
		v := ct.Total.InexactFloat64()
		if v <= 0 {
			continue
		}
		values = append(values, gochart.Value{
			Label: fmt.Sprintf("%s: %s", ct.Name, ct.Total.StringFixed(2)),
			Value: v,
			Style: gochart.Style{FillColor: parseColor(ct.Color)},
		})
	}
	if len(values) == 0 {
		return nil, ErrNoData
	}

	pie := gochart.PieChart{
		Width:  600,
		Height: 600,
		Values: values,
		Background: gochart.Style{
			Padding:   gochart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
			FillColor: gochart.ColorWhite,
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := pie.Render(gochart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render categories: %w", err)
	}
	return buffer.Bytes(), nil
}

func parseColor(hex string) drawing.Color {
	if len(hex) == 7 && hex[0] == '#' {
		return drawing.ColorFromHex(hex[1:])
	}
	return drawing.ColorFromHex("6B7280")
}
