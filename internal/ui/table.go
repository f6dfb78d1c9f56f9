package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Cell is one styled table cell
type Cell struct {
	Text  string
	Style lipgloss.Style
}

// RenderTable renders headers and rows as a box-drawn table. Column
// widths grow to fit the widest cell, with the header width as the
// floor.
func RenderTable(headers []string, rows [][]Cell) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, c := range row {
			if i >= len(widths) {
				break
			}
			if w := runewidth.StringWidth(c.Text); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var sb strings.Builder

	rule := func(left, mid, right string) {
		sb.WriteString(BorderStyle.Render(left))
		for i, w := range widths {
			sb.WriteString(BorderStyle.Render(strings.Repeat(Horizontal, w+2)))
			if i < len(widths)-1 {
				sb.WriteString(BorderStyle.Render(mid))
			}
		}
		sb.WriteString(BorderStyle.Render(right))
		sb.WriteString("\n")
	}

	rule(TopLeft, TopT, TopRight)

	// Header row
	sb.WriteString(BorderStyle.Render(Vertical))
	for i, h := range headers {
		cell := " " + padRight(h, widths[i]) + " "
		sb.WriteString(HeaderStyle.Render(cell))
		sb.WriteString(BorderStyle.Render(Vertical))
	}
	sb.WriteString("\n")

	rule(LeftT, Cross, RightT)

	// Data rows
	for _, row := range rows {
		sb.WriteString(BorderStyle.Render(Vertical))
		for i := range headers {
			var c Cell
			if i < len(row) {
				c = row[i]
			}
			cell := " " + padRight(c.Text, widths[i]) + " "
			sb.WriteString(c.Style.Render(cell))
			sb.WriteString(BorderStyle.Render(Vertical))
		}
		sb.WriteString("\n")
	}

	rule(BottomLeft, BottomT, BottomRight)

	return sb.String()
}

// RenderDetails renders label/value pairs in a titled box
func RenderDetails(title string, details [][2]string) string {
	labelWidth := 0
	for _, d := range details {
		if w := runewidth.StringWidth(d[0]); w > labelWidth {
			labelWidth = w
		}
	}
	labelWidth += 2

	width := 60
	for _, d := range details {
		lineLen := 1 + labelWidth + runewidth.StringWidth(d[1]) + 1
		if lineLen > width {
			width = lineLen
		}
	}

	var sb strings.Builder

	sb.WriteString(BorderStyle.Render(TopLeft))
	sb.WriteString(BorderStyle.Render(strings.Repeat(Horizontal, width)))
	sb.WriteString(BorderStyle.Render(TopRight))
	sb.WriteString("\n")

	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString(HeaderStyle.Render(padToWidth(" "+title, width)))
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString("\n")

	sb.WriteString(BorderStyle.Render(LeftT))
	sb.WriteString(BorderStyle.Render(strings.Repeat(Horizontal, width)))
	sb.WriteString(BorderStyle.Render(RightT))
	sb.WriteString("\n")

	for _, d := range details {
		sb.WriteString(BorderStyle.Render(Vertical))
		line := " " + padRight(d[0], labelWidth) + d[1]
		lineWidth := runewidth.StringWidth(line)
		if lineWidth < width {
			line += strings.Repeat(" ", width-lineWidth)
		}
		sb.WriteString(line)
		sb.WriteString(BorderStyle.Render(Vertical))
		sb.WriteString("\n")
	}

	sb.WriteString(BorderStyle.Render(BottomLeft))
	sb.WriteString(BorderStyle.Render(strings.Repeat(Horizontal, width)))
	sb.WriteString(BorderStyle.Render(BottomRight))
	sb.WriteString("\n")

	return sb.String()
}
