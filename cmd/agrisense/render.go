package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-agrisense/flows"
	"go-agrisense/guard"
	"go-agrisense/models"
	"go-agrisense/utils"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("34"))
	cropStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	mutedStyle = lipgloss.NewStyle().Faint(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("28")).
			Padding(0, 1)
)

func renderRedirect(route guard.Route, to string) string {
	return mutedStyle.Render(fmt.Sprintf("%s requires a signed-in user (redirect to %s). Run `agrisense login` first.", route.Title, to))
}

func renderPrediction(v flows.PredictionView) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(flows.ResultsTitle))
	b.WriteString("\n")
	switch {
	case v.Error != "":
		b.WriteString(errorStyle.Render(v.Error))
	case v.HasResult():
		b.WriteString(cropStyle.Render(v.Crop))
		b.WriteString("\n")
		b.WriteString(flows.FertilizerHeading + ": " + v.Fertilizer)
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(v.PredictionID))
	case v.Busy:
		b.WriteString(mutedStyle.Render("Predicting..."))
	default:
		b.WriteString(mutedStyle.Render(v.Placeholder))
	}
	return panelStyle.Render(b.String())
}

func renderDashboard(v flows.DashboardView) string {
	var preds strings.Builder
	preds.WriteString(titleStyle.Render("Recent Predictions"))
	preds.WriteString("\n")
	if v.PredictionsEmpty != "" {
		preds.WriteString(mutedStyle.Render(v.PredictionsEmpty))
	} else {
		width := 0
		for _, l := range v.PredictionLabels {
			width = max(width, len(l))
		}
		for i, l := range v.PredictionLabels {
			if i > 0 {
				preds.WriteString("\n")
			}
			fmt.Fprintf(&preds, "%-*s │%s", width, l, strings.Repeat("██", v.ChartValues[i]))
		}
	}

	var dets strings.Builder
	dets.WriteString(titleStyle.Render("Recent Disease Detections"))
	dets.WriteString("\n")
	if v.DetectionsEmpty != "" {
		dets.WriteString(mutedStyle.Render(v.DetectionsEmpty))
	} else {
		for i, d := range v.Detections {
			if i > 0 {
				dets.WriteString("\n")
			}
			fmt.Fprintf(&dets, "%s  Confidence: %s  %s", d.Disease, d.Confidence, mutedStyle.Render(d.Image))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(v.Greeting),
		panelStyle.Render(preds.String()),
		panelStyle.Render(dets.String()),
	)
}

func renderUser(u *models.User) string {
	lines := []string{
		titleStyle.Render(u.DisplayName()),
		"username: " + u.Username,
	}
	if u.Email != "" {
		lines = append(lines, "email: "+u.Email)
	}
	return strings.Join(lines, "\n")
}

func renderProfiles(ps []models.FarmerProfile) string {
	if len(ps) == 0 {
		return mutedStyle.Render("No farmer profile yet. Run `agrisense profile set --location <place>`.")
	}
	lines := make([]string, 0, len(ps))
	for _, p := range ps {
		lines = append(lines, fmt.Sprintf("%s  %s  %.2f acres", p.User.Username, p.Location, p.FarmSize))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func renderForm() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Crop Prediction"))
	for _, f := range models.SoilFields {
		fmt.Fprintf(&b, "\n  --%-12s %s", f, flows.FieldLabels[f])
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(flows.ResultPlaceholder))
	return b.String()
}

func renderRecords(p *models.PredictionPage) string {
	if len(p.Data) == 0 {
		return mutedStyle.Render(flows.NoPredictionsMessage)
	}
	lines := make([]string, 0, len(p.Data)+1)
	for _, r := range p.Data {
		lines = append(lines, fmt.Sprintf("#%-4d %-12s %s  %s",
			r.ID, r.PredictedCrop, r.CreatedAt.Format("2006-01-02 15:04"), mutedStyle.Render(r.FertilizerRecommendation)))
	}
	pages := (p.TotalCount + p.PageSize - 1) / max(p.PageSize, 1)
	lines = append(lines, mutedStyle.Render(fmt.Sprintf("page %d of %d, %d records", p.CurrentPage, pages, p.TotalCount)))
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func renderRecord(r models.CropPrediction) string {
	var b strings.Builder
	b.WriteString(cropStyle.Render(utils.Capitalize(r.PredictedCrop)))
	vals := []float64{r.Nitrogen, r.Phosphorus, r.Potassium, r.Temperature, r.Humidity, r.PH, r.Rainfall}
	for i, f := range models.SoilFields {
		fmt.Fprintf(&b, "\n%-22s %g", flows.FieldLabels[f], vals[i])
	}
	b.WriteString("\n" + flows.FertilizerHeading + ": " + r.FertilizerRecommendation)
	fmt.Fprintf(&b, "\n%s", mutedStyle.Render(fmt.Sprintf("Prediction ID: %d", r.ID)))
	return panelStyle.Render(b.String())
}
