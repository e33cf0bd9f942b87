// Package ui renders the server-side HTML dashboard.
package ui

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"kordash/internal/models"
)

const Brand = "South Korea Unemployment Analysis Dashboard"

// PageData is everything the dashboard page shows for one selection.
type PageData struct {
	Indicators []string
	Selected   string
	Range      models.YearRange
	Bounds     models.YearRange
	Cards      []models.SummaryCard
	Bundle     models.ChartBundle
}

// Render writes node as an HTML response.
func Render(w http.ResponseWriter, status int, node Node) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := node.Render(w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// DashboardPage is the single dashboard view.
func DashboardPage(d PageData) Node {
	return page(Brand,
		controls(d),
		cards(d.Cards),
		If(d.Bundle.Error != "", Div(Class("alert"), Role("alert"), Text(d.Bundle.Error))),
		If(d.Bundle.OK(), charts(d)),
		exports(d),
	)
}

// LoadingPage is served until the dataset has been loaded.
func LoadingPage() Node {
	return page(Brand,
		Meta(Attr("http-equiv", "refresh"), Content("2")),
		P(Text("Loading dataset...")),
	)
}

// ErrorPage reports a request that could not be served.
func ErrorPage(message string) Node {
	return page(Brand,
		Div(Class("alert"), Role("alert"), Text(message)),
		P(A(Href("/"), Text("Back to dashboard"))),
	)
}

func page(title string, body ...Node) Node {
	return Doctype(
		HTML(
			Lang("en"),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
				TitleEl(Text(title)),
				Link(Rel("icon"), Href("data:,")),
				Link(Rel("stylesheet"), Href("/static/app.css")),
			),
			Body(
				Header(Class("navbar"), H1(Text(title))),
				Main(Class("content"), Group(body)),
			),
		),
	)
}

func controls(d PageData) Node {
	options := make([]Node, 0, len(d.Indicators))
	for _, name := range d.Indicators {
		options = append(options, Option(Value(name), If(name == d.Selected, Selected()), Text(name)))
	}

	yearInput := func(name string, value int) Node {
		return Input(
			Type("number"), ID(name), Name(name),
			Min(strconv.Itoa(d.Bounds.From)), Max(strconv.Itoa(d.Bounds.To)), Step("1"),
			Value(strconv.Itoa(value)),
		)
	}

	return Form(Class("controls"), Method("get"), Action("/"),
		Div(
			Label(For("indicator"), Text("Select Unemployment Indicators")),
			Select(ID("indicator"), Name("indicator"), Group(options)),
		),
		Div(
			Label(For("from"), Text("Select Year Range")),
			yearInput("from", d.Range.From),
			Span(Text(" to ")),
			yearInput("to", d.Range.To),
		),
		Button(Type("submit"), Text("Update")),
	)
}

func cards(cs []models.SummaryCard) Node {
	nodes := make([]Node, 0, len(cs))
	for _, c := range cs {
		nodes = append(nodes, Div(Class("card"), Title(c.Indicator),
			H5(Text(c.Title)),
			P(Text(c.Text)),
		))
	}
	return Div(Class("cards"), Group(nodes))
}

func selectionQuery(d PageData) url.Values {
	q := url.Values{}
	q.Set("indicator", d.Selected)
	q.Set("from", strconv.Itoa(d.Range.From))
	q.Set("to", strconv.Itoa(d.Range.To))
	return q
}

func charts(d PageData) Node {
	q := selectionQuery(d)
	q.Set("format", "png")
	nodes := make([]Node, 0, len(d.Bundle.Charts))
	for _, c := range d.Bundle.Charts {
		nodes = append(nodes, Div(Class("card chart"), ID(c.ID),
			Img(Src("/api/charts/"+url.PathEscape(c.ID)+"?"+q.Encode()), Alt(c.Title), Loading("lazy")),
		))
	}
	return Section(Class("charts"), Group(nodes))
}

func exports(d PageData) Node {
	q := selectionQuery(d).Encode()
	return P(Class("exports"),
		A(Href("/api/export.xlsx?"+q), Text("Download workbook")),
		A(Href("/api/series.arrow?"+q), Text("Download Arrow series")),
		A(Href("/api/charts?"+q), Text("Chart data (JSON)")),
	)
}
