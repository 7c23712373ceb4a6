package chart

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vendor-kpi/internal/kpi"
	"github.com/sells-group/vendor-kpi/internal/model"
	"github.com/sells-group/vendor-kpi/internal/scorer"
)

// Chart names, also used as file stems and API path segments.
const (
	NameLeaderboard   = "leaderboard"
	NameHeatmap       = "heatmap"
	NameDelayTrend    = "delay-trend"
	NameRadar         = "radar"
	NameSpendBox      = "spend-box"
	NameBubble        = "bubble"
	NameTopSpenders   = "top-spenders"
	NameReturnedItems = "returned-items"
)

// Names lists every chart in render order.
var Names = []string{
	NameLeaderboard,
	NameRadar,
	NameHeatmap,
	NameDelayTrend,
	NameSpendBox,
	NameBubble,
	NameTopSpenders,
	NameReturnedItems,
}

// Data is everything the charts draw from.
type Data struct {
	Rows        []model.VendorKPI
	Normalized  *scorer.Matrix
	Weekly      []kpi.WeekDelay
	Spend       []kpi.VendorSpend
	ItemReturns []kpi.ItemReturn
}

// Render draws the named chart. vendor selects the radar subject and is
// ignored by the other charts; an empty vendor means the first one.
func Render(name string, d Data, vendor string, opts Options) (*Chart, error) {
	switch name {
	case NameLeaderboard:
		return Leaderboard(d.Rows, opts), nil
	case NameHeatmap:
		return Heatmap(d.Rows, opts), nil
	case NameDelayTrend:
		return DelayTrend(d.Weekly, opts), nil
	case NameSpendBox:
		return SpendBox(d.Spend, opts), nil
	case NameBubble:
		return Bubble(d.Rows, opts), nil
	case NameTopSpenders:
		return TopSpenders(d.Rows, DefaultTopSpenders, opts), nil
	case NameReturnedItems:
		return ReturnedItems(d.ItemReturns, opts), nil
	case NameRadar:
		if d.Normalized == nil || len(d.Normalized.Vendors) == 0 {
			return nil, eris.New("chart: radar needs at least one vendor")
		}
		if vendor == "" {
			vendor = d.Normalized.Vendors[0]
		}
		return Radar(d.Normalized, vendor, opts)
	}
	return nil, &UnknownChartError{Name: name}
}

// UnknownChartError reports a chart name not in Names.
type UnknownChartError struct {
	Name string
}

func (e *UnknownChartError) Error() string {
	return fmt.Sprintf("chart: unknown chart %q", e.Name)
}

// RenderAll writes every chart into dir as <name>.png, with one
// radar-<vendor>.png per vendor. It returns the written paths.
func RenderAll(dir string, d Data, opts Options) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "chart: create %s", dir)
	}

	var paths []string
	save := func(c *Chart, stem string) error {
		path := filepath.Join(dir, stem+".png")
		if err := c.SavePNG(path); err != nil {
			return err
		}
		paths = append(paths, path)
		return nil
	}

	for _, name := range Names {
		if name == NameRadar {
			if d.Normalized == nil {
				continue
			}
			slugs := UniqueSlugs(d.Normalized.Vendors)
			for i, vendor := range d.Normalized.Vendors {
				c, err := Radar(d.Normalized, vendor, opts)
				if err != nil {
					return paths, err
				}
				if err := save(c, NameRadar+"-"+slugs[i]); err != nil {
					return paths, err
				}
			}
			continue
		}
		c, err := Render(name, d, "", opts)
		if err != nil {
			return paths, err
		}
		if err := save(c, name); err != nil {
			return paths, err
		}
	}

	zap.L().Info("chart: rendered charts", zap.String("dir", dir), zap.Int("files", len(paths)))
	return paths, nil
}

// Slug lowercases s and replaces runs of non-alphanumerics with one dash.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "vendor"
	}
	return out
}

// UniqueSlugs slugs every name, suffixing repeats with -2, -3 and so on so
// that no two names share a file stem. Order follows names.
func UniqueSlugs(names []string) []string {
	taken := make(map[string]bool, len(names))
	out := make([]string, len(names))
	for i, name := range names {
		base := Slug(name)
		slug := base
		for n := 2; taken[slug]; n++ {
			slug = fmt.Sprintf("%s-%d", base, n)
		}
		taken[slug] = true
		out[i] = slug
	}
	return out
}
