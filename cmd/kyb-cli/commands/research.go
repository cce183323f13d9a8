package commands

import (
	"fmt"
	"log"
	"os"

	"kyb-backend/lib/obsstore"

	"github.com/go-resty/resty/v2"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(researchCmd)
}

type researchResponse struct {
	Result *obsstore.Observation `json:"result"`
	Detail string                `json:"detail"`
}

var researchCmd = &cobra.Command{
	Use:   "research <business website url>",
	Short: "Researches a business website and prints the recorded observation.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "incorrect number of arguments")
			os.Exit(1)
		}

		client := resty.New()
		client.SetBaseURL(BaseUrl)

		var res researchResponse
		resp, err := client.R().
			SetContext(cmd.Context()).
			SetBody(map[string]string{"url": args[0]}).
			SetResult(&res).
			SetError(&res).
			Post("/new_entity")
		if err != nil {
			log.Fatal(err)
		}
		if resp.IsError() {
			if res.Detail != "" {
				log.Fatal(res.Detail)
			}
			log.Fatalf("server returned %s", resp.Status())
		}

		renderObservation(res.Result)
	},
}

func renderObservation(obs *obsstore.Observation) {
	companySize := "unknown"
	if obs.Network.CompanySize != nil {
		companySize = fmt.Sprint(*obs.Network.CompanySize)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendRows([]table.Row{
		{"Business", obs.BusinessName},
		{"Url", obs.BusinessUrl},
		{"Observed at", obs.CreatedAt.Format("Jan 2 2006 3:04 PM")},
		{"Change", string(obs.Category)},
		{"Summary", obs.BusinessSummary},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Yelp reviews", obs.Reviews.ReviewCount},
		{"Yelp rating", obs.Reviews.Rating},
		{"Google ratings", obs.Maps.TotalRatings},
		{"Google rating", obs.Maps.Rating},
		{"Company size", companySize},
	})

	deltas := deltaRows(obs.Deltas)
	if len(deltas) > 0 {
		t.AppendSeparator()
		t.AppendRows(deltas)
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}

func deltaRows(d obsstore.GrowthDeltas) []table.Row {
	rows := []table.Row{}
	appendDelta := func(label string, before, after *int64) {
		if before == nil || after == nil {
			return
		}
		rows = append(rows, table.Row{label, fmt.Sprintf("%d -> %d", *before, *after)})
	}
	appendDelta("Yelp reviews", d.OldYelpReviews, d.NewYelpReviews)
	appendDelta("Google reviews", d.OldGoogleReviews, d.NewGoogleReviews)
	appendDelta("Company size", d.OldCompanySize, d.NewCompanySize)
	return rows
}
