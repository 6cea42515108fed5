package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/IshaanNene/NewsGoat/internal/aggregate"
	"github.com/IshaanNene/NewsGoat/internal/store"
	"github.com/IshaanNene/NewsGoat/internal/textproc"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// render writes v in the --output format. Table output is delegated to
// printTable.
func render(v any, printTable func()) error {
	switch strings.ToLower(output) {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	case "", "table":
		printTable()
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", output)
	}
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	return t
}

func printCycle(res *aggregate.CycleResult) {
	t := newTable()
	t.AppendHeader(table.Row{"Source", "Scraped", "New", "Failures", "Duration", "Error"})
	for _, o := range res.Sources {
		errText := ""
		if o.Err != nil {
			errText = truncate(o.Err.Error(), 60)
		}
		t.AppendRow(table.Row{o.Source, o.Scraped, o.New, o.Failures, o.Duration.Round(time.Millisecond), errText})
	}
	t.AppendFooter(table.Row{"Total", res.Processed, res.New, "", res.Duration.Round(time.Millisecond), fmt.Sprintf("%d failed", res.Failed())})
	t.Render()

	if len(res.Duplicates) > 0 {
		fmt.Printf("%d near-identical articles among the new ones\n", len(res.Duplicates))
	}
}

func printArticles(articles []*types.Article) {
	if len(articles) == 0 {
		fmt.Println("No articles.")
		return
	}
	t := newTable()
	t.AppendHeader(table.Row{"Created", "Source", "Category", "Title", "Words", "Sentiment"})
	for _, a := range articles {
		t.AppendRow(table.Row{
			a.CreatedAt.Local().Format("2006-01-02 15:04"),
			a.Source,
			a.Category,
			truncate(a.Title, 70),
			a.WordCount,
			fmt.Sprintf("%+.2f", a.SentimentScore),
		})
	}
	t.Render()
}

func printArticle(a *types.Article, an textproc.Analysis) {
	t := newTable()
	t.AppendRows([]table.Row{
		{"Title", a.Title},
		{"URL", a.URL},
		{"Source", a.Source},
		{"Category", a.Category},
		{"Author", a.Author},
		{"Published", a.PublishedDate},
		{"Words", an.WordCount},
		{"Sentiment", fmt.Sprintf("%+.3f", an.Sentiment)},
		{"Language", an.Language},
		{"Readability", fmt.Sprintf("%.1f (%.1f words/sentence)", an.Readability.FleschScore, an.Readability.AvgSentenceLength)},
		{"Keywords", strings.Join(an.Keywords, ", ")},
		{"People", strings.Join(an.Entities.Persons, ", ")},
		{"Organizations", strings.Join(an.Entities.Organizations, ", ")},
		{"Locations", strings.Join(an.Entities.Locations, ", ")},
	})
	t.Render()
	if an.Summary != "" {
		fmt.Println()
		fmt.Println(an.Summary)
	}
}

func printStats(st *store.Statistics) {
	t := newTable()
	t.AppendRow(table.Row{"Total articles", st.Total})
	t.AppendRow(table.Row{"Last 24 hours", st.Last24h})
	if !st.LastUpdated.IsZero() {
		t.AppendRow(table.Row{"Last updated", st.LastUpdated.Local().Format(time.RFC1123)})
	}
	t.Render()

	printBuckets("Source", st.BySource)
	printBuckets("Category", st.ByCategory)
}

// printBuckets prints a count table ordered by count, then name.
func printBuckets(label string, m map[string]int) {
	if len(m) == 0 {
		return
	}
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		if m[names[i]] != m[names[j]] {
			return m[names[i]] > m[names[j]]
		}
		return names[i] < names[j]
	})

	t := newTable()
	t.AppendHeader(table.Row{label, "Articles (24h)"})
	for _, n := range names {
		t.AppendRow(table.Row{n, m[n]})
	}
	t.Render()
}

func printSources(sources []types.Source) {
	t := newTable()
	t.AppendHeader(table.Row{"Source", "Base URL", "Total", "Today", "Last Scraped", "Active"})
	for _, s := range sources {
		last := "never"
		if s.LastScraped != nil {
			last = s.LastScraped.Local().Format("2006-01-02 15:04")
		}
		t.AppendRow(table.Row{s.Name, s.BaseURL, s.TotalArticles, s.ArticlesToday, last, s.IsActive})
	}
	t.Render()
}

func printSessions(sessions []types.ScrapeSession) {
	if len(sessions) == 0 {
		fmt.Println("No sessions.")
		return
	}
	t := newTable()
	t.AppendHeader(table.Row{"Started", "Source", "Status", "Found", "Saved", "Duration", "Error"})
	for i := range sessions {
		s := &sessions[i]
		t.AppendRow(table.Row{
			s.StartTime.Local().Format("2006-01-02 15:04:05"),
			s.Source,
			s.Status,
			s.ArticlesFound,
			s.ArticlesSaved,
			s.Duration().Round(time.Millisecond),
			truncate(s.ErrorMessage, 50),
		})
	}
	t.Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
