package entities

import (
	"regexp"
)

// Period values passed to handlers.
const (
	PeriodToday     = "today"
	PeriodYesterday = "yesterday"
	PeriodLastWeek  = "last_week"
	PeriodThisWeek  = "this_week"
	PeriodLastMonth = "last_month"
	PeriodThisMonth = "this_month"
	PeriodLastYear  = "last_year"
	PeriodThisYear  = "this_year"
)

var lastNDaysRe = regexp.MustCompile(`\b(?:last|past|ultimos)\s+(\d{1,3})\s+(?:days|dias)\b`)

func phrasePeriod(value string, res ...*regexp.Regexp) func(*Input) (string, bool) {
	return func(in *Input) (string, bool) {
		for _, re := range res {
			if re.MatchString(in.Text) {
				return value, true
			}
		}
		return "", false
	}
}

func words(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`\b(?:` + pattern + `)\b`)
}

// PeriodCascade resolves the period field. Patterns overlap ("last month" also
// contains "month"), so the order runs from most to least specific and must not
// change.
var PeriodCascade = Cascade{
	{Name: "today", Find: phrasePeriod(PeriodToday, words(`today|hoje`))},
	{Name: "yesterday", Find: phrasePeriod(PeriodYesterday, words(`yesterday|ontem`))},
	{Name: "last_n_days", Find: lastNDays},
	{Name: "last_week", Find: phrasePeriod(PeriodLastWeek, words(`last week|past week|semana passada|ultima semana`))},
	{Name: "this_week", Find: phrasePeriod(PeriodThisWeek, words(`this week|esta semana|essa semana|desta semana|nesta semana|nessa semana`))},
	{Name: "last_month", Find: phrasePeriod(PeriodLastMonth, words(`last month|past month|mes passado|ultimo mes`))},
	{Name: "last_year", Find: phrasePeriod(PeriodLastYear, words(`last year|past year|ano passado|ultimo ano`))},
	{Name: "this_year", Find: phrasePeriod(PeriodThisYear, words(`this year|este ano|esse ano|deste ano|neste ano|nesse ano`))},
	{Name: "this_month", Find: phrasePeriod(PeriodThisMonth, words(`this month|este mes|esse mes|deste mes|neste mes|nesse mes|month|mes`))},
}

func lastNDays(in *Input) (string, bool) {
	m := lastNDaysRe.FindStringSubmatch(in.Text)
	if m == nil {
		return "", false
	}
	return "last_" + m[1] + "_days", true
}
