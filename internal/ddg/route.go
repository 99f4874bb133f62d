package ddg

import (
	"fmt"

	"github.com/dwizi/autobot/internal/boterr"
)

const NoResultsNotice = "No results."

// Outcome is what a search command should post: either Results in order, a
// Notice, or an Err whose message is shown to the user.
type Outcome struct {
	Results []Result
	Notice  string
	Err     error
}

// Route picks the results to post for response. Every result is titled with
// the original query.
func Route(query string, response Response) Outcome {
	switch response.Type {
	case TypeArticle, TypeName:
		return Outcome{Results: []Result{{
			Title: query,
			Text:  response.AbstractText,
			URL:   NoneIfEmpty(response.AbstractURL),
			Image: NoneIfEmpty(response.Image),
		}}}
	case TypeDisambiguation:
		results := []Result{}
		for _, related := range response.RelatedTopics {
			for _, leaf := range Flatten(related) {
				results = append(results, Result{
					Title: query,
					Text:  leaf.Text,
					URL:   NoneIfEmpty(leaf.FirstURL),
					Image: NoneIfEmpty(leaf.Icon.URL),
				})
			}
		}
		return Outcome{Results: results}
	case TypeExclusive:
		return Outcome{Results: []Result{{
			Title: query,
			Text:  response.Redirect,
			URL:   NoneIfEmpty(response.Redirect),
		}}}
	case TypeNothing:
		return Outcome{Notice: NoResultsNotice}
	default:
		return Outcome{Err: fmt.Errorf("%s - %w", response.Type, boterr.ErrUnknownResponseType)}
	}
}
