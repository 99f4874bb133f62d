package ddg

import (
	"encoding/json"
	"fmt"
)

// ResponseType is the Instant Answer discriminator carried in the "Type" field.
type ResponseType string

const (
	TypeArticle        ResponseType = "A"
	TypeName           ResponseType = "N"
	TypeDisambiguation ResponseType = "D"
	TypeExclusive      ResponseType = "E"
	TypeCategory       ResponseType = "C"
	TypeNothing        ResponseType = ""
)

func (t ResponseType) String() string {
	switch t {
	case TypeArticle:
		return "Article"
	case TypeName:
		return "Name"
	case TypeDisambiguation:
		return "Disambiguation"
	case TypeExclusive:
		return "Exclusive"
	case TypeCategory:
		return "Category"
	case TypeNothing:
		return "Nothing"
	default:
		return fmt.Sprintf("Other(%s)", string(t))
	}
}

// Response is the subset of an Instant Answer reply the router reads.
type Response struct {
	Type          ResponseType `json:"Type"`
	Heading       string       `json:"Heading"`
	AbstractText  string       `json:"AbstractText"`
	AbstractURL   string       `json:"AbstractURL"`
	Image         string       `json:"Image"`
	Redirect      string       `json:"Redirect"`
	RelatedTopics []Topic      `json:"RelatedTopics"`
}

type Icon struct {
	URL string `json:"URL"`
}

// TopicResult is a leaf of the related topics tree.
type TopicResult struct {
	FirstURL string `json:"FirstURL"`
	Icon     Icon   `json:"Icon"`
	Text     string `json:"Text"`
}

// Topic is either a leaf result or a named group of further topics. A group
// always has a non-nil Topics slice, possibly empty.
type Topic struct {
	Leaf   TopicResult
	Name   string
	Topics []Topic
}

func LeafTopic(result TopicResult) Topic {
	return Topic{Leaf: result}
}

func GroupTopic(name string, children ...Topic) Topic {
	if children == nil {
		children = []Topic{}
	}
	return Topic{Name: name, Topics: children}
}

func (t Topic) IsGroup() bool {
	return t.Topics != nil
}

// UnmarshalJSON tells groups from leaves by the presence of a "Topics" array.
func (t *Topic) UnmarshalJSON(data []byte) error {
	var raw struct {
		TopicResult
		Name   string           `json:"Name"`
		Topics *json.RawMessage `json:"Topics"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Topics == nil {
		*t = LeafTopic(raw.TopicResult)
		return nil
	}
	children := []Topic{}
	if err := json.Unmarshal(*raw.Topics, &children); err != nil {
		return fmt.Errorf("decode topic group %q: %w", raw.Name, err)
	}
	*t = GroupTopic(raw.Name, children...)
	return nil
}

// Result is one postable search result. URL and Image are nil rather than
// pointing at an empty string.
type Result struct {
	Title string  `json:"title"`
	Text  string  `json:"text"`
	URL   *string `json:"url,omitempty"`
	Image *string `json:"image,omitempty"`
}

// NoneIfEmpty returns nil for "" and a pointer to value otherwise.
func NoneIfEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
