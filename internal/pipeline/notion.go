package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jomei/notionapi"
)

// NotionStore persists publication records as pages in a Notion
// database. It implements the Store interface used by the gate and
// the publication loop.
type NotionStore struct {
	client *notionapi.Client
	dbID   notionapi.DatabaseID
}

// NewNotionStore creates a Notion-backed store
func NewNotionStore(token, databaseID string) (*NotionStore, error) {
	if token == "" {
		return nil, fmt.Errorf("NOTION_TOKEN is required")
	}
	if databaseID == "" {
		return nil, fmt.Errorf("DATABASE_ID is required")
	}

	return &NotionStore{
		client: notionapi.NewClient(notionapi.Token(token)),
		dbID:   notionapi.DatabaseID(databaseID),
	}, nil
}

// ExistsByLink queries the database for a page whose URL property
// equals the given link
func (ns *NotionStore) ExistsByLink(ctx context.Context, link string) (bool, error) {
	resp, err := ns.client.Database.Query(ctx, ns.dbID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "URL",
			RichText: &notionapi.TextFilterCondition{
				Equals: link,
			},
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to query Notion database: %w", err)
	}
	return len(resp.Results) > 0, nil
}

// Create adds a new page for the record and returns its Notion URL.
//
// The page gets the full property set (title, URL, summary, source,
// themes, tags, relevancy, age, fetch date) plus optional PDF and
// publication date properties when the record carries them. The page
// body holds the summary and any extracted PDF text as blocks, so
// they survive the 2000-character property limit.
func (ns *NotionStore) Create(ctx context.Context, rec PublicationRecord) (string, error) {
	if len(rec.Themes) == 0 {
		rec.Themes = []string{generalTheme}
	}

	properties := notionapi.Properties{
		"Title": notionapi.TitleProperty{
			Type: notionapi.PropertyTypeTitle,
			Title: []notionapi.RichText{
				{
					Text: &notionapi.Text{
						Content: rec.Title,
					},
				},
			},
		},
		"URL": notionapi.URLProperty{
			Type: notionapi.PropertyTypeURL,
			URL:  rec.Link,
		},
		"Summary": notionapi.RichTextProperty{
			Type: notionapi.PropertyTypeRichText,
			RichText: []notionapi.RichText{
				{
					Text: &notionapi.Text{
						Content: truncateText(rec.Summary, 2000), // Notion limit
					},
				},
			},
		},
		"Source": notionapi.SelectProperty{
			Type: notionapi.PropertyTypeSelect,
			Select: notionapi.Option{
				Name: orUnknown(rec.Source),
			},
		},
		"Notes": notionapi.RichTextProperty{
			Type: notionapi.PropertyTypeRichText,
			RichText: []notionapi.RichText{
				{
					Text: &notionapi.Text{
						Content: fmt.Sprintf("Source Type: %s", rec.SourceType),
					},
				},
			},
		},
		"Themes": notionapi.SelectProperty{
			Type: notionapi.PropertyTypeSelect,
			Select: notionapi.Option{
				Name: capitalize(rec.Themes[0]), // primary theme
			},
		},
		"Categories": notionapi.MultiSelectProperty{
			Type:        notionapi.PropertyTypeMultiSelect,
			MultiSelect: themeOptions(rec.Themes),
		},
		"Tags": notionapi.MultiSelectProperty{
			Type:        notionapi.PropertyTypeMultiSelect,
			MultiSelect: tagOptions(rec.Tags),
		},
		"Relevancy Score": notionapi.NumberProperty{
			Type:   notionapi.PropertyTypeNumber,
			Number: round2(rec.Relevancy),
		},
		"Status": notionapi.SelectProperty{
			Type: notionapi.PropertyTypeSelect,
			Select: notionapi.Option{
				Name: "New",
			},
		},
		"Article Age": notionapi.NumberProperty{
			Type:   notionapi.PropertyTypeNumber,
			Number: float64(rec.AgeDays),
		},
		"Fetch Date": notionapi.DateProperty{
			Type: notionapi.PropertyTypeDate,
			Date: &notionapi.DateObject{
				Start: dateOf(rec.FetchedAt),
			},
		},
	}

	if rec.HasPublishedAt() {
		properties["Publication Date"] = notionapi.DateProperty{
			Type: notionapi.PropertyTypeDate,
			Date: &notionapi.DateObject{
				Start: dateOf(rec.PublishedAt),
			},
		}
	}

	if rec.PDFLink != "" {
		properties["PDF Link"] = notionapi.URLProperty{
			Type: notionapi.PropertyTypeURL,
			URL:  rec.PDFLink,
		}
	}
	if rec.PDFPath != "" {
		properties["PDF Local Path"] = notionapi.RichTextProperty{
			Type: notionapi.PropertyTypeRichText,
			RichText: []notionapi.RichText{
				{
					Text: &notionapi.Text{
						Content: rec.PDFPath,
					},
				},
			},
		}
	}
	if rec.PDFInsights != "" {
		properties["PDF Insights"] = notionapi.RichTextProperty{
			Type: notionapi.PropertyTypeRichText,
			RichText: []notionapi.RichText{
				{
					Text: &notionapi.Text{
						Content: truncateText(rec.PDFInsights, 2000),
					},
				},
			},
		}
	}

	children := []notionapi.Block{
		headingBlock("Summary"),
		paragraphBlock(truncateText(rec.Summary, 2000)),
	}
	if rec.PDFInsights != "" {
		children = append(children,
			headingBlock("PDF Text"),
			paragraphBlock(truncateText(rec.PDFInsights, 2000)),
		)
	}

	pageRequest := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: ns.dbID,
		},
		Properties: properties,
		Children:   children,
	}

	page, err := ns.client.Page.Create(ctx, pageRequest)
	if err != nil {
		return "", fmt.Errorf("failed to create Notion page: %w", err)
	}

	return page.URL, nil
}

// headingBlock builds a level-2 heading block
func headingBlock(text string) notionapi.Block {
	return notionapi.Heading2Block{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeHeading2,
		},
		Heading2: notionapi.Heading{
			RichText: []notionapi.RichText{
				{
					Text: &notionapi.Text{
						Content: text,
					},
				},
			},
		},
	}
}

// paragraphBlock builds a paragraph block
func paragraphBlock(text string) notionapi.Block {
	return notionapi.ParagraphBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeParagraph,
		},
		Paragraph: notionapi.Paragraph{
			RichText: []notionapi.RichText{
				{
					Text: &notionapi.Text{
						Content: text,
					},
				},
			},
		},
	}
}

// themeOptions converts theme names to capitalized multi-select options
func themeOptions(themes []string) []notionapi.Option {
	opts := make([]notionapi.Option, 0, len(themes))
	for _, t := range themes {
		opts = append(opts, notionapi.Option{Name: capitalize(t)})
	}
	return opts
}

// tagOptions converts tags to multi-select options as-is
func tagOptions(tags []string) []notionapi.Option {
	opts := make([]notionapi.Option, 0, len(tags))
	for _, t := range tags {
		opts = append(opts, notionapi.Option{Name: t})
	}
	return opts
}

// dateOf wraps a time.Time in the pointer form the API expects
func dateOf(t time.Time) *notionapi.Date {
	d := notionapi.Date(t)
	return &d
}

// round2 rounds to two decimal places for display
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// orUnknown substitutes a placeholder for an empty source name
func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
