package feeds

import (
	"encoding/xml"
	"time"

	"bloggen/models"

	"github.com/samber/lo"
)

// RSS 2.0 document shape for XML marshalling.
//
// Note that XMLName is a Golang XML "magic" attribute.
type rssDocument struct {
	XMLName struct{} `xml:"rss"`

	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language,omitempty"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Guid        rssGuid  `xml:"guid"`
	PubDate     string   `xml:"pubDate"`
	Description string   `xml:"description"`
	Categories  []string `xml:"category"`
}

type rssGuid struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// ToXML renders a feed document as an RSS 2.0 payload
func ToXML(feed *models.Feed) ([]byte, error) {
	doc := rssDocument{
		Version: "2.0",
		Channel: rssChannel{
			Title:       feed.Title,
			Link:        feed.Site,
			Description: feed.Description,
			Language:    feed.Language,
			Items: lo.Map(feed.Items, func(item models.FeedItem, _ int) rssItem {
				return rssItem{
					Title:       item.Title,
					Link:        feed.Site + item.Link,
					Guid:        rssGuid{IsPermaLink: true, Value: feed.Site + item.Link},
					PubDate:     item.PubDate.UTC().Format(time.RFC1123Z),
					Description: item.Description,
					Categories:  item.Categories,
				}
			}),
		},
	}

	if len(feed.Items) > 0 {
		doc.Channel.LastBuildDate = feed.Items[0].PubDate.UTC().Format(time.RFC1123Z)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}

	return append([]byte(xml.Header), out...), nil
}
