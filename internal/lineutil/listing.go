package lineutil

import (
	"fmt"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/ymgch/hime-linebot-go/internal/storage"
	"github.com/ymgch/hime-linebot-go/internal/textnorm"
)

const openListingLabel = "食べログで見る"

// ListingFlexMessage builds a flex card for a single restaurant listing.
// imageURL is the public URL of the listing's archived photo, may be empty.
func ListingFlexMessage(listing *storage.Listing, imageURL string) messaging_api.MessageInterface {
	var hero messaging_api.FlexComponentInterface
	if imageURL != "" {
		hero = NewFlexImage(imageURL)
	}

	body := NewFlexBox("vertical",
		NewFlexText(listing.Name).WithWeight("bold").WithSize("xl").WithWrap(true).FlexText,
		NewFlexBox("baseline",
			NewFlexText(fmt.Sprintf("★%.2f", listing.Score)).WithSize("sm").WithColor("#ff7043").FlexText,
			NewFlexText(listing.Station).WithSize("sm").WithColor("#999999").FlexText,
		).WithSpacing("md").WithMargin("md").FlexBox,
		NewFlexText(listing.Genre).WithSize("sm").WithWrap(true).FlexText,
		NewFlexText(listing.Hours).WithSize("xs").WithColor("#999999").WithWrap(true).FlexText,
	).WithSpacing("sm")

	footer := NewFlexBox("vertical",
		NewFlexButton(NewURIAction(openListingLabel, listing.URL)),
	)

	return NewFlexMessage(listing.Name, NewFlexBubble(hero, body, footer))
}

// ListingCarousel builds a carousel template from listings. imageURL maps a
// listing's image key to its public URL, empty values leave the column
// without a thumbnail.
func ListingCarousel(listings []*storage.Listing, imageURL func(key string) string) messaging_api.MessageInterface {
	columns := make([]CarouselColumn, 0, len(listings))
	for _, l := range listings {
		thumb := ""
		if l.ImageKey != "" && imageURL != nil {
			thumb = imageURL(l.ImageKey)
		}

		text := fmt.Sprintf("★%.2f %s %s", l.Score, l.Station, l.Genre)
		// Template columns with an image allow at most 60 bytes of text
		if len(text) > 60 {
			text = textnorm.TruncateRunes(text, 19) + "..."
		}

		title := l.Name
		if len(title) > 40 {
			title = textnorm.TruncateRunes(title, 12) + "..."
		}

		columns = append(columns, CarouselColumn{
			ThumbnailImageURL: thumb,
			Title:             title,
			Text:              text,
			Actions:           []Action{NewURIAction(openListingLabel, l.URL)},
		})
	}

	return NewCarouselTemplate("おすすめのお店", columns)
}
