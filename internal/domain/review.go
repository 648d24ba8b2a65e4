package domain

// SentimentLabel classifies the tone of a review's text.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// ValidSentimentLabel reports whether the label is one the catalog accepts.
// Backend responses are untrusted; anything else is coerced to neutral.
func ValidSentimentLabel(l SentimentLabel) bool {
	switch l {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// Sentiment is the analysis result attached to a review once its
// enrichment job completes.
type Sentiment struct {
	Label      SentimentLabel `json:"label"`
	Confidence float64        `json:"confidence"` // 0.0 - 1.0
}

// Review is a member's rating and optional written opinion of a book.
// Each user may review a given book once. Sentiment is nil until the
// asynchronous analysis finishes; a review with empty text never gets one.
type Review struct {
	Entity
	UserID    string     `json:"user_id"`
	BookID    string     `json:"book_id"`
	Rating    int        `json:"rating"` // 1-5 stars
	Text      string     `json:"text,omitempty"`
	Sentiment *Sentiment `json:"sentiment,omitempty"`
}

// RatingValid reports whether the star rating is in the accepted range.
func (r *Review) RatingValid() bool {
	return r.Rating >= 1 && r.Rating <= 5
}
