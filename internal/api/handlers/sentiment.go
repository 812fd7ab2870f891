package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/dkwon/alphadesk/internal/external/news"
	"github.com/dkwon/alphadesk/internal/sentiment"
	"github.com/dkwon/alphadesk/pkg/logger"
)

// SentimentHandler scores recent headlines for a ticker
type SentimentHandler struct {
	news     *news.Client
	analyzer *sentiment.Analyzer
	logger   *logger.Logger
}

// NewSentimentHandler creates a new sentiment handler
func NewSentimentHandler(newsClient *news.Client, analyzer *sentiment.Analyzer, log *logger.Logger) *SentimentHandler {
	return &SentimentHandler{news: newsClient, analyzer: analyzer, logger: log}
}

// sentimentResponse pairs each headline with its label, plus the
// aggregate summary.
type sentimentResponse struct {
	Ticker    string             `json:"ticker"`
	Headlines []scoredHeadline   `json:"headlines"`
	Summary   *sentiment.Summary `json:"summary"`
}

type scoredHeadline struct {
	Title     string          `json:"title"`
	Link      string          `json:"link,omitempty"`
	Sentiment sentiment.Label `json:"sentiment"`
}

// Sentiment fetches and scores recent headlines
// GET /api/sentiment/{ticker}?limit=20
func (h *SentimentHandler) Sentiment(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	if ticker == "" {
		respondError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}

	headlines, err := h.news.Headlines(r.Context(), ticker, limit)
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Error("Headline fetch failed")
		respondError(w, statusFor(err), err.Error())
		return
	}

	labels, err := h.analyzer.Predict(news.Titles(headlines))
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Error("Sentiment scoring failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := sentimentResponse{Ticker: ticker}
	for i, hl := range headlines {
		resp.Headlines = append(resp.Headlines, scoredHeadline{
			Title:     hl.Title,
			Link:      hl.Link,
			Sentiment: labels[i],
		})
	}

	summary := &sentiment.Summary{Total: len(labels)}
	for _, l := range labels {
		switch l {
		case sentiment.LabelPositive:
			summary.Positive++
		case sentiment.LabelNegative:
			summary.Negative++
		default:
			summary.Neutral++
		}
	}
	if summary.Total > 0 {
		summary.Net = float64(summary.Positive-summary.Negative) / float64(summary.Total)
	}
	resp.Summary = summary

	respondJSON(w, http.StatusOK, resp)
}
