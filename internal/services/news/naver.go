package news

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kimyeonkyu7453/SPP/internal/domain/models"
	xhttp "github.com/kimyeonkyu7453/SPP/pkg/http"
)

// NaverSearch queries the Naver news search API.
type NaverSearch struct {
	client  *xhttp.Client
	baseURL string
	id      string
	secret  string
}

func NewNaverSearch(client *xhttp.Client, baseURL, clientID, clientSecret string) *NaverSearch {
	if baseURL == "" {
		baseURL = "https://openapi.naver.com"
	}
	return &NaverSearch{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		id:      clientID,
		secret:  clientSecret,
	}
}

type naverResponse struct {
	Total int `json:"total"`
	Items []struct {
		Title        string `json:"title"`
		OriginalLink string `json:"originallink"`
		Link         string `json:"link"`
		Description  string `json:"description"`
		PubDate      string `json:"pubDate"`
	} `json:"items"`
}

// Search returns up to display articles for keyword, newest first.
func (n *NaverSearch) Search(ctx context.Context, keyword string, display int) ([]models.NewsArticle, error) {
	if display <= 0 {
		display = 5
	}
	var resp naverResponse
	err := n.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    n.baseURL + "/v1/search/news.json",
		Headers: map[string]string{
			"X-Naver-Client-Id":     n.id,
			"X-Naver-Client-Secret": n.secret,
		},
		QueryParams: map[string][]string{
			"query":   {keyword},
			"display": {strconv.Itoa(display)},
			"sort":    {"date"},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("naver search %q: %w", keyword, err)
	}

	out := make([]models.NewsArticle, 0, len(resp.Items))
	for _, it := range resp.Items {
		link := it.Link
		if link == "" {
			link = it.OriginalLink
		}
		out = append(out, models.NewsArticle{
			Title:       CleanText(it.Title),
			Link:        link,
			Description: CleanText(it.Description),
			PubDate:     it.PubDate,
		})
	}
	return out, nil
}
