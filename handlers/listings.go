package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/kova98/gigscout.api/data"
	"github.com/kova98/gigscout.api/matchers"
	"github.com/kova98/gigscout.api/models"
)

const (
	listingsPerPage = 20
	maxListingsPage = 10000
)

type ListingStore interface {
	GetListings(ctx context.Context, minScore, limit, offset int) ([]data.Listing, int, error)
}

type ListingHandler struct {
	repo ListingStore
}

func NewListingHandler(repo ListingStore) *ListingHandler {
	return &ListingHandler{repo: repo}
}

func (h *ListingHandler) GetListings(w http.ResponseWriter, r *http.Request) Result {
	query := r.URL.Query()

	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	if page > maxListingsPage {
		return BadRequest("page must not exceed 10000.")
	}

	minScore := matchers.MinRelevance
	if raw := query.Get("minScore"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < matchers.MinScore || v > matchers.MaxScore {
			return BadRequest("minScore must be an integer between 0 and 10.")
		}
		minScore = v
	}

	offset := (page - 1) * listingsPerPage
	listings, total, err := h.repo.GetListings(r.Context(), minScore, listingsPerPage, offset)
	if err != nil {
		return InternalError(err, "get listings")
	}

	res := models.GetListingsResponse{
		Listings: make([]models.Listing, 0, len(listings)),
		Total:    total,
		Page:     page,
		PerPage:  listingsPerPage,
	}
	for _, l := range listings {
		res.Listings = append(res.Listings, toListingModel(l))
	}

	return Ok(res)
}

func toListingModel(l data.Listing) models.Listing {
	skills := []string(l.Skills)
	if skills == nil {
		skills = []string{}
	}
	return models.Listing{
		ID:             l.ID,
		ExternalURL:    l.ExternalURL,
		SourceName:     l.SourceName,
		Title:          l.Title,
		Company:        l.Company,
		Description:    l.Description,
		Location:       l.Location,
		RemoteAllowed:  l.RemoteAllowed,
		RateType:       string(l.RateType),
		RateMin:        l.RateMin,
		RateMax:        l.RateMax,
		Skills:         skills,
		RelevanceScore: l.RelevanceScore,
		DatePosted:     l.DatePosted,
		Status:         string(l.Status),
	}
}
