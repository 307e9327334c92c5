package handlers

import (
	"errors"
	"net/http"

	"github.com/kova98/gigscout.api/models"
	"github.com/kova98/gigscout.api/schedulers"
)

type ScrapeController interface {
	Start() error
	Stop()
	RunNow() (models.ScrapeRunSummary, error)
	Status() models.ScraperStatus
}

type ProxyStatsProvider interface {
	Stats() map[string]models.ProxyStats
}

type ScraperHandler struct {
	scraper ScrapeController
	proxies ProxyStatsProvider
}

func NewScraperHandler(scraper ScrapeController, proxies ProxyStatsProvider) *ScraperHandler {
	return &ScraperHandler{scraper: scraper, proxies: proxies}
}

func (h *ScraperHandler) GetStatus(w http.ResponseWriter, r *http.Request) Result {
	status := h.scraper.Status()
	if h.proxies != nil {
		status.Proxies = h.proxies.Stats()
	}
	return Ok(status)
}

func (h *ScraperHandler) Start(w http.ResponseWriter, r *http.Request) Result {
	if err := h.scraper.Start(); err != nil {
		return InternalError(err, "start scraper")
	}
	return Ok(h.scraper.Status())
}

func (h *ScraperHandler) Stop(w http.ResponseWriter, r *http.Request) Result {
	h.scraper.Stop()
	return Ok(h.scraper.Status())
}

func (h *ScraperHandler) Run(w http.ResponseWriter, r *http.Request) Result {
	summary, err := h.scraper.RunNow()
	if errors.Is(err, schedulers.ErrRunInProgress) {
		return Conflict("A scrape run is already in progress.")
	}
	if err != nil {
		return InternalError(err, "run scraper")
	}
	return Ok(summary)
}
