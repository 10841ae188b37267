package sources

import (
	"log/slog"

	"github.com/lehigh-university-libraries/bibresolve/internal/config"
	"github.com/lehigh-university-libraries/bibresolve/internal/metrics"
	"github.com/lehigh-university-libraries/bibresolve/internal/ratelimit"
)

// defaultRates are requests per second per catalog. Open Library allows
// 100 requests per 5 minutes.
var defaultRates = map[string]float64{
	config.SourceOpenLibrary:    1,
	config.SourceGoogleBooks:    2,
	config.SourceWorldCat:       2,
	config.SourceLOC:            1,
	config.SourceHarvard:        2,
	config.SourceBNE:            1,
	config.SourceBritishLibrary: 1,
	config.SourceDNB:            1,
}

// defaultBursts let the requests of a single resolution go out together.
// Open Library serves four adapters, so it gets the largest burst.
var defaultBursts = map[string]int{
	config.SourceOpenLibrary: 4,
}

// defaultBurst applies to catalogs missing from defaultBursts.
const defaultBurst = 2

var defaultBaseURLs = map[string]string{
	config.SourceOpenLibrary:    OpenLibraryBaseURL,
	config.SourceGoogleBooks:    GoogleBooksBaseURL,
	config.SourceWorldCat:       WorldCatBaseURL,
	config.SourceLOC:            LOCBaseURL,
	config.SourceHarvard:        HarvardBaseURL,
	config.SourceBNE:            BNEBaseURL,
	config.SourceBritishLibrary: BritishLibraryBaseURL,
	config.SourceDNB:            DNBBaseURL,
}

// Registry holds the configured adapters in the order the resolver uses
// them.
type Registry struct {
	Metadata        []MetadataSource
	Classifications []ClassificationSource
}

// NewRegistry builds every enabled adapter from cfg. Adapters that talk to
// the same catalog share one rate limiter.
func NewRegistry(cfg *config.Config, doer HTTPDoer, m *metrics.Metrics) *Registry {
	if doer == nil {
		doer = NewHTTPClient()
	}

	clients := map[string]*Client{}
	client := func(key string) *Client {
		if c, ok := clients[key]; ok {
			return c
		}
		c := NewClient(baseURL(cfg, key), doer, cfg.Timeout)
		c.UserAgent = cfg.UserAgent
		c.Metrics = m
		burst, ok := defaultBursts[key]
		if !ok {
			burst = defaultBurst
		}
		c.Limiter = ratelimit.New(key, cfg.Rate(key, defaultRates[key]), cfg.Burst(key, burst))
		clients[key] = c
		return c
	}

	r := &Registry{}

	// Cascade order: structured records first, search indexes last.
	if cfg.Enabled(config.SourceOpenLibrary) {
		ol := client(config.SourceOpenLibrary)
		r.Metadata = append(r.Metadata,
			NewOpenLibraryBooks(ol),
			NewOpenLibraryEdition(ol),
			NewOpenLibrarySearch(ol),
		)
		r.Classifications = append(r.Classifications, NewOpenLibraryClassifications(ol))
	}
	if cfg.Enabled(config.SourceGoogleBooks) {
		r.Metadata = append(r.Metadata, NewGoogleBooks(client(config.SourceGoogleBooks), cfg.GoogleBooksAPIKey))
	}

	if cfg.Enabled(config.SourceWorldCat) {
		wc := client(config.SourceWorldCat)
		r.Classifications = append(r.Classifications, NewWorldCatByISBN(wc), NewWorldCatByTitle(wc))
	}
	if cfg.Enabled(config.SourceLOC) {
		r.Classifications = append(r.Classifications, NewLibraryOfCongress(client(config.SourceLOC)))
	}
	if cfg.Enabled(config.SourceHarvard) {
		r.Classifications = append(r.Classifications, NewHarvard(client(config.SourceHarvard)))
	}
	if cfg.Enabled(config.SourceBNE) {
		r.Classifications = append(r.Classifications, NewBNE(client(config.SourceBNE)))
	}
	if cfg.Enabled(config.SourceBritishLibrary) {
		r.Classifications = append(r.Classifications, NewBritishLibrary(client(config.SourceBritishLibrary)))
	}
	if cfg.Enabled(config.SourceDNB) {
		r.Classifications = append(r.Classifications, NewDNB(client(config.SourceDNB)))
	}

	if baseURL(cfg, config.SourceVuFind) != "" && cfg.Enabled(config.SourceVuFind) {
		r.Classifications = append(r.Classifications, NewVuFind(client(config.SourceVuFind)))
	}

	slog.Debug("Built source registry", "metadata", len(r.Metadata), "classifications", len(r.Classifications))
	return r
}

func baseURL(cfg *config.Config, key string) string {
	if key == config.SourceVuFind {
		return cfg.BaseURL(key, cfg.VuFindURL)
	}
	return cfg.BaseURL(key, defaultBaseURLs[key])
}
