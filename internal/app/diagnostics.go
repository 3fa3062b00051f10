package app

import (
	"context"
	"time"
)

// DebugInfo mirrors what operators need to check a deployment: is the key
// set, what are we searching for, what is cached, does a live lookup work.
// The credential itself is never included.
type DebugInfo struct {
	APIKeyStatus     string      `json:"apiKeyStatus"`
	APIKeyLength     int         `json:"apiKeyLength"`
	BusinessName     string      `json:"businessName"`
	BusinessLocation string      `json:"businessLocation"`
	SearchQuery      string      `json:"searchQuery"`
	Cache            DebugCache  `json:"cacheStatus"`
	Environment      DebugEnv    `json:"environment"`
	APITest          ProbeResult `json:"apiTest"`
}

type DebugCache struct {
	HasData     bool       `json:"hasData"`
	HasPlaceID  bool       `json:"hasPlaceId"`
	PlaceID     string     `json:"placeId"`
	LastUpdated *time.Time `json:"lastUpdated"`
	Stale       bool       `json:"stale"`
}

type DebugEnv struct {
	AppEnv   string `json:"appEnv"`
	HTTPAddr string `json:"httpAddr"`
}

type Diagnostics struct {
	biz      Business
	resolver *Resolver
	queries  *QueryService
	keyLen   int
	env      DebugEnv
}

func NewDiagnostics(biz Business, res *Resolver, q *QueryService, apiKey string, env DebugEnv) *Diagnostics {
	return &Diagnostics{biz: biz, resolver: res, queries: q, keyLen: len(apiKey), env: env}
}

func (d *Diagnostics) Run(ctx context.Context) DebugInfo {
	st := d.queries.Status()
	info := DebugInfo{
		APIKeyStatus:     "NOT CONFIGURED",
		APIKeyLength:     d.keyLen,
		BusinessName:     d.biz.Name,
		BusinessLocation: d.biz.Location,
		SearchQuery:      SearchQuery(d.biz.Name, d.biz.Location),
		Cache: DebugCache{
			HasData:     st.Populated,
			HasPlaceID:  st.HasIdentifier,
			PlaceID:     "Not cached",
			LastUpdated: st.LastUpdated,
			Stale:       st.Stale,
		},
		Environment: d.env,
		APITest:     d.resolver.Probe(ctx, d.biz.Name, d.biz.Location),
	}
	if d.keyLen > 0 {
		info.APIKeyStatus = "Configured"
	}
	if id, ok := d.resolver.store.Identifier(); ok {
		info.Cache.PlaceID = string(id)
	}
	return info
}
