package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"igproxy/internal/cachewriter"
	"igproxy/pkg/cache"
	"igproxy/pkg/instagram"
	"igproxy/pkg/logger"
	"igproxy/pkg/models"
)

type inputKind int

const (
	inputURL inputKind = iota
	inputUsername
)

// endpoint describes one media route
type endpoint struct {
	name  string
	field string
	input inputKind
	parse func(string) (string, error)
	fetch func(context.Context, string) ([]models.MediaItem, error)
}

func postEndpoint(src MediaSource) endpoint {
	return endpoint{name: "post", field: "shortcode", input: inputURL, parse: instagram.PostShortcode, fetch: src.FetchPost}
}

func reelEndpoint(src MediaSource) endpoint {
	return endpoint{name: "reel", field: "shortcode", input: inputURL, parse: instagram.ReelShortcode, fetch: src.FetchReel}
}

func profileEndpoint(src MediaSource) endpoint {
	return endpoint{name: "profile", field: "username", input: inputUsername, parse: instagram.NormalizeUsername, fetch: src.FetchProfile}
}

func storiesEndpoint(src MediaSource) endpoint {
	return endpoint{name: "stories", field: "username", input: inputUsername, parse: instagram.NormalizeUsername, fetch: src.FetchStories}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) mediaHandler(ep endpoint) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := s.readTarget(w, r, ep.input)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		id, err := ep.parse(raw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		s.serveMedia(w, r, ep, id)
	}
}

func (s *Server) readTarget(w http.ResponseWriter, r *http.Request, kind inputKind) (string, error) {
	if kind == inputUsername {
		var req usernameRequest
		if err := s.decodeRequest(w, r, &req); err != nil {
			return "", err
		}
		return req.Username, nil
	}

	var req urlRequest
	if err := s.decodeRequest(w, r, &req); err != nil {
		return "", err
	}
	return req.URL, nil
}

// serveMedia answers from the cache or fetches upstream. Concurrent misses
// for the same key wait on a single fetch.
func (s *Server) serveMedia(w http.ResponseWriter, r *http.Request, ep endpoint, id string) {
	key := cache.Key(ep.name, ep.field, id)
	log := s.logger.WithContext(r.Context())

	if s.cache != nil {
		cached, ok, err := s.cache.Get(r.Context(), key)
		switch {
		case err != nil:
			log.WithError(err).WithField("cache_key", key).Warn("Cache lookup failed")
		case ok:
			logger.LogCacheEvent(log, "hit", key)
			w.Header().Set("Cache-Control", cached.CacheControl)
			w.Header().Set("X-Cache", "HIT")
			writeBody(w, http.StatusOK, cached.Body)
			return
		default:
			logger.LogCacheEvent(log, "miss", key)
		}
	}

	// The shared fetch outlives any single caller's cancellation but not
	// the write timeout of the callers waiting on it
	detached := context.WithoutCancel(r.Context())
	v, err, shared := s.inflight.Do(key, func() (interface{}, error) {
		fetchCtx := detached
		if s.fetchTimeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(detached, s.fetchTimeout)
			defer cancel()
		}
		items, err := ep.fetch(fetchCtx, id)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []models.MediaItem{}
		}
		return json.Marshal(models.MediaResponse{Success: true, Media: items})
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if shared {
		log.WithField("cache_key", key).Debug("Joined in-flight fetch")
	}

	body := v.([]byte)
	ttl := s.cacheCfg.TTLFor(ep.name)
	cacheControl := cache.CacheControl(ttl)

	w.Header().Set("Cache-Control", cacheControl)
	if s.cache != nil {
		w.Header().Set("X-Cache", "MISS")
	}
	writeBody(w, http.StatusOK, body)

	s.store(log, key, body, cacheControl, ttl)
}

// store hands a fresh response to the cache writer
func (s *Server) store(log logger.Logger, key string, body []byte, cacheControl string, ttl time.Duration) {
	if s.cache == nil || s.writer == nil || ttl <= 0 {
		return
	}

	err := s.writer.Submit(cachewriter.Job{
		Key: key,
		Response: &cache.Response{
			Body:         body,
			ContentType:  contentTypeJSON,
			CacheControl: cacheControl,
			StoredAt:     time.Now(),
		},
		TTL: ttl,
	})
	if err != nil {
		log.WithError(err).WithField("cache_key", key).Warn("Cache write dropped")
	}
}
