package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/phrase"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/stats"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/wordgroup"
	apperrors "github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/logger"
)

// maxJSONBody bounds the small JSON bodies accepted for groups and phrases.
const maxJSONBody = 4 << 10

type Handler struct {
	searcher    *searcher.Searcher
	stats       *stats.Calculator
	groups      *wordgroup.Service
	phrases     *phrase.Service
	cache       *cache.QueryCache
	dateLayouts []string
	logger      *slog.Logger
}

// New creates a Handler. queryCache may be nil when caching is disabled.
func New(s *searcher.Searcher, calc *stats.Calculator, groups *wordgroup.Service, phrases *phrase.Service, queryCache *cache.QueryCache, dateLayouts []string) *Handler {
	return &Handler{
		searcher:    s,
		stats:       calc,
		groups:      groups,
		phrases:     phrases,
		cache:       queryCache,
		dateLayouts: dateLayouts,
		logger:      slog.Default().With("component", "search-handler"),
	}
}

// Register mounts the read API on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/articles", h.ListArticles)
	mux.HandleFunc("GET /api/v1/articles/{id}", h.GetArticle)
	mux.HandleFunc("GET /api/v1/articles/{id}/words", h.ArticleWords)
	mux.HandleFunc("GET /api/v1/articles/{id}/index", h.WordIndex)
	mux.HandleFunc("GET /api/v1/articles/{id}/word", h.WordAt)
	mux.HandleFunc("GET /api/v1/articles/{id}/contexts", h.Contexts)
	mux.HandleFunc("GET /api/v1/articles/{id}/stats", h.ArticleStats)
	mux.HandleFunc("GET /api/v1/articles/{id}/phrases", h.SearchPhraseInArticle)
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/words", h.Words)
	mux.HandleFunc("GET /api/v1/words/{word}/locations", h.WordLocations)
	mux.HandleFunc("GET /api/v1/stats", h.CorpusStats)
	mux.HandleFunc("GET /api/v1/stats/frequency", h.Frequency)
	mux.HandleFunc("GET /api/v1/stats/lengths", h.Lengths)
	mux.HandleFunc("GET /api/v1/groups", h.ListGroups)
	mux.HandleFunc("POST /api/v1/groups", h.CreateGroup)
	mux.HandleFunc("GET /api/v1/groups/{description}", h.GroupMembers)
	mux.HandleFunc("POST /api/v1/groups/{description}/words", h.AddGroupWord)
	mux.HandleFunc("GET /api/v1/groups/{description}/index", h.GroupIndex)
	mux.HandleFunc("GET /api/v1/phrases", h.ListPhrases)
	mux.HandleFunc("POST /api/v1/phrases", h.DefinePhrase)
	mux.HandleFunc("GET /api/v1/phrases/search", h.SearchPhrase)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health", h.Health)
}

func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	rows, err := h.searcher.Articles(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"count": len(rows), "articles": rows})
}

func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := h.articleID(w, r)
	if !ok {
		return
	}
	detail, err := h.searcher.Article(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) ArticleWords(w http.ResponseWriter, r *http.Request) {
	id, ok := h.articleID(w, r)
	if !ok {
		return
	}
	words, err := h.searcher.ArticleWords(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, words)
}

func (h *Handler) WordIndex(w http.ResponseWriter, r *http.Request) {
	id, ok := h.articleID(w, r)
	if !ok {
		return
	}
	entries, err := h.searcher.WordIndex(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) WordAt(w http.ResponseWriter, r *http.Request) {
	id, ok := h.articleID(w, r)
	if !ok {
		return
	}
	var slot index.Slot
	q := r.URL.Query()
	for name, dst := range map[string]*int{
		"paragraph": &slot.Paragraph,
		"line":      &slot.Line,
		"position":  &slot.Position,
	} {
		n, err := strconv.Atoi(q.Get(name))
		if err != nil || n < 1 {
			h.writeError(w, r, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "%s must be a positive integer", name))
			return
		}
		*dst = n
	}
	occ, err := h.searcher.WordAt(r.Context(), id, slot)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, occ)
}

func (h *Handler) Contexts(w http.ResponseWriter, r *http.Request) {
	id, ok := h.articleID(w, r)
	if !ok {
		return
	}
	word, ok := h.required(w, r, "word")
	if !ok {
		return
	}
	radius := -1
	if s := r.URL.Query().Get("radius"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			h.writeError(w, r, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "radius must be a non-negative integer"))
			return
		}
		radius = n
	}
	matches, err := h.searcher.Contexts(r.Context(), id, word, radius)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, matches)
}

func (h *Handler) ArticleStats(w http.ResponseWriter, r *http.Request) {
	id, ok := h.articleID(w, r)
	if !ok {
		return
	}
	summary, err := h.stats.Article(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sentences, err := h.stats.Sentences(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"summary": summary, "sentences": sentences})
}

func (h *Handler) SearchPhraseInArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := h.articleID(w, r)
	if !ok {
		return
	}
	p, ok := h.required(w, r, "phrase")
	if !ok {
		return
	}
	matches, err := h.phrases.Search(r.Context(), id, p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, matches)
}

// Search answers exactly one of reporter, newspaper, date, word or title.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	var (
		result any
		err    error
	)
	switch {
	case q.Get("reporter") != "":
		result, err = h.searcher.ByReporter(ctx, q.Get("reporter"))
	case q.Get("newspaper") != "":
		result, err = h.searcher.ByNewspaper(ctx, q.Get("newspaper"))
	case q.Get("date") != "":
		day, perr := validator.ParseDate(q.Get("date"), h.dateLayouts)
		if perr != nil {
			h.writeError(w, r, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "unrecognised date %q", q.Get("date")))
			return
		}
		result, err = h.searcher.ByDate(ctx, day)
	case q.Get("word") != "":
		result, err = h.searcher.ByWord(ctx, q.Get("word"))
	case q.Get("title") != "":
		result, err = h.searcher.ArticleByTitle(ctx, q.Get("title"))
	default:
		h.writeError(w, r, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest,
			"one of reporter, newspaper, date, word or title is required"))
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) Words(w http.ResponseWriter, r *http.Request) {
	words, err := h.searcher.Words(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, words)
}

func (h *Handler) WordLocations(w http.ResponseWriter, r *http.Request) {
	articleID, ok := h.optionalArticle(w, r)
	if !ok {
		return
	}
	locs, err := h.searcher.WordLocations(r.Context(), r.PathValue("word"), articleID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, locs)
}

func (h *Handler) CorpusStats(w http.ResponseWriter, r *http.Request) {
	summary, err := h.stats.Corpus(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) Frequency(w http.ResponseWriter, r *http.Request) {
	articleID, ok := h.optionalArticle(w, r)
	if !ok {
		return
	}
	rows, err := h.stats.Frequency(r.Context(), articleID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) Lengths(w http.ResponseWriter, r *http.Request) {
	articleID, ok := h.optionalArticle(w, r)
	if !ok {
		return
	}
	lengths, err := h.stats.CharsPerWord(r.Context(), articleID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, lengths)
}

func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, groups)
}

func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	id, err := h.groups.Create(r.Context(), req.Description)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"id": id, "description": req.Description})
}

func (h *Handler) GroupMembers(w http.ResponseWriter, r *http.Request) {
	description := r.PathValue("description")
	words, err := h.groups.Members(r.Context(), description)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"description": description, "words": words})
}

func (h *Handler) AddGroupWord(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Word string `json:"word"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.groups.AddWord(r.Context(), r.PathValue("description"), req.Word); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

func (h *Handler) GroupIndex(w http.ResponseWriter, r *http.Request) {
	articleID, ok := h.optionalArticle(w, r)
	if !ok {
		return
	}
	idx, err := h.groups.Index(r.Context(), r.PathValue("description"), articleID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, idx)
}

func (h *Handler) ListPhrases(w http.ResponseWriter, r *http.Request) {
	phrases, err := h.phrases.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, phrases)
}

func (h *Handler) DefinePhrase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phrase string `json:"phrase"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	id, err := h.phrases.Define(r.Context(), req.Phrase)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"id": id, "phrase": req.Phrase})
}

func (h *Handler) SearchPhrase(w http.ResponseWriter, r *http.Request) {
	p, ok := h.required(w, r, "phrase")
	if !ok {
		return
	}
	matches, err := h.phrases.SearchAll(r.Context(), p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, matches)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, r, apperrors.New(apperrors.ErrUnavailable, http.StatusServiceUnavailable, "caching is disabled"))
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) articleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		h.writeError(w, r, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "article id must be a positive integer"))
		return 0, false
	}
	return id, true
}

// optionalArticle reads the article query parameter; absent means zero.
func (h *Handler) optionalArticle(w http.ResponseWriter, r *http.Request) (int64, bool) {
	s := r.URL.Query().Get("article")
	if s == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		h.writeError(w, r, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "article must be a positive integer"))
		return 0, false
	}
	return id, true
}

func (h *Handler) required(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		h.writeError(w, r, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter '%s' is required", name))
		return "", false
	}
	return v, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		h.writeError(w, r, apperrors.Newf(apperrors.ErrInvalidInput, status, "invalid JSON body: %v", err))
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := apperrors.Message(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		message = http.StatusText(status)
	}
	h.writeJSON(w, status, map[string]string{"error": apperrors.Kind(err), "message": message})
}
