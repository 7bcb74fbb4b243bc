package views

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/backoffice/internal/filterview"
	"github.com/odyssey-erp/backoffice/internal/platform/httpx"
	"github.com/odyssey-erp/backoffice/internal/savedfilters"
	"github.com/odyssey-erp/backoffice/internal/shared"
	"github.com/odyssey-erp/backoffice/internal/toggle"
	"github.com/odyssey-erp/backoffice/internal/view"
	"github.com/odyssey-erp/backoffice/internal/viewsession"
)

const defaultWait = 2 * time.Second

// ErrUnknownToggle is returned for a toggle group the view does not declare.
var ErrUnknownToggle = errors.New("views: unknown toggle group")

// SavedFilters is the saved-filter service used by the handlers.
type SavedFilters interface {
	Create(ctx context.Context, in savedfilters.CreateInput) (savedfilters.SavedFilter, error)
	List(ctx context.Context, owner, view string) ([]savedfilters.SavedFilter, error)
	Get(ctx context.Context, owner, id string) (savedfilters.SavedFilter, error)
	Delete(ctx context.Context, owner, id string) error
	SetDefault(ctx context.Context, owner, id string) error
	Default(ctx context.Context, owner, view string) (savedfilters.SavedFilter, bool, error)
}

// HandlerConfig wires a Handler.
type HandlerConfig struct {
	Options    Options
	Templates  *view.Engine
	Saved      SavedFilters
	Logger     *slog.Logger
	SessionTTL time.Duration
	// Wait bounds how long a page request waits for a pending load.
	Wait time.Duration
	Nav  []string
}

// Handler serves one view over HTTP.
type Handler[D any] struct {
	def       Definition[D]
	opts      Options
	sessions  *viewsession.Registry[*Session[D]]
	saved     SavedFilters
	templates *view.Engine
	logger    *slog.Logger
	wait      time.Duration
	nav       []string
}

// NewHandler builds the handler and its session registry.
func NewHandler[D any](def Definition[D], cfg HandlerConfig) *Handler[D] {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("view", def.Name))
	if cfg.Options.Logger == nil {
		cfg.Options.Logger = logger
	}
	wait := cfg.Wait
	if wait <= 0 {
		wait = defaultWait
	}
	return &Handler[D]{
		def:       def,
		opts:      cfg.Options,
		sessions:  viewsession.NewRegistry[*Session[D]](cfg.SessionTTL, logger),
		saved:     cfg.Saved,
		templates: cfg.Templates,
		logger:    logger,
		wait:      wait,
		nav:       cfg.Nav,
	}
}

// Name is the view name and route prefix.
func (h *Handler[D]) Name() string {
	return h.def.Name
}

// MountRoutes registers the view routes on a router mounted at /{view}.
func (h *Handler[D]) MountRoutes(r chi.Router) {
	r.Get("/", h.show)
	r.Get("/data.json", h.data)
	r.Post("/filters", h.applyFilters)
	r.Post("/toggle", h.toggle)
	r.Post("/reload", h.reload)
	for name := range h.def.Actions {
		r.Post("/"+name, h.action(name))
	}
	if h.saved != nil {
		r.Get("/saved", h.listSaved)
		r.Post("/saved", h.createSaved)
		r.Post("/saved/{id}/apply", h.applySaved)
		r.Post("/saved/{id}/default", h.defaultSaved)
		r.Post("/saved/{id}/delete", h.deleteSaved)
	}
}

// Run sweeps idle sessions until ctx is done.
func (h *Handler[D]) Run(ctx context.Context, interval time.Duration) {
	h.sessions.Run(ctx, interval)
}

// Sessions counts the open sessions of the view.
func (h *Handler[D]) Sessions() int {
	return h.sessions.Len()
}

// Close closes every open session.
func (h *Handler[D]) Close() error {
	return h.sessions.Close()
}

func (h *Handler[D]) key(r *http.Request) (viewsession.Key, error) {
	id := viewsession.IDFromContext(r.Context())
	if id == "" {
		return viewsession.Key{}, errors.New("views: missing view session")
	}
	return viewsession.Key{Session: id, View: h.def.Name}, nil
}

// open returns the session of the request, creating it from the request
// query. A view opened without any of its parameters starts from the
// operator's default saved filter.
func (h *Handler[D]) open(r *http.Request) (*Session[D], bool, error) {
	key, err := h.key(r)
	if err != nil {
		return nil, false, err
	}
	if s, ok := h.sessions.Get(key); ok {
		return s, false, nil
	}
	initial := r.URL.Query()
	keys := h.def.codec(h.def.Schema(initial)).Keys()
	if h.saved != nil && len(filterview.OwnedQuery(initial, keys)) == 0 {
		f, found, err := h.saved.Default(r.Context(), h.owner(r), h.def.Name)
		switch {
		case err != nil:
			h.logger.Warn("load default saved filter", slog.Any("error", err))
		case found:
			initial = filterview.MergeQuery(initial, keys, f.Values())
		}
	}
	return h.sessions.GetOrCreate(key, func() (*Session[D], error) {
		return Open(context.WithoutCancel(r.Context()), h.def, initial, h.opts)
	})
}

func (h *Handler[D]) existing(w http.ResponseWriter, r *http.Request) (*Session[D], bool) {
	key, err := h.key(r)
	if err == nil {
		if s, ok := h.sessions.Get(key); ok {
			return s, true
		}
	}
	httpx.SeeOther(w, r, "/"+h.def.Name)
	return nil, false
}

func (h *Handler[D]) show(w http.ResponseWriter, r *http.Request) {
	s, created, err := h.open(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	requested := filterview.OwnedQuery(r.URL.Query(), s.Keys())
	if !created && len(requested) > 0 {
		s.Navigate(r.URL.Query())
	}
	if s.OwnedQuery().Encode() != requested.Encode() {
		httpx.SeeOther(w, r, h.location(s))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.wait)
	defer cancel()
	if err := s.Controller.Wait(ctx); err != nil {
		h.logger.Debug("render before load settled", slog.Any("error", err))
	}

	page := BuildPage(h.def, s)
	if h.saved != nil {
		saved, err := h.saved.List(r.Context(), h.owner(r), h.def.Name)
		if err != nil {
			h.logger.Warn("list saved filters", slog.Any("error", err))
		}
		page.Saved = saved
	}
	if h.templates == nil {
		httpx.JSON(w, http.StatusOK, page)
		return
	}
	data := view.TemplateData{
		Title:       h.def.Title,
		CurrentPath: r.URL.Path,
		Operator:    shared.OperatorFromContext(r.Context()),
		Nav:         h.nav,
		Data:        page,
	}
	if err := h.templates.Render(w, "pages/view.html", data); err != nil {
		h.logger.Error("render view", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler[D]) data(w http.ResponseWriter, r *http.Request) {
	key, err := h.key(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	s, ok := h.sessions.Get(key)
	if !ok {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "view is not open", r.URL.Path)
		return
	}
	httpx.JSON(w, http.StatusOK, BuildPage(h.def, s))
}

func (h *Handler[D]) applyFilters(w http.ResponseWriter, r *http.Request) {
	s, ok := h.existing(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error(), r.URL.Path)
		return
	}
	values, rejected := s.ParseForm(r.PostForm)
	if len(rejected) > 0 {
		h.logger.Debug("ignored unparsable filter input", slog.Any("fields", rejected))
	}
	if err := s.Controller.SetFields(values); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.SeeOther(w, r, h.location(s))
}

func (h *Handler[D]) toggle(w http.ResponseWriter, r *http.Request) {
	s, ok := h.existing(w, r)
	if !ok {
		return
	}
	if _, err := s.Toggle(r.PostFormValue("group"), r.PostFormValue("value")); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.SeeOther(w, r, h.location(s))
}

func (h *Handler[D]) reload(w http.ResponseWriter, r *http.Request) {
	s, ok := h.existing(w, r)
	if !ok {
		return
	}
	if err := s.Controller.Reload(); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.SeeOther(w, r, h.location(s))
}

func (h *Handler[D]) action(name string) http.HandlerFunc {
	act := h.def.Actions[name]
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := h.existing(w, r)
		if !ok {
			return
		}
		if err := act(s); err != nil {
			h.fail(w, r, err)
			return
		}
		httpx.SeeOther(w, r, h.location(s))
	}
}

func (h *Handler[D]) listSaved(w http.ResponseWriter, r *http.Request) {
	list, err := h.saved.List(r.Context(), h.owner(r), h.def.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list == nil {
		list = []savedfilters.SavedFilter{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler[D]) createSaved(w http.ResponseWriter, r *http.Request) {
	s, ok := h.existing(w, r)
	if !ok {
		return
	}
	_, err := h.saved.Create(r.Context(), savedfilters.CreateInput{
		Owner:     h.owner(r),
		View:      h.def.Name,
		Name:      r.PostFormValue("name"),
		Query:     s.OwnedQuery().Encode(),
		IsDefault: checked(r.PostFormValue("default")),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.SeeOther(w, r, h.location(s))
}

func (h *Handler[D]) applySaved(w http.ResponseWriter, r *http.Request) {
	s, ok := h.existing(w, r)
	if !ok {
		return
	}
	f, err := h.saved.Get(r.Context(), h.owner(r), chi.URLParam(r, "id"))
	if err == nil && f.View != h.def.Name {
		err = savedfilters.ErrNotFound
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	s.Navigate(filterview.MergeQuery(s.Location.Query(), s.Keys(), f.Values()))
	httpx.SeeOther(w, r, h.location(s))
}

func (h *Handler[D]) defaultSaved(w http.ResponseWriter, r *http.Request) {
	if err := h.saved.SetDefault(r.Context(), h.owner(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	h.back(w, r)
}

func (h *Handler[D]) deleteSaved(w http.ResponseWriter, r *http.Request) {
	if err := h.saved.Delete(r.Context(), h.owner(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	h.back(w, r)
}

func (h *Handler[D]) back(w http.ResponseWriter, r *http.Request) {
	if key, err := h.key(r); err == nil {
		if s, ok := h.sessions.Get(key); ok {
			httpx.SeeOther(w, r, h.location(s))
			return
		}
	}
	httpx.SeeOther(w, r, "/"+h.def.Name)
}

func (h *Handler[D]) location(s *Session[D]) string {
	path := "/" + h.def.Name
	if q := s.Location.Query().Encode(); q != "" {
		return path + "?" + q
	}
	return path
}

func (h *Handler[D]) owner(r *http.Request) string {
	if name := shared.OperatorFromContext(r.Context()); name != "" {
		return name
	}
	return "anonymous"
}

// fail maps package errors onto the httpx sentinels.
func (h *Handler[D]) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, filterview.ErrInvalidFilters),
		errors.Is(err, filterview.ErrUnknownField),
		errors.Is(err, filterview.ErrInvalidValue),
		errors.Is(err, toggle.ErrUnknownOption),
		errors.Is(err, ErrUnknownToggle),
		errors.As(err, &verrs):
		err = fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	case errors.Is(err, savedfilters.ErrNotFound):
		err = fmt.Errorf("%w: %v", httpx.ErrNotFound, err)
	case errors.Is(err, savedfilters.ErrDuplicateName):
		err = fmt.Errorf("%w: %v", httpx.ErrDuplicate, err)
	case errors.Is(err, filterview.ErrClosed):
		err = fmt.Errorf("%w: %v", httpx.ErrConflict, err)
	default:
		h.logger.Error("view request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, r, err)
}

func checked(v string) bool {
	return slices.Contains([]string{"on", "true", "1"}, v)
}
